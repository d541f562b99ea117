// Package rendergraph schedules GPU command nodes and synthesizes the
// pipeline barriers between them.
//
// # Overview
//
// A frame is recorded as a list of nodes in program order: copies, clears,
// blits, dispatches, draws and the BeginRendering/EndRendering pairs that
// delimit rendering scopes. Each node declares the buffers and images it
// touches. Submit walks the nodes, tracks the state of every resource
// subrange and issues the minimal barriers, layout transitions and binds
// through an [Executor].
//
// # Quick Start
//
//	import rg "github.com/gogpu/rendergraph"
//
//	g := rg.New()
//	g.AddBuffer(staging)
//	g.AddBuffer(vertices)
//
//	g.AddNode(rg.CreateInfo{Label: "upload", Data: &rg.CopyBufferData{
//	    Src: staging, Dst: vertices,
//	    Regions: []rg.BufferCopy{{Size: 4096}},
//	}})
//
//	stats := rg.Submit(g, exec)
//
// # Rendering Scopes
//
// Barriers cannot be issued inside a rendering scope. Nodes placed inside
// a scope that may not execute there are hoisted in front of it when they
// do not depend on the scope, deferred behind it otherwise. A dependency
// that cannot be reordered splits the scope: it is ended, the barrier is
// issued and the scope resumes. WithoutReordering disables hoisting.
//
// # Barrier Policy
//
// An image range may overlap several tracked regions with different
// histories. BarrierUnion (the default) unions their prior accesses into
// one image barrier over the requested range, falling back to one barrier
// per region where layouts disagree. BarrierPrecise emits one barrier per
// region that needs synchronization.
//
// # Preconditions
//
// Graph misuse (unregistered handles, unbalanced scopes, conflicting
// access declarations) panics with a *[PreconditionError] wrapping one of
// the Err sentinels. Recording GPU work from an inconsistent graph is
// never useful.
//
// # Backends
//
// Package recording captures the command stream for inspection and tests.
// Package backend/native drives a gogpu/wgpu hal device. Package framefile
// loads frames from TOML or YAML, and package dot exports the dependency
// graph for Graphviz.
package rendergraph
