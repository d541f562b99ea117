// Package backend provides a pluggable executor backend abstraction.
//
// A backend owns a rendergraph.Executor and whatever device objects the
// graph's handles stand for. The recording backend is always available;
// GPU backends register themselves when their package is imported.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The recording backend is automatically registered on import:
//
//	import _ "github.com/gogpu/rendergraph/backend"
//
// The native backend registers itself from its own package:
//
//	import _ "github.com/gogpu/rendergraph/backend/native"
//
// # Backend Selection
//
// Use InitDefault() to get the best backend that initializes, or Get() to
// request a specific backend by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// # Running a Frame
//
//	if err := b.Provision(resources); err != nil {
//		log.Fatal(err)
//	}
//	rendergraph.Submit(g, b.Executor())
//	if err := b.Finish(); err != nil {
//		log.Fatal(err)
//	}
//
// # Available Backends
//
// - "recording": captures the command stream for inspection (always available)
// - "native": encodes onto a gogpu/wgpu hal device
package backend
