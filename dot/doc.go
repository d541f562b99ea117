// Package dot exports a render graph as a Graphviz diagram.
//
// Nodes appear as boxes in program order. Each rendering scope is drawn as
// a dashed cluster, and an arrow joins a node to the latest earlier node
// it must stay ordered after, labelled with the resources they conflict
// on. These arrows are exactly the orderings the scheduler may not break.
//
// # Usage
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// With Detailed set, every label also lists the node's links as
// "R|W|RW handle access [layout range]".
//
// # Dependencies
//
// [RenderSVG] renders in-process through [github.com/goccy/go-graphviz];
// no Graphviz installation is required.
package dot
