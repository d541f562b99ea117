package rendergraph

import "iter"

// NodeHandle refers to a node of one graph cycle. Handles become stale once
// the graph is submitted or reset.
type NodeHandle struct {
	index      uint32
	generation uint32
}

// Index returns the program-order position of the node.
func (h NodeHandle) Index() int { return int(h.index) }

// CreateInfo describes a node to add.
type CreateInfo struct {
	// Data is the payload, e.g. &FillBufferData{...}.
	Data NodeData
	// Access lists resources touched beyond those implied by Data.
	Access AccessInfo
	// Label names the node in logs and DOT output.
	Label string
}

type node struct {
	data   NodeData
	access AccessInfo
	label  string
}

// links derives the node's links from its current payload and declared
// accesses.
func (n *node) links() []Link {
	b := linkBuilder{defaultStage: n.data.Kind().executionStage()}
	n.data.buildLinks(&b)
	b.accessInfo(n.access)
	return b.links
}

// Graph records the nodes of one flush cycle in submission order and owns
// the resource tracker they are scheduled against.
//
// A Graph is owned by a single goroutine for its whole lifecycle.
type Graph struct {
	opts       graphOptions
	tracker    *Tracker
	nodes      []node
	generation uint32
}

// New creates an empty graph.
//
// Example:
//
//	g := rendergraph.New()
//	g.AddBuffer(buf)
//	g.AddNode(rendergraph.CreateInfo{Data: &rendergraph.FillBufferData{Buffer: buf, Size: 1024, Data: 42}})
//	rendergraph.Submit(g, exec)
func New(opts ...Option) *Graph {
	o := defaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}
	t := o.tracker
	if t == nil {
		t = NewTracker()
	}
	return &Graph{
		opts:    o,
		tracker: t,
		nodes:   make([]node, 0, o.capacity),
	}
}

// Tracker returns the resource state tracker used by this graph.
func (g *Graph) Tracker() *Tracker { return g.tracker }

// AddBuffer registers a buffer with the graph's tracker.
func (g *Graph) AddBuffer(h Handle) { g.tracker.AddBuffer(h) }

// AddImage registers an image with the graph's tracker.
func (g *Graph) AddImage(h Handle, layered bool) { g.tracker.AddImage(h, layered) }

// AddNode appends a node in program order and returns its handle.
func (g *Graph) AddNode(info CreateInfo) NodeHandle {
	if info.Data == nil {
		fatal(ErrNilNodeData, len(g.nodes), "AddNode")
	}
	g.nodes = append(g.nodes, node{data: info.Data, access: info.Access, label: info.Label})
	return NodeHandle{index: uint32(len(g.nodes) - 1), generation: g.generation}
}

// NodeData returns the payload of h for in-place edits before Submit.
//
// Example:
//
//	h := g.AddNode(rendergraph.CreateInfo{Data: &rendergraph.CopyBufferData{...}})
//	g.NodeData(h).(*rendergraph.CopyBufferData).Regions[0].Size = n
func (g *Graph) NodeData(h NodeHandle) NodeData {
	return g.node(h).data
}

// Label returns the label given to h.
func (g *Graph) Label(h NodeHandle) string { return g.node(h).label }

// Links returns the links of h derived from its current payload.
func (g *Graph) Links(h NodeHandle) []Link { return g.node(h).links() }

// Len returns the number of nodes added since the last reset.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes iterates over node handles in program order.
func (g *Graph) Nodes() iter.Seq[NodeHandle] {
	return func(yield func(NodeHandle) bool) {
		for i := range g.nodes {
			if !yield(NodeHandle{index: uint32(i), generation: g.generation}) {
				return
			}
		}
	}
}

// Reset drops all nodes and invalidates their handles. Resource
// registrations and tracked state are kept.
func (g *Graph) Reset() {
	clear(g.nodes)
	g.nodes = g.nodes[:0]
	g.generation++
}

func (g *Graph) node(h NodeHandle) *node {
	if h.generation != g.generation || int(h.index) >= len(g.nodes) {
		fatal(ErrStaleNode, int(h.index), "generation %d, graph generation %d", h.generation, g.generation)
	}
	return &g.nodes[h.index]
}
