package dot

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	rg "github.com/gogpu/rendergraph"
)

// Options configures DOT export.
type Options struct {
	// Detailed lists every link of a node under its label.
	Detailed bool
	// Title is drawn above the graph when set.
	Title string
}

type edge struct{ from, to int }

// ToDOT converts the nodes of g to Graphviz DOT format. Nodes appear in
// program order, rendering scopes become dashed clusters, and an edge
// joins each node to the latest earlier node it conflicts with on every
// resource they share. Edge labels name the shared resources.
//
// The graph is only read; it can still be submitted afterwards.
func ToDOT(g *rg.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"monospace\", fontsize=10];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	scopes := 0
	open := false
	for h := range g.Nodes() {
		kind := g.NodeData(h).Kind()
		if kind == rg.NodeBeginRendering && !open {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n    style=dashed;\n    label=\"rendering %d\";\n", scopes, scopes)
			scopes++
			open = true
		}
		indent := "  "
		if open {
			indent = "    "
		}
		label := fmtLabel(h.Index(), kind, g.Label(h), g.Links(h), opts.Detailed)
		fmt.Fprintf(&buf, "%s%s [%s];\n", indent, nodeID(h.Index()), strings.Join(fmtAttrs(kind, label), ", "))
		if kind == rg.NodeEndRendering && open {
			buf.WriteString("  }\n")
			open = false
		}
	}
	if open {
		buf.WriteString("  }\n")
	}

	edges := hazards(g)
	if len(edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range slices.SortedFunc(maps.Keys(edges), func(a, b edge) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
	}) {
		fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", nodeID(e.from), nodeID(e.to), fmtHandles(edges[e]))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// hazards returns, for every ordered node pair joined by a conflict, the
// resources they conflict on.
func hazards(g *rg.Graph) map[edge][]rg.Handle {
	type access struct {
		node int
		link rg.Link
	}
	history := make(map[rg.Handle][]access)
	edges := make(map[edge][]rg.Handle)
	for h := range g.Nodes() {
		links := g.Links(h)
		for _, l := range links {
			prior := history[l.Resource]
			for i := len(prior) - 1; i >= 0; i-- {
				if prior[i].node == h.Index() || !prior[i].link.Conflicts(l) {
					continue
				}
				e := edge{prior[i].node, h.Index()}
				if !slices.Contains(edges[e], l.Resource) {
					edges[e] = append(edges[e], l.Resource)
				}
				break
			}
		}
		for _, l := range links {
			history[l.Resource] = append(history[l.Resource], access{h.Index(), l})
		}
	}
	return edges
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }

func fmtLabel(i int, kind rg.NodeKind, name string, links []rg.Link, detailed bool) string {
	parts := []string{fmt.Sprintf("#%d %s", i, kind)}
	if name != "" {
		parts = append(parts, name)
	}
	if detailed {
		for _, l := range links {
			parts = append(parts, fmtLink(l))
		}
	}
	return strings.Join(parts, "\n")
}

func fmtLink(l rg.Link) string {
	dir := "R"
	switch {
	case l.IsOutput() && l.IsInput():
		dir = "RW"
	case l.IsOutput():
		dir = "W"
	}
	if l.Kind == rg.ResourceBuffer {
		return fmt.Sprintf("%s %#x %v", dir, uint64(l.Resource), l.Access)
	}
	return fmt.Sprintf("%s %#x %v %v %v", dir, uint64(l.Resource), l.Access, l.Layout, l.Range)
}

func fmtAttrs(kind rg.NodeKind, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch kind {
	case rg.NodeBeginRendering, rg.NodeEndRendering:
		attrs = append(attrs, "fillcolor=lightblue")
	case rg.NodeSynchronization:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

func fmtHandles(hs []rg.Handle) string {
	parts := make([]string, len(hs))
	for i, h := range slices.Sorted(slices.Values(hs)) {
		parts[i] = fmt.Sprintf("%#x", uint64(h))
	}
	return strings.Join(parts, ",")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
