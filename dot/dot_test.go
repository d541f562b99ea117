package dot

import (
	"context"
	"strings"
	"testing"

	rg "github.com/gogpu/rendergraph"
)

const (
	staging rg.Handle = 0x1
	uniform rg.Handle = 0x2
	target  rg.Handle = 0x10
)

// frameGraph builds fill -> copy -> scoped draw -> present.
func frameGraph(t *testing.T) *rg.Graph {
	t.Helper()
	g := rg.New()
	g.AddBuffer(staging)
	g.AddBuffer(uniform)
	g.AddImage(target, false)

	g.AddNode(rg.CreateInfo{Label: "init", Data: &rg.FillBufferData{Buffer: staging, Size: 256}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: staging, Dst: uniform, Regions: []rg.BufferCopy{{Size: 256}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.BeginRenderingData{RenderingInfo: rg.RenderingInfo{
		LayerCount:       1,
		ColorAttachments: []rg.RenderingAttachment{{Image: target, Layout: rg.LayoutColorAttachmentOptimal, StoreOp: rg.StoreOpStore}},
	}}})
	g.AddNode(rg.CreateInfo{
		Label:  "quad",
		Data:   &rg.DrawData{VertexCount: 6, InstanceCount: 1},
		Access: rg.AccessInfo{Buffers: []rg.BufferAccess{{Buffer: uniform, Access: rg.AccessUniformRead}}},
	})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})
	g.AddNode(rg.CreateInfo{Data: &rg.SynchronizationData{Image: target, Layout: rg.LayoutPresentSrc}})
	return g
}

func TestToDOT(t *testing.T) {
	out := ToDOT(frameGraph(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`n0 [label="#0 FillBuffer\ninit"];`,
		`n1 [label="#1 CopyBuffer"];`,
		"subgraph cluster_0 {",
		`    n3 [label="#3 Draw\nquad"];`,
		`n5 [label="#5 Synchronization", style="rounded,filled,dashed", fillcolor=lightgrey];`,
		`n0 -> n1 [label="0x1"];`,
		`n1 -> n3 [label="0x2"];`,
		`n2 -> n5 [label="0x10"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q\n%s", want, out)
		}
	}
	if got := strings.Count(out, "->"); got != 3 {
		t.Errorf("edge count = %d, want 3\n%s", got, out)
	}
	if strings.Index(out, "n5 [") < strings.Index(out, "  }\n") {
		t.Errorf("synchronization node placed inside the rendering cluster\n%s", out)
	}
}

func TestToDOTDetailed(t *testing.T) {
	out := ToDOT(frameGraph(t), Options{Detailed: true, Title: "frame"})

	for _, want := range []string{
		`label="frame";`,
		`W 0x1 TRANSFER_WRITE`,
		`R 0x1 TRANSFER_READ`,
		`R 0x2 UNIFORM_READ`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q\n%s", want, out)
		}
	}
}

func TestToDOTReadsDoNotOrder(t *testing.T) {
	g := rg.New()
	g.AddBuffer(staging)
	g.AddBuffer(uniform)
	g.AddBuffer(0x3)
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: staging, Dst: uniform, Regions: []rg.BufferCopy{{Size: 4}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: staging, Dst: 0x3, Regions: []rg.BufferCopy{{Size: 4}}}})

	if out := ToDOT(g, Options{}); strings.Contains(out, "->") {
		t.Errorf("two readers of one buffer should not be joined\n%s", out)
	}
}

func TestToDOTUnclosedScope(t *testing.T) {
	g := rg.New()
	g.AddImage(target, false)
	g.AddNode(rg.CreateInfo{Data: &rg.BeginRenderingData{RenderingInfo: rg.RenderingInfo{
		LayerCount:       1,
		ColorAttachments: []rg.RenderingAttachment{{Image: target, Layout: rg.LayoutColorAttachmentOptimal}},
	}}})

	out := ToDOT(g, Options{})
	if strings.Count(out, "{") != strings.Count(out, "}") {
		t.Errorf("unbalanced braces\n%s", out)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(frameGraph(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected parse error")
	}
}
