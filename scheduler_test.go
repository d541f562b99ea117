package rendergraph_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	rg "github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/recording"
)

const (
	buf     rg.Handle = 0x10
	staging rg.Handle = 0x11
	args    rg.Handle = 0x12
	srcImg  rg.Handle = 0x20
	dstImg  rg.Handle = 0x21
	color   rg.Handle = 0x22
	texture rg.Handle = 0x23
	layered rg.Handle = 0x24
)

var (
	mip0   = rg.ImageSubresourceLayers{AspectMask: rg.AspectColor, LayerCount: 1}
	extent = rg.Extent3D{Width: 64, Height: 64, Depth: 1}
	area   = rg.Rect2D{Extent: rg.Extent2D{Width: 64, Height: 64}}
)

func newGraph(opts ...rg.Option) *rg.Graph {
	g := rg.New(opts...)
	for _, h := range []rg.Handle{buf, staging, args} {
		g.AddBuffer(h)
	}
	for _, h := range []rg.Handle{srcImg, dstImg, color, texture} {
		g.AddImage(h, false)
	}
	g.AddImage(layered, true)
	return g
}

func submit(t *testing.T, g *rg.Graph) (*recording.Recorder, rg.Stats) {
	t.Helper()
	rec := recording.NewRecorder()
	stats := rg.Submit(g, rec)
	return rec, stats
}

func expectTypes(t *testing.T, rec *recording.Recorder, want ...recording.CommandType) {
	t.Helper()
	if diff := cmp.Diff(want, rec.Types()); diff != "" {
		t.Fatalf("command stream mismatch (-want +got):\n%s\nstream:\n%s", diff, rec)
	}
}

func mustPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", want)
		}
		pe, ok := r.(*rg.PreconditionError)
		if !ok {
			t.Fatalf("panic value %T (%v), want *PreconditionError", r, r)
		}
		if !errors.Is(pe, want) {
			t.Fatalf("panic error %v, want %v", pe, want)
		}
	}()
	fn()
}

func beginColor(img rg.Handle, load rg.AttachmentLoadOp) *rg.BeginRenderingData {
	return &rg.BeginRenderingData{RenderingInfo: rg.RenderingInfo{
		RenderArea: area,
		LayerCount: 1,
		ColorAttachments: []rg.RenderingAttachment{{
			Image:   img,
			Layout:  rg.LayoutColorAttachmentOptimal,
			LoadOp:  load,
			StoreOp: rg.StoreOpStore,
		}},
	}}
}

func TestSubmit_FillBufferAlone(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 1024, Data: 42}})

	rec, stats := submit(t, g)

	want := []recording.Command{recording.FillBufferCommand{Buffer: buf, Offset: 0, Size: 1024, Data: 42}}
	if diff := cmp.Diff(want, rec.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if stats.Barriers != 0 {
		t.Errorf("Barriers = %d, want 0", stats.Barriers)
	}

	all := rec.All()
	if all[0].Type() != recording.CmdBeginRecording || all[len(all)-1].Type() != recording.CmdEndRecording {
		t.Errorf("stream not bracketed by BeginRecording/EndRecording:\n%s", rec)
	}
}

func TestSubmit_ClearBlitReadback(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.ClearColorImageData{Image: srcImg, Color: rg.ClearColorValue{Float32: [4]float32{1, 0, 0, 1}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.BlitImageData{
		Src: srcImg,
		Dst: dstImg,
		Regions: []rg.ImageBlit{{
			SrcSubresource: mip0,
			SrcOffsets:     [2]rg.Offset3D{{}, {X: 64, Y: 64, Z: 1}},
			DstSubresource: mip0,
			DstOffsets:     [2]rg.Offset3D{{}, {X: 32, Y: 32, Z: 1}},
		}},
		Filter: rg.FilterLinear,
	}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyImageToBufferData{
		Src:     dstImg,
		Dst:     staging,
		Regions: []rg.BufferImageCopy{{ImageSubresource: mip0, ImageExtent: rg.Extent3D{Width: 32, Height: 32, Depth: 1}}},
	}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier, recording.CmdClearColorImage,
		recording.CmdPipelineBarrier, recording.CmdBlitImage,
		recording.CmdPipelineBarrier, recording.CmdCopyImageToBuffer,
	)
	if stats.Barriers != 3 || stats.ImageBarriers != 4 || stats.BufferBarriers != 0 {
		t.Errorf("stats = %+v, want 3 barriers, 4 image entries, 0 buffer entries", stats)
	}

	mipRange := rg.ImageSubresourceRange{AspectMask: rg.AspectColor, LevelCount: 1, LayerCount: rg.RemainingArrayLayers}
	want := []recording.PipelineBarrierCommand{
		{
			SrcStages: rg.StageTopOfPipe,
			DstStages: rg.StageTransfer,
			Images: []rg.ImageMemoryBarrier{{
				DstAccess: rg.AccessTransferWrite,
				OldLayout: rg.LayoutUndefined,
				NewLayout: rg.LayoutTransferDstOptimal,
				Image:     srcImg,
				Range:     rg.WholeImage(rg.AspectColor),
			}},
		},
		{
			SrcStages: rg.StageTransfer,
			DstStages: rg.StageTransfer,
			Images: []rg.ImageMemoryBarrier{
				{
					SrcAccess: rg.AccessTransferWrite,
					DstAccess: rg.AccessTransferRead,
					OldLayout: rg.LayoutTransferDstOptimal,
					NewLayout: rg.LayoutTransferSrcOptimal,
					Image:     srcImg,
					Range:     mipRange,
				},
				{
					DstAccess: rg.AccessTransferWrite,
					OldLayout: rg.LayoutUndefined,
					NewLayout: rg.LayoutTransferDstOptimal,
					Image:     dstImg,
					Range:     mipRange,
				},
			},
		},
		{
			SrcStages: rg.StageTransfer,
			DstStages: rg.StageTransfer,
			Images: []rg.ImageMemoryBarrier{{
				SrcAccess: rg.AccessTransferWrite,
				DstAccess: rg.AccessTransferRead,
				OldLayout: rg.LayoutTransferDstOptimal,
				NewLayout: rg.LayoutTransferSrcOptimal,
				Image:     dstImg,
				Range:     mipRange,
			}},
		},
	}
	if diff := cmp.Diff(want, rec.Barriers()); diff != "" {
		t.Errorf("barriers mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_WriteAfterWriteSynchronizes(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 1024, Data: 1}})
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 1024, Data: 2}})

	rec, _ := submit(t, g)

	expectTypes(t, rec, recording.CmdFillBuffer, recording.CmdPipelineBarrier, recording.CmdFillBuffer)
	want := recording.PipelineBarrierCommand{
		SrcStages: rg.StageTransfer,
		DstStages: rg.StageTransfer,
		Buffers: []rg.BufferMemoryBarrier{{
			SrcAccess: rg.AccessTransferWrite,
			DstAccess: rg.AccessTransferWrite,
			Buffer:    buf,
			Size:      rg.WholeSize,
		}},
	}
	if diff := cmp.Diff(want, rec.Barriers()[0]); diff != "" {
		t.Errorf("barrier mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_ReadAfterRead(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: buf, Dst: staging, Regions: []rg.BufferCopy{{Size: 16}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: buf, Dst: args, Regions: []rg.BufferCopy{{Size: 16}}}})

	rec, stats := submit(t, g)

	expectTypes(t, rec, recording.CmdCopyBuffer, recording.CmdCopyBuffer)
	if stats.Barriers != 0 {
		t.Errorf("Barriers = %d, want 0", stats.Barriers)
	}
}

func TestSubmit_ReadAfterVisibleWrite(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 64}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: buf, Dst: staging, Regions: []rg.BufferCopy{{Size: 64}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: buf, Dst: args, Regions: []rg.BufferCopy{{Size: 64}}}})

	rec, _ := submit(t, g)

	expectTypes(t, rec,
		recording.CmdFillBuffer,
		recording.CmdPipelineBarrier,
		recording.CmdCopyBuffer,
		recording.CmdCopyBuffer,
	)
	b := rec.Barriers()[0].Buffers
	if len(b) != 1 || b[0].SrcAccess != rg.AccessTransferWrite || b[0].DstAccess != rg.AccessTransferRead {
		t.Errorf("RAW barrier = %+v, want TRANSFER_WRITE -> TRANSFER_READ", b)
	}
}

func TestSubmit_WriteAfterRead(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferData{Src: buf, Dst: staging, Regions: []rg.BufferCopy{{Size: 64}}}})
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 64}})

	rec, _ := submit(t, g)

	expectTypes(t, rec, recording.CmdCopyBuffer, recording.CmdPipelineBarrier, recording.CmdFillBuffer)
	want := recording.PipelineBarrierCommand{
		SrcStages: rg.StageTransfer,
		DstStages: rg.StageTransfer,
		Buffers:   []rg.BufferMemoryBarrier{{DstAccess: rg.AccessTransferWrite, Buffer: buf, Size: rg.WholeSize}},
	}
	if diff := cmp.Diff(want, rec.Barriers()[0]); diff != "" {
		t.Errorf("WAR barrier mismatch (-want +got):\n%s", diff)
	}
}

func drawNode(pipeline rg.PipelineHandle, sets ...rg.DescriptorSetHandle) *rg.DrawData {
	return &rg.DrawData{
		Pipeline:      rg.PipelineData{Pipeline: pipeline, Layout: 1, DescriptorSets: sets},
		VertexCount:   3,
		InstanceCount: 1,
	}
}

func TestSubmit_HoistsIndependentNode(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: &rg.UpdateBufferData{Buffer: buf, Data: []byte{1, 2, 3, 4}}, Label: "upload"})
	g.AddNode(rg.CreateInfo{Data: drawNode(7)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdUpdateBuffer,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdDraw,
		recording.CmdEndRendering,
	)
	if stats.Hoisted != 1 || stats.Deferred != 0 {
		t.Errorf("stats = %+v, want 1 hoisted", stats)
	}
}

func TestSubmit_WithoutReorderingDefers(t *testing.T) {
	g := newGraph(rg.WithoutReordering())
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: &rg.UpdateBufferData{Buffer: buf, Data: []byte{1, 2, 3, 4}}})
	g.AddNode(rg.CreateInfo{Data: drawNode(7)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdDraw,
		recording.CmdEndRendering,
		recording.CmdUpdateBuffer,
	)
	if stats.Hoisted != 0 || stats.Deferred != 1 {
		t.Errorf("stats = %+v, want 1 deferred", stats)
	}
}

func sampled(img rg.Handle) rg.AccessInfo {
	return rg.AccessInfo{Images: []rg.ImageAccess{{
		Image:  img,
		Access: rg.AccessShaderRead,
		Stage:  rg.StageFragmentShader,
		Layout: rg.LayoutShaderReadOnlyOptimal,
	}}}
}

func TestSubmit_SplitsScopeAroundDependency(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: drawNode(7), Access: sampled(texture)})
	g.AddNode(rg.CreateInfo{Data: &rg.CopyBufferToImageData{
		Src:     staging,
		Dst:     texture,
		Regions: []rg.BufferImageCopy{{ImageSubresource: mip0, ImageExtent: extent}},
	}})
	g.AddNode(rg.CreateInfo{Data: drawNode(7), Access: sampled(texture)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdDraw,
		recording.CmdEndRendering,
		recording.CmdPipelineBarrier,
		recording.CmdCopyBufferToImage,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdDraw,
		recording.CmdEndRendering,
	)
	if stats.Deferred != 1 || stats.ScopeSplits != 1 {
		t.Errorf("stats = %+v, want 1 deferred and 1 split", stats)
	}

	var begins []recording.BeginRenderingCommand
	for _, c := range rec.Commands() {
		if b, ok := c.(recording.BeginRenderingCommand); ok {
			begins = append(begins, b)
		}
	}
	if got := begins[0].Info.ColorAttachments[0].LoadOp; got != rg.LoadOpClear {
		t.Errorf("first BeginRendering load op = %d, want CLEAR", got)
	}
	if got := begins[1].Info.ColorAttachments[0].LoadOp; got != rg.LoadOpLoad {
		t.Errorf("resumed BeginRendering load op = %d, want LOAD", got)
	}

	// The resumed segment waits for the upload and for the first segment's
	// attachment writes in one batch.
	last := rec.Barriers()[2]
	if len(last.Images) != 2 {
		t.Fatalf("resume barrier has %d image entries, want 2:\n%s", len(last.Images), rec)
	}
	if !last.SrcStages.Contains(rg.StageTransfer | rg.StageColorAttachmentOutput) {
		t.Errorf("resume barrier src stages = %v", last.SrcStages)
	}
}

func TestSubmit_SplitsOnWriteInsideScope(t *testing.T) {
	storage := rg.AccessInfo{Images: []rg.ImageAccess{{
		Image:  texture,
		Access: rg.AccessShaderWrite,
		Stage:  rg.StageFragmentShader,
		Layout: rg.LayoutGeneral,
	}}}
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: drawNode(7), Access: storage})
	g.AddNode(rg.CreateInfo{Data: drawNode(7), Access: storage})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	if stats.ScopeSplits != 1 {
		t.Errorf("ScopeSplits = %d, want 1", stats.ScopeSplits)
	}
	if n := rec.Count(recording.CmdBeginRendering); n != 2 {
		t.Errorf("BeginRendering count = %d, want 2", n)
	}
}

func TestSubmit_BindingSuppression(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: drawNode(7, 100)})
	g.AddNode(rg.CreateInfo{Data: drawNode(7, 100)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdBindDescriptorSets,
		recording.CmdDraw,
		recording.CmdDraw,
		recording.CmdEndRendering,
	)
	if stats.SuppressedBinds != 2 {
		t.Errorf("SuppressedBinds = %d, want 2", stats.SuppressedBinds)
	}
}

func TestSubmit_IndirectBarrierShape(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: args, Size: 12, Data: 1}})
	g.AddNode(rg.CreateInfo{Data: &rg.DispatchIndirectData{Pipeline: rg.PipelineData{Pipeline: 5}, Buffer: args}})

	rec, _ := submit(t, g)

	expectTypes(t, rec,
		recording.CmdFillBuffer,
		recording.CmdBindPipeline,
		recording.CmdPipelineBarrier,
		recording.CmdDispatchIndirect,
	)
	b := rec.Barriers()[0]
	if !b.DstStages.Contains(rg.StageDrawIndirect) {
		t.Errorf("dst stages %v lack DRAW_INDIRECT", b.DstStages)
	}
	if len(b.Buffers) != 1 || b.Buffers[0].Buffer != args || !b.Buffers[0].DstAccess.Contains(rg.AccessIndirectCommandRead) {
		t.Errorf("buffer barriers %+v lack INDIRECT_COMMAND_READ on the argument buffer", b.Buffers)
	}
}

func TestSubmit_SynchronizationForPresent(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})
	g.AddNode(rg.CreateInfo{Data: &rg.SynchronizationData{Image: color, Layout: rg.LayoutPresentSrc}})

	rec, _ := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdEndRendering,
		recording.CmdPipelineBarrier,
	)
	want := recording.PipelineBarrierCommand{
		SrcStages: rg.StageColorAttachmentOutput,
		DstStages: rg.StageBottomOfPipe,
		Images: []rg.ImageMemoryBarrier{{
			SrcAccess: rg.AccessColorAttachmentWrite,
			DstAccess: rg.AccessNone,
			OldLayout: rg.LayoutColorAttachmentOptimal,
			NewLayout: rg.LayoutPresentSrc,
			Image:     color,
			Range:     rg.WholeImage(rg.AspectColor),
		}},
	}
	if diff := cmp.Diff(want, rec.Barriers()[1]); diff != "" {
		t.Errorf("present barrier mismatch (-want +got):\n%s", diff)
	}

	st := g.Tracker().State(color, rg.WholeImage(rg.AspectColor))
	wantState := rg.ResourceState{WriteStages: rg.StageBottomOfPipe, Layout: rg.LayoutPresentSrc}
	if len(st) != 1 || st[0].State != wantState {
		t.Errorf("state after present = %+v, want %+v", st, wantState)
	}
}

func TestSubmit_AccessAfterTransitionSynchronizes(t *testing.T) {
	clearNode := func() *rg.ClearColorImageData {
		return &rg.ClearColorImageData{
			Image:  srcImg,
			Ranges: []rg.ImageSubresourceRange{rg.WholeImage(rg.AspectColor)},
		}
	}
	tests := []struct {
		name   string
		access rg.NodeData
		dst    rg.AccessFlags
		stage  rg.PipelineStageFlags
	}{
		{"clear after transition", clearNode(), rg.AccessTransferWrite, rg.StageTransfer},
		{"copy source after transition", &rg.CopyImageToBufferData{
			Src:     srcImg,
			Dst:     buf,
			Regions: []rg.BufferImageCopy{{ImageSubresource: mip0, ImageExtent: extent}},
		}, rg.AccessTransferRead, rg.StageTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph()
			layout := rg.LayoutTransferDstOptimal
			if tt.dst == rg.AccessTransferRead {
				layout = rg.LayoutTransferSrcOptimal
			}
			g.AddNode(rg.CreateInfo{Data: &rg.SynchronizationData{Image: srcImg, Layout: layout}})
			g.AddNode(rg.CreateInfo{Data: tt.access})

			rec, stats := submit(t, g)
			if stats.Barriers != 2 {
				t.Fatalf("Barriers = %d, want 2\n%s", stats.Barriers, rec)
			}
			b := rec.Barriers()[1]
			if b.SrcStages != rg.StageBottomOfPipe || b.DstStages != tt.stage {
				t.Errorf("stages = %s -> %s, want BOTTOM_OF_PIPE -> %s", b.SrcStages, b.DstStages, tt.stage)
			}
			if len(b.Images) != 1 || b.Images[0].OldLayout != layout || b.Images[0].NewLayout != layout ||
				b.Images[0].DstAccess != tt.dst {
				t.Errorf("image barriers = %+v, want same-layout %s barrier with dst %s", b.Images, layout, tt.dst)
			}
		})
	}
}

func TestSubmit_StateFidelity(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.DispatchData{
		Pipeline:    rg.PipelineData{Pipeline: 3},
		GroupCountX: 1, GroupCountY: 1, GroupCountZ: 1,
	}, Access: rg.AccessInfo{
		Buffers: []rg.BufferAccess{{Buffer: buf, Access: rg.AccessShaderWrite}},
		Images: []rg.ImageAccess{{
			Image:  layered,
			Access: rg.AccessShaderWrite,
			Layout: rg.LayoutGeneral,
			Range:  rg.ImageSubresourceRange{AspectMask: rg.AspectColor, BaseMipLevel: 1, LevelCount: 1, BaseArrayLayer: 2, LayerCount: 1},
		}},
	}})

	submit(t, g)

	tr := g.Tracker()
	wantWrite := rg.ResourceState{WriteAccess: rg.AccessShaderWrite, WriteStages: rg.StageComputeShader}
	if got := tr.BufferState(buf); got != wantWrite {
		t.Errorf("buffer state = %+v, want %+v", got, wantWrite)
	}

	wantImage := wantWrite
	wantImage.Layout = rg.LayoutGeneral
	written := tr.State(layered, rg.ImageSubresourceRange{AspectMask: rg.AspectColor, BaseMipLevel: 1, LevelCount: 1, BaseArrayLayer: 2, LayerCount: 1})
	if len(written) != 1 || written[0].State != wantImage {
		t.Errorf("written subresource = %+v, want %+v", written, wantImage)
	}
	untouched := tr.State(layered, rg.ImageSubresourceRange{AspectMask: rg.AspectColor, BaseMipLevel: 1, LevelCount: 1, BaseArrayLayer: 3, LayerCount: 1})
	if len(untouched) != 1 || untouched[0].State.Layout != rg.LayoutUndefined {
		t.Errorf("neighbour subresource = %+v, want UNDEFINED", untouched)
	}
}

// layerAccess declares a compute access to mip 0 of the layered image.
func layerAccess(access rg.AccessFlags, base, count uint32) rg.AccessInfo {
	return rg.AccessInfo{Images: []rg.ImageAccess{{
		Image:  layered,
		Access: access,
		Layout: rg.LayoutGeneral,
		Range:  rg.ImageSubresourceRange{AspectMask: rg.AspectColor, LevelCount: 1, BaseArrayLayer: base, LayerCount: count},
	}}}
}

func dispatch() *rg.DispatchData {
	return &rg.DispatchData{Pipeline: rg.PipelineData{Pipeline: 3}, GroupCountX: 1, GroupCountY: 1, GroupCountZ: 1}
}

func TestSubmit_BarrierPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    rg.BarrierPolicy
		layers    uint32
		wantImage int
	}{
		{"union same layout", rg.BarrierUnion, 2, 1},
		{"precise same layout", rg.BarrierPrecise, 2, 2},
		{"union layout mismatch falls back", rg.BarrierUnion, 3, 3},
		{"precise layout mismatch", rg.BarrierPrecise, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(rg.WithBarrierPolicy(tt.policy))
			// Layer 0 written, layer 1 read, layer 2 untouched.
			g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderWrite, 0, 1)})
			g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderRead, 1, 1)})
			g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderWrite, 0, tt.layers)})

			rec, _ := submit(t, g)

			barriers := rec.Barriers()
			last := barriers[len(barriers)-1]
			if len(last.Images) != tt.wantImage {
				t.Fatalf("last barrier has %d image entries, want %d:\n%s", len(last.Images), tt.wantImage, rec)
			}
			if rec.Count(recording.CmdPipelineBarrier) != len(barriers) {
				t.Fatal("Barriers() disagrees with Count")
			}
		})
	}
}

func TestSubmit_UnionBarrierCoversRequestedRange(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderWrite, 0, 1)})
	g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderRead, 1, 1)})
	g.AddNode(rg.CreateInfo{Data: dispatch(), Access: layerAccess(rg.AccessShaderWrite, 0, 2)})

	rec, _ := submit(t, g)

	barriers := rec.Barriers()
	img := barriers[len(barriers)-1].Images[0]
	want := rg.ImageMemoryBarrier{
		SrcAccess: rg.AccessShaderWrite,
		DstAccess: rg.AccessShaderWrite,
		OldLayout: rg.LayoutGeneral,
		NewLayout: rg.LayoutGeneral,
		Image:     layered,
		Range:     rg.ImageSubresourceRange{AspectMask: rg.AspectColor, LevelCount: 1, LayerCount: 2},
	}
	if diff := cmp.Diff(want, img); diff != "" {
		t.Errorf("union barrier mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_HonoursPatchedPayload(t *testing.T) {
	g := newGraph()
	h := g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 4}})
	g.NodeData(h).(*rg.FillBufferData).Buffer = staging

	rec, _ := submit(t, g)

	want := []recording.Command{recording.FillBufferCommand{Buffer: staging, Size: 4}}
	if diff := cmp.Diff(want, rec.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if got := g.Tracker().BufferState(buf); got != (rg.ResourceState{}) {
		t.Errorf("original buffer state = %+v, want untouched", got)
	}
	if got := g.Tracker().BufferState(staging).WriteAccess; got != rg.AccessTransferWrite {
		t.Errorf("patched buffer WriteAccess = %v, want TRANSFER_WRITE", got)
	}
}

func TestSubmit_ResetsGraph(t *testing.T) {
	g := newGraph()
	h := g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 4}})

	_, stats := submit(t, g)

	if stats.Nodes != 1 {
		t.Errorf("Nodes = %d, want 1", stats.Nodes)
	}
	if g.Len() != 0 {
		t.Errorf("Len() after Submit = %d, want 0", g.Len())
	}
	mustPanic(t, rg.ErrStaleNode, func() { g.NodeData(h) })

	// Resource state carries over to the next cycle.
	g.AddNode(rg.CreateInfo{Data: &rg.FillBufferData{Buffer: buf, Size: 4}})
	rec, _ := submit(t, g)
	expectTypes(t, rec, recording.CmdPipelineBarrier, recording.CmdFillBuffer)
}

func TestSubmit_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		want  error
		nodes []rg.NodeData
	}{
		{"end without begin", rg.ErrUnbalancedScope, []rg.NodeData{&rg.EndRenderingData{}}},
		{"draw outside scope", rg.ErrUnbalancedScope, []rg.NodeData{drawNode(1)}},
		{"clear attachments outside scope", rg.ErrUnbalancedScope, []rg.NodeData{&rg.ClearAttachmentsData{}}},
		{"nested begin", rg.ErrUnbalancedScope, []rg.NodeData{beginColor(color, rg.LoadOpClear), beginColor(srcImg, rg.LoadOpClear)}},
		{"unclosed scope", rg.ErrUnbalancedScope, []rg.NodeData{beginColor(color, rg.LoadOpClear), drawNode(1)}},
		{"unregistered", rg.ErrUnregisteredResource, []rg.NodeData{&rg.FillBufferData{Buffer: 0xdead, Size: 4}}},
		{"buffer used as image", rg.ErrResourceKind, []rg.NodeData{&rg.ClearColorImageData{Image: buf}}},
		{"image used as buffer", rg.ErrResourceKind, []rg.NodeData{&rg.FillBufferData{Buffer: srcImg, Size: 4}}},
		{"mips without layers", rg.ErrEmptyRange, []rg.NodeData{
			&rg.FillBufferData{Buffer: buf, Size: 4},
			&rg.ClearColorImageData{Image: layered, Ranges: []rg.ImageSubresourceRange{
				{AspectMask: rg.AspectColor, LevelCount: 1},
			}},
		}},
		{"layers without mips", rg.ErrEmptyRange, []rg.NodeData{&rg.ClearColorImageData{Image: layered, Ranges: []rg.ImageSubresourceRange{
			{AspectMask: rg.AspectColor, BaseArrayLayer: 1, LayerCount: 2},
		}}}},
		{"copy within one subresource", rg.ErrConflictingAccess, []rg.NodeData{&rg.CopyImageData{
			Src: srcImg, Dst: srcImg, Regions: []rg.ImageCopy{{SrcSubresource: mip0, DstSubresource: mip0, Extent: extent}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph()
			for _, d := range tt.nodes {
				g.AddNode(rg.CreateInfo{Data: d})
			}
			rec := recording.NewRecorder()
			mustPanic(t, tt.want, func() { rg.Submit(g, rec) })
			if n := len(rec.All()); n != 0 {
				t.Errorf("executor received %d calls before the precondition failed", n)
			}
		})
	}
}

func TestSubmit_ScopeMergesExactRanges(t *testing.T) {
	// Two draws sample L-shaped parts of the layered image while the scope
	// renders to the cell their bounding box would cover.
	rng := func(mip, mips, layer, layers uint32) rg.ImageSubresourceRange {
		return rg.ImageSubresourceRange{AspectMask: rg.AspectColor, BaseMipLevel: mip, LevelCount: mips, BaseArrayLayer: layer, LayerCount: layers}
	}
	sample := func(r rg.ImageSubresourceRange) rg.AccessInfo {
		return rg.AccessInfo{Images: []rg.ImageAccess{{
			Image: layered, Access: rg.AccessShaderRead, Layout: rg.LayoutShaderReadOnlyOptimal, Range: r,
		}}}
	}
	target := rng(1, 1, 1, 1)

	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: &rg.BeginRenderingData{RenderingInfo: rg.RenderingInfo{
		RenderArea: area,
		LayerCount: 1,
		ColorAttachments: []rg.RenderingAttachment{{
			Image: layered, Layout: rg.LayoutColorAttachmentOptimal, Range: target,
			LoadOp: rg.LoadOpClear, StoreOp: rg.StoreOpStore,
		}},
	}}})
	g.AddNode(rg.CreateInfo{Data: drawNode(1), Access: sample(rng(0, 1, 0, 2))})
	g.AddNode(rg.CreateInfo{Data: drawNode(1), Access: sample(rng(0, 2, 0, 1))})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec, stats := submit(t, g)

	expectTypes(t, rec,
		recording.CmdPipelineBarrier,
		recording.CmdBeginRendering,
		recording.CmdBindPipeline,
		recording.CmdDraw,
		recording.CmdDraw,
		recording.CmdEndRendering,
	)
	if stats.ScopeSplits != 0 {
		t.Errorf("ScopeSplits = %d, want 0", stats.ScopeSplits)
	}
	// The attachment plus three disjoint sampled pieces.
	if stats.ImageBarriers != 4 {
		t.Errorf("ImageBarriers = %d, want 4\n%s", stats.ImageBarriers, rec)
	}
	for _, b := range rec.Barriers()[0].Images {
		if b.NewLayout != rg.LayoutShaderReadOnlyOptimal {
			continue
		}
		if b.Range.BaseMipLevel+b.Range.LevelCount > 1 && b.Range.BaseArrayLayer+b.Range.LayerCount > 1 {
			t.Errorf("sampled barrier %s reaches the attachment cell", b.Range)
		}
	}
}

func TestSubmit_DrawConflictsWithOwnAttachment(t *testing.T) {
	g := newGraph()
	g.AddNode(rg.CreateInfo{Data: beginColor(color, rg.LoadOpClear)})
	g.AddNode(rg.CreateInfo{Data: drawNode(1), Access: sampled(color)})
	g.AddNode(rg.CreateInfo{Data: &rg.EndRenderingData{}})

	rec := recording.NewRecorder()
	mustPanic(t, rg.ErrConflictingAccess, func() { rg.Submit(g, rec) })
	if n := len(rec.All()); n != 0 {
		t.Errorf("executor received %d calls", n)
	}
}

func TestAddNodeNilData(t *testing.T) {
	mustPanic(t, rg.ErrNilNodeData, func() { rg.New().AddNode(rg.CreateInfo{}) })
}
