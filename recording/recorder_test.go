package recording

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	rg "github.com/gogpu/rendergraph"
)

func TestCommandType_String(t *testing.T) {
	tests := []struct {
		ct   CommandType
		want string
	}{
		{CmdBeginRecording, "BeginRecording"},
		{CmdEndRecording, "EndRecording"},
		{CmdSubmit, "SubmitWithCPUSynchronization"},
		{CmdWait, "WaitForCPUSynchronization"},
		{CmdBindPipeline, "BindPipeline"},
		{CmdBindDescriptorSets, "BindDescriptorSets"},
		{CmdSetViewport, "SetViewport"},
		{CmdSetScissor, "SetScissor"},
		{CmdDraw, "Draw"},
		{CmdDrawIndirect, "DrawIndirect"},
		{CmdDispatch, "Dispatch"},
		{CmdDispatchIndirect, "DispatchIndirect"},
		{CmdCopyBuffer, "CopyBuffer"},
		{CmdCopyImage, "CopyImage"},
		{CmdBlitImage, "BlitImage"},
		{CmdCopyBufferToImage, "CopyBufferToImage"},
		{CmdCopyImageToBuffer, "CopyImageToBuffer"},
		{CmdFillBuffer, "FillBuffer"},
		{CmdUpdateBuffer, "UpdateBuffer"},
		{CmdClearColorImage, "ClearColorImage"},
		{CmdClearDepthStencilImage, "ClearDepthStencilImage"},
		{CmdClearAttachments, "ClearAttachments"},
		{CmdPipelineBarrier, "PipelineBarrier"},
		{CmdBeginRendering, "BeginRendering"},
		{CmdEndRendering, "EndRendering"},
		{CommandType(254), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ct.String(); got != tt.want {
				t.Errorf("CommandType.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandType_IsLifecycle(t *testing.T) {
	for _, ct := range []CommandType{CmdBeginRecording, CmdEndRecording, CmdSubmit, CmdWait} {
		if !ct.IsLifecycle() {
			t.Errorf("%v.IsLifecycle() = false, want true", ct)
		}
	}
	for _, ct := range []CommandType{CmdBindPipeline, CmdDraw, CmdPipelineBarrier, CmdEndRendering} {
		if ct.IsLifecycle() {
			t.Errorf("%v.IsLifecycle() = true, want false", ct)
		}
	}
}

// driveAll issues one call of every executor method.
func driveAll(e rg.Executor) {
	e.BeginRecording()
	e.BindPipeline(rg.BindPointGraphics, 7)
	e.BindDescriptorSets(rg.BindPointGraphics, 3, 1, []rg.DescriptorSetHandle{10, 11})
	e.SetViewport(rg.Viewport{Width: 64, Height: 32, MaxDepth: 1})
	e.SetScissor(rg.Rect2D{Extent: rg.Extent2D{Width: 64, Height: 32}})
	e.BeginRendering(&rg.RenderingInfo{
		RenderArea:       rg.Rect2D{Extent: rg.Extent2D{Width: 64, Height: 32}},
		LayerCount:       1,
		ColorAttachments: []rg.RenderingAttachment{{Image: 2, Layout: rg.LayoutColorAttachmentOptimal, LoadOp: rg.LoadOpClear}},
		DepthAttachment:  &rg.RenderingAttachment{Image: 3, Layout: rg.LayoutDepthStencilAttachmentOptimal},
	})
	e.Draw(3, 1, 0, 0)
	e.DrawIndirect(1, 16, 2, 16)
	e.ClearAttachments([]rg.ClearAttachment{{AspectMask: rg.AspectColor}}, []rg.ClearRect{{LayerCount: 1}})
	e.EndRendering()
	e.Dispatch(8, 8, 1)
	e.DispatchIndirect(1, 0)
	e.CopyBuffer(1, 4, []rg.BufferCopy{{Size: 16}})
	e.CopyImage(2, rg.LayoutTransferSrcOptimal, 5, rg.LayoutTransferDstOptimal, []rg.ImageCopy{{Extent: rg.Extent3D{Width: 1, Height: 1, Depth: 1}}})
	e.BlitImage(2, rg.LayoutTransferSrcOptimal, 5, rg.LayoutTransferDstOptimal, []rg.ImageBlit{{}}, rg.FilterLinear)
	e.CopyBufferToImage(1, 5, rg.LayoutTransferDstOptimal, []rg.BufferImageCopy{{}})
	e.CopyImageToBuffer(5, rg.LayoutTransferSrcOptimal, 4, []rg.BufferImageCopy{{}})
	e.FillBuffer(1, 0, 1024, 42)
	e.UpdateBuffer(1, 8, []byte{1, 2, 3})
	e.ClearColorImage(5, rg.LayoutTransferDstOptimal, rg.ClearColorValue{Float32: [4]float32{1, 0, 0, 1}}, []rg.ImageSubresourceRange{rg.WholeImage(rg.AspectColor)})
	e.ClearDepthStencilImage(3, rg.LayoutTransferDstOptimal, rg.ClearDepthStencilValue{Depth: 1}, []rg.ImageSubresourceRange{rg.WholeImage(rg.AspectDepth)})
	e.PipelineBarrier(&rg.Barrier{
		SrcStages: rg.StageTransfer,
		DstStages: rg.StageFragmentShader,
		Images: []rg.ImageMemoryBarrier{{
			SrcAccess: rg.AccessTransferWrite,
			DstAccess: rg.AccessShaderRead,
			OldLayout: rg.LayoutTransferDstOptimal,
			NewLayout: rg.LayoutShaderReadOnlyOptimal,
			Image:     5,
			Range:     rg.WholeImage(rg.AspectColor),
		}},
	})
	e.EndRecording()
	e.SubmitWithCPUSynchronization()
	e.WaitForCPUSynchronization()
}

func TestRecorder_CapturesEveryCall(t *testing.T) {
	rec := NewRecorder()
	driveAll(rec)

	want := []CommandType{
		CmdBindPipeline, CmdBindDescriptorSets, CmdSetViewport, CmdSetScissor,
		CmdBeginRendering, CmdDraw, CmdDrawIndirect, CmdClearAttachments, CmdEndRendering,
		CmdDispatch, CmdDispatchIndirect,
		CmdCopyBuffer, CmdCopyImage, CmdBlitImage, CmdCopyBufferToImage, CmdCopyImageToBuffer,
		CmdFillBuffer, CmdUpdateBuffer, CmdClearColorImage, CmdClearDepthStencilImage,
		CmdPipelineBarrier,
	}
	if diff := cmp.Diff(want, rec.Types()); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}
	if got := len(rec.All()); got != len(want)+4 {
		t.Errorf("len(All()) = %d, want %d", got, len(want)+4)
	}
	if got := rec.Count(CmdPipelineBarrier); got != 1 {
		t.Errorf("Count(PipelineBarrier) = %d, want 1", got)
	}
}

func TestRecorder_CopiesArguments(t *testing.T) {
	rec := NewRecorder()

	sets := []rg.DescriptorSetHandle{1, 2}
	data := []byte{9, 9}
	b := &rg.Barrier{
		SrcStages: rg.StageTransfer,
		DstStages: rg.StageTransfer,
		Buffers:   []rg.BufferMemoryBarrier{{SrcAccess: rg.AccessTransferWrite, DstAccess: rg.AccessTransferWrite, Buffer: 1, Size: rg.WholeSize}},
	}
	rec.BindDescriptorSets(rg.BindPointCompute, 1, 0, sets)
	rec.UpdateBuffer(1, 0, data)
	rec.PipelineBarrier(b)

	sets[0] = 99
	data[0] = 0
	b.Buffers[0].Buffer = 42

	cmds := rec.Commands()
	if got := cmds[0].(BindDescriptorSetsCommand).Sets[0]; got != 1 {
		t.Errorf("captured set = %d, want 1", got)
	}
	if got := cmds[1].(UpdateBufferCommand).Data[0]; got != 9 {
		t.Errorf("captured data = %d, want 9", got)
	}
	if got := rec.Barriers()[0].Buffers[0].Buffer; got != 1 {
		t.Errorf("captured barrier buffer = %d, want 1", got)
	}
}

func TestRecording_Playback(t *testing.T) {
	src := NewRecorder()
	driveAll(src)
	r := src.Finish()

	if len(src.All()) != 0 {
		t.Fatalf("Finish did not reset the recorder")
	}

	dst := NewRecorder()
	if err := r.Playback(dst); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if diff := cmp.Diff(r.Commands(), dst.All()); diff != "" {
		t.Errorf("playback mismatch (-want +got):\n%s", diff)
	}
}

type bogusCommand struct{}

func (bogusCommand) Type() CommandType { return CommandType(200) }

func TestRecording_PlaybackUnknown(t *testing.T) {
	r := &Recording{commands: []Command{BeginRecordingCommand{}, bogusCommand{}}}
	err := r.Playback(NewRecorder())
	if err == nil {
		t.Fatal("Playback of unknown command should fail")
	}
	if !strings.Contains(err.Error(), "command 1") {
		t.Errorf("error %q should name the command index", err)
	}
}

func TestRecorder_WriteTo(t *testing.T) {
	rec := NewRecorder()
	rec.BeginRecording()
	rec.FillBuffer(1, 0, 1024, 42)
	rec.PipelineBarrier(&rg.Barrier{
		SrcStages: rg.StageTransfer,
		DstStages: rg.StageTransfer,
		Buffers:   []rg.BufferMemoryBarrier{{SrcAccess: rg.AccessTransferWrite, DstAccess: rg.AccessTransferWrite, Buffer: 1, Size: rg.WholeSize}},
	})
	rec.EndRecording()

	var buf bytes.Buffer
	n, err := rec.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"  0  BeginRecording",
		"  1  FillBuffer 0x1 offset=0 size=1024 data=0x2a",
		"  2  PipelineBarrier TRANSFER -> TRANSFER",
		"buffer 0x1 TRANSFER_WRITE -> TRANSFER_WRITE",
		"  3  EndRecording",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	if rec.String() != out {
		t.Error("String() differs from WriteTo output")
	}
}

func TestRecorder_SetLogger(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder()
	rec.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	rec.Dispatch(1, 1, 1)

	if !strings.Contains(buf.String(), "type=Dispatch") {
		t.Errorf("expected command log, got %q", buf.String())
	}
}

func TestRecorder_Reset(t *testing.T) {
	rec := NewRecorder()
	rec.Draw(3, 1, 0, 0)
	rec.Reset()
	if len(rec.All()) != 0 {
		t.Errorf("len(All()) after Reset = %d, want 0", len(rec.All()))
	}
}
