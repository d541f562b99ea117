package recording

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	rg "github.com/gogpu/rendergraph"
)

// Recorder captures executor calls as commands.
// It implements rendergraph.Executor and copies every argument, so the
// captured stream can be inspected or replayed after Submit returns.
//
// Example:
//
//	rec := recording.NewRecorder()
//	rendergraph.Submit(g, rec)
//	for _, c := range rec.Commands() {
//	    fmt.Println(c)
//	}
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	commands []Command
	logger   *slog.Logger
}

var _ rg.Executor = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{commands: make([]Command, 0, 64)}
}

// SetLogger makes the recorder log every captured command at Debug level.
// Submit calls it with the package logger.
func (r *Recorder) SetLogger(l *slog.Logger) {
	r.logger = l
}

func (r *Recorder) add(c Command) {
	r.commands = append(r.commands, c)
	if r.logger != nil {
		r.logger.Debug("recording: command", "index", len(r.commands)-1, "type", c.Type().String())
	}
}

// All returns every captured command, lifecycle commands included.
func (r *Recorder) All() []Command {
	return r.commands
}

// Commands returns the captured commands without the lifecycle commands
// (BeginRecording, EndRecording, submit and wait).
func (r *Recorder) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		if !c.Type().IsLifecycle() {
			out = append(out, c)
		}
	}
	return out
}

// Types returns the types of Commands, in order.
func (r *Recorder) Types() []CommandType {
	cmds := r.Commands()
	out := make([]CommandType, len(cmds))
	for i, c := range cmds {
		out[i] = c.Type()
	}
	return out
}

// Count returns how many commands of type t were captured.
func (r *Recorder) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Barriers returns the captured barrier batches in order.
func (r *Recorder) Barriers() []PipelineBarrierCommand {
	var out []PipelineBarrierCommand
	for _, c := range r.commands {
		if b, ok := c.(PipelineBarrierCommand); ok {
			out = append(out, b)
		}
	}
	return out
}

// Reset drops all captured commands.
func (r *Recorder) Reset() {
	clear(r.commands)
	r.commands = r.commands[:0]
}

// Finish returns an immutable Recording of the captured commands and
// resets the recorder.
func (r *Recorder) Finish() *Recording {
	rec := &Recording{commands: slices.Clone(r.commands)}
	r.Reset()
	return rec
}

// WriteTo writes one line per captured command, lifecycle included.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	return writeCommands(w, r.commands)
}

// String returns the WriteTo dump.
func (r *Recorder) String() string {
	var sb strings.Builder
	_, _ = r.WriteTo(&sb)
	return sb.String()
}

// Lifecycle methods

func (r *Recorder) BeginRecording()               { r.add(BeginRecordingCommand{}) }
func (r *Recorder) EndRecording()                 { r.add(EndRecordingCommand{}) }
func (r *Recorder) SubmitWithCPUSynchronization() { r.add(SubmitCommand{}) }
func (r *Recorder) WaitForCPUSynchronization()    { r.add(WaitCommand{}) }

// Binding methods

func (r *Recorder) BindPipeline(bp rg.PipelineBindPoint, p rg.PipelineHandle) {
	r.add(BindPipelineCommand{BindPoint: bp, Pipeline: p})
}

func (r *Recorder) BindDescriptorSets(bp rg.PipelineBindPoint, layout rg.PipelineLayoutHandle, firstSet uint32, sets []rg.DescriptorSetHandle) {
	r.add(BindDescriptorSetsCommand{BindPoint: bp, Layout: layout, FirstSet: firstSet, Sets: slices.Clone(sets)})
}

func (r *Recorder) SetViewport(v rg.Viewport) { r.add(SetViewportCommand{Viewport: v}) }
func (r *Recorder) SetScissor(s rg.Rect2D)    { r.add(SetScissorCommand{Scissor: s}) }

// Work methods

func (r *Recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.add(DrawCommand{VertexCount: vertexCount, InstanceCount: instanceCount, FirstVertex: firstVertex, FirstInstance: firstInstance})
}

func (r *Recorder) DrawIndirect(buffer rg.Handle, offset uint64, drawCount, stride uint32) {
	r.add(DrawIndirectCommand{Buffer: buffer, Offset: offset, DrawCount: drawCount, Stride: stride})
}

func (r *Recorder) Dispatch(x, y, z uint32) { r.add(DispatchCommand{X: x, Y: y, Z: z}) }

func (r *Recorder) DispatchIndirect(buffer rg.Handle, offset uint64) {
	r.add(DispatchIndirectCommand{Buffer: buffer, Offset: offset})
}

// Transfer methods

func (r *Recorder) CopyBuffer(src, dst rg.Handle, regions []rg.BufferCopy) {
	r.add(CopyBufferCommand{Src: src, Dst: dst, Regions: slices.Clone(regions)})
}

func (r *Recorder) CopyImage(src rg.Handle, srcLayout rg.ImageLayout, dst rg.Handle, dstLayout rg.ImageLayout, regions []rg.ImageCopy) {
	r.add(CopyImageCommand{Src: src, SrcLayout: srcLayout, Dst: dst, DstLayout: dstLayout, Regions: slices.Clone(regions)})
}

func (r *Recorder) BlitImage(src rg.Handle, srcLayout rg.ImageLayout, dst rg.Handle, dstLayout rg.ImageLayout, regions []rg.ImageBlit, filter rg.Filter) {
	r.add(BlitImageCommand{Src: src, SrcLayout: srcLayout, Dst: dst, DstLayout: dstLayout, Regions: slices.Clone(regions), Filter: filter})
}

func (r *Recorder) CopyBufferToImage(src, dst rg.Handle, dstLayout rg.ImageLayout, regions []rg.BufferImageCopy) {
	r.add(CopyBufferToImageCommand{Src: src, Dst: dst, DstLayout: dstLayout, Regions: slices.Clone(regions)})
}

func (r *Recorder) CopyImageToBuffer(src rg.Handle, srcLayout rg.ImageLayout, dst rg.Handle, regions []rg.BufferImageCopy) {
	r.add(CopyImageToBufferCommand{Src: src, SrcLayout: srcLayout, Dst: dst, Regions: slices.Clone(regions)})
}

func (r *Recorder) FillBuffer(buffer rg.Handle, offset, size uint64, data uint32) {
	r.add(FillBufferCommand{Buffer: buffer, Offset: offset, Size: size, Data: data})
}

func (r *Recorder) UpdateBuffer(buffer rg.Handle, offset uint64, data []byte) {
	r.add(UpdateBufferCommand{Buffer: buffer, Offset: offset, Data: slices.Clone(data)})
}

func (r *Recorder) ClearColorImage(image rg.Handle, layout rg.ImageLayout, color rg.ClearColorValue, ranges []rg.ImageSubresourceRange) {
	r.add(ClearColorImageCommand{Image: image, Layout: layout, Color: color, Ranges: slices.Clone(ranges)})
}

func (r *Recorder) ClearDepthStencilImage(image rg.Handle, layout rg.ImageLayout, value rg.ClearDepthStencilValue, ranges []rg.ImageSubresourceRange) {
	r.add(ClearDepthStencilImageCommand{Image: image, Layout: layout, Value: value, Ranges: slices.Clone(ranges)})
}

func (r *Recorder) ClearAttachments(attachments []rg.ClearAttachment, rects []rg.ClearRect) {
	r.add(ClearAttachmentsCommand{Attachments: slices.Clone(attachments), Rects: slices.Clone(rects)})
}

// Synchronization and scope methods

func (r *Recorder) PipelineBarrier(b *rg.Barrier) {
	r.add(PipelineBarrierCommand{
		SrcStages: b.SrcStages,
		DstStages: b.DstStages,
		Buffers:   cloneNonEmpty(b.Buffers),
		Images:    cloneNonEmpty(b.Images),
	})
}

// cloneNonEmpty copies s. Empty slices become nil.
func cloneNonEmpty[S ~[]E, E any](s S) S {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

func (r *Recorder) BeginRendering(info *rg.RenderingInfo) {
	c := BeginRenderingCommand{Info: *info}
	c.Info.ColorAttachments = slices.Clone(info.ColorAttachments)
	if info.DepthAttachment != nil {
		depth := *info.DepthAttachment
		c.Info.DepthAttachment = &depth
	}
	r.add(c)
}

func (r *Recorder) EndRendering() { r.add(EndRenderingCommand{}) }

// Recording is an immutable captured stream.
type Recording struct {
	commands []Command
}

// Commands returns the recorded commands, lifecycle included.
func (r *Recording) Commands() []Command {
	return r.commands
}

// WriteTo writes one line per command.
func (r *Recording) WriteTo(w io.Writer) (int64, error) {
	return writeCommands(w, r.commands)
}

// Playback replays the recording into e, for example to run a stream
// captured once against a driver executor.
func (r *Recording) Playback(e rg.Executor) error {
	for i, cmd := range r.commands {
		if err := replay(e, cmd); err != nil {
			return fmt.Errorf("recording: playback command %d: %w", i, err)
		}
	}
	return nil
}

func replay(e rg.Executor, cmd Command) error {
	switch c := cmd.(type) {
	case BeginRecordingCommand:
		e.BeginRecording()
	case EndRecordingCommand:
		e.EndRecording()
	case SubmitCommand:
		e.SubmitWithCPUSynchronization()
	case WaitCommand:
		e.WaitForCPUSynchronization()
	case BindPipelineCommand:
		e.BindPipeline(c.BindPoint, c.Pipeline)
	case BindDescriptorSetsCommand:
		e.BindDescriptorSets(c.BindPoint, c.Layout, c.FirstSet, c.Sets)
	case SetViewportCommand:
		e.SetViewport(c.Viewport)
	case SetScissorCommand:
		e.SetScissor(c.Scissor)
	case DrawCommand:
		e.Draw(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
	case DrawIndirectCommand:
		e.DrawIndirect(c.Buffer, c.Offset, c.DrawCount, c.Stride)
	case DispatchCommand:
		e.Dispatch(c.X, c.Y, c.Z)
	case DispatchIndirectCommand:
		e.DispatchIndirect(c.Buffer, c.Offset)
	case CopyBufferCommand:
		e.CopyBuffer(c.Src, c.Dst, c.Regions)
	case CopyImageCommand:
		e.CopyImage(c.Src, c.SrcLayout, c.Dst, c.DstLayout, c.Regions)
	case BlitImageCommand:
		e.BlitImage(c.Src, c.SrcLayout, c.Dst, c.DstLayout, c.Regions, c.Filter)
	case CopyBufferToImageCommand:
		e.CopyBufferToImage(c.Src, c.Dst, c.DstLayout, c.Regions)
	case CopyImageToBufferCommand:
		e.CopyImageToBuffer(c.Src, c.SrcLayout, c.Dst, c.Regions)
	case FillBufferCommand:
		e.FillBuffer(c.Buffer, c.Offset, c.Size, c.Data)
	case UpdateBufferCommand:
		e.UpdateBuffer(c.Buffer, c.Offset, c.Data)
	case ClearColorImageCommand:
		e.ClearColorImage(c.Image, c.Layout, c.Color, c.Ranges)
	case ClearDepthStencilImageCommand:
		e.ClearDepthStencilImage(c.Image, c.Layout, c.Value, c.Ranges)
	case ClearAttachmentsCommand:
		e.ClearAttachments(c.Attachments, c.Rects)
	case PipelineBarrierCommand:
		e.PipelineBarrier(&rg.Barrier{SrcStages: c.SrcStages, DstStages: c.DstStages, Buffers: c.Buffers, Images: c.Images})
	case BeginRenderingCommand:
		info := c.Info
		e.BeginRendering(&info)
	case EndRenderingCommand:
		e.EndRendering()
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
	return nil
}

func writeCommands(w io.Writer, cmds []Command) (int64, error) {
	var total int64
	for i, c := range cmds {
		var line string
		if s, ok := c.(fmt.Stringer); ok {
			line = s.String()
		} else {
			line = c.Type().String()
		}
		n, err := fmt.Fprintf(w, "%3d  %s\n", i, line)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
