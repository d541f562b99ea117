package recording

import (
	"fmt"
	"strings"

	rg "github.com/gogpu/rendergraph"
)

// CommandType identifies the type of a command.
// Each command type corresponds to one executor call.
type CommandType uint8

const (
	// Lifecycle commands
	CmdBeginRecording CommandType = iota // Start of a submitted stream
	CmdEndRecording                      // End of a submitted stream
	CmdSubmit                            // SubmitWithCPUSynchronization
	CmdWait                              // WaitForCPUSynchronization

	// Binding commands
	CmdBindPipeline       // Bind a pipeline
	CmdBindDescriptorSets // Bind descriptor sets
	CmdSetViewport        // Set dynamic viewport
	CmdSetScissor         // Set dynamic scissor

	// Work commands
	CmdDraw             // Non-indexed draw
	CmdDrawIndirect     // Draw with arguments from a buffer
	CmdDispatch         // Compute dispatch
	CmdDispatchIndirect // Dispatch with arguments from a buffer

	// Transfer commands
	CmdCopyBuffer             // Buffer to buffer copy
	CmdCopyImage              // Image to image copy
	CmdBlitImage              // Scaled image copy
	CmdCopyBufferToImage      // Upload
	CmdCopyImageToBuffer      // Readback
	CmdFillBuffer             // Fill with a 32-bit word
	CmdUpdateBuffer           // Inline buffer update
	CmdClearColorImage        // Clear a color image
	CmdClearDepthStencilImage // Clear a depth/stencil image
	CmdClearAttachments       // Clear bound attachments

	// Synchronization and scope commands
	CmdPipelineBarrier // Barrier batch
	CmdBeginRendering  // Open a rendering scope
	CmdEndRendering    // Close a rendering scope
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBeginRecording:         "BeginRecording",
	CmdEndRecording:           "EndRecording",
	CmdSubmit:                 "SubmitWithCPUSynchronization",
	CmdWait:                   "WaitForCPUSynchronization",
	CmdBindPipeline:           "BindPipeline",
	CmdBindDescriptorSets:     "BindDescriptorSets",
	CmdSetViewport:            "SetViewport",
	CmdSetScissor:             "SetScissor",
	CmdDraw:                   "Draw",
	CmdDrawIndirect:           "DrawIndirect",
	CmdDispatch:               "Dispatch",
	CmdDispatchIndirect:       "DispatchIndirect",
	CmdCopyBuffer:             "CopyBuffer",
	CmdCopyImage:              "CopyImage",
	CmdBlitImage:              "BlitImage",
	CmdCopyBufferToImage:      "CopyBufferToImage",
	CmdCopyImageToBuffer:      "CopyImageToBuffer",
	CmdFillBuffer:             "FillBuffer",
	CmdUpdateBuffer:           "UpdateBuffer",
	CmdClearColorImage:        "ClearColorImage",
	CmdClearDepthStencilImage: "ClearDepthStencilImage",
	CmdClearAttachments:       "ClearAttachments",
	CmdPipelineBarrier:        "PipelineBarrier",
	CmdBeginRendering:         "BeginRendering",
	CmdEndRendering:           "EndRendering",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// IsLifecycle reports whether c brackets a stream rather than being part
// of it.
func (c CommandType) IsLifecycle() bool {
	return c <= CmdWait
}

// Command is the interface implemented by all command types.
// Commands hold copies of every argument, so they stay valid after the
// executor call returns.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Lifecycle Commands
// --------------------------------------------------------------------------

// BeginRecordingCommand marks the start of a submitted stream.
type BeginRecordingCommand struct{}

// Type implements Command.
func (BeginRecordingCommand) Type() CommandType { return CmdBeginRecording }

// EndRecordingCommand marks the end of a submitted stream.
type EndRecordingCommand struct{}

// Type implements Command.
func (EndRecordingCommand) Type() CommandType { return CmdEndRecording }

// SubmitCommand records a SubmitWithCPUSynchronization call.
type SubmitCommand struct{}

// Type implements Command.
func (SubmitCommand) Type() CommandType { return CmdSubmit }

// WaitCommand records a WaitForCPUSynchronization call.
type WaitCommand struct{}

// Type implements Command.
func (WaitCommand) Type() CommandType { return CmdWait }

// --------------------------------------------------------------------------
// Binding Commands
// --------------------------------------------------------------------------

// BindPipelineCommand binds a pipeline at a bind point.
type BindPipelineCommand struct {
	BindPoint rg.PipelineBindPoint
	Pipeline  rg.PipelineHandle
}

// Type implements Command.
func (BindPipelineCommand) Type() CommandType { return CmdBindPipeline }

func (c BindPipelineCommand) String() string {
	return fmt.Sprintf("BindPipeline %s pipeline=%#x", c.BindPoint, uint64(c.Pipeline))
}

// BindDescriptorSetsCommand binds descriptor sets starting at FirstSet.
type BindDescriptorSetsCommand struct {
	BindPoint rg.PipelineBindPoint
	Layout    rg.PipelineLayoutHandle
	FirstSet  uint32
	Sets      []rg.DescriptorSetHandle
}

// Type implements Command.
func (BindDescriptorSetsCommand) Type() CommandType { return CmdBindDescriptorSets }

func (c BindDescriptorSetsCommand) String() string {
	sets := make([]string, len(c.Sets))
	for i, s := range c.Sets {
		sets[i] = fmt.Sprintf("%#x", uint64(s))
	}
	return fmt.Sprintf("BindDescriptorSets %s layout=%#x first=%d sets=[%s]",
		c.BindPoint, uint64(c.Layout), c.FirstSet, strings.Join(sets, " "))
}

// SetViewportCommand sets the dynamic viewport.
type SetViewportCommand struct {
	Viewport rg.Viewport
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

func (c SetViewportCommand) String() string {
	v := c.Viewport
	return fmt.Sprintf("SetViewport %gx%g+%g+%g depth=[%g,%g]", v.Width, v.Height, v.X, v.Y, v.MinDepth, v.MaxDepth)
}

// SetScissorCommand sets the dynamic scissor.
type SetScissorCommand struct {
	Scissor rg.Rect2D
}

// Type implements Command.
func (SetScissorCommand) Type() CommandType { return CmdSetScissor }

func (c SetScissorCommand) String() string {
	return "SetScissor " + formatRect(c.Scissor)
}

// --------------------------------------------------------------------------
// Work Commands
// --------------------------------------------------------------------------

// DrawCommand is a non-indexed draw.
type DrawCommand struct {
	VertexCount, InstanceCount, FirstVertex, FirstInstance uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

func (c DrawCommand) String() string {
	return fmt.Sprintf("Draw vertices=%d instances=%d first=%d/%d",
		c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
}

// DrawIndirectCommand draws with arguments read from Buffer.
type DrawIndirectCommand struct {
	Buffer    rg.Handle
	Offset    uint64
	DrawCount uint32
	Stride    uint32
}

// Type implements Command.
func (DrawIndirectCommand) Type() CommandType { return CmdDrawIndirect }

func (c DrawIndirectCommand) String() string {
	return fmt.Sprintf("DrawIndirect buffer=%#x offset=%d count=%d stride=%d",
		uint64(c.Buffer), c.Offset, c.DrawCount, c.Stride)
}

// DispatchCommand is a compute dispatch.
type DispatchCommand struct {
	X, Y, Z uint32
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

func (c DispatchCommand) String() string {
	return fmt.Sprintf("Dispatch %dx%dx%d", c.X, c.Y, c.Z)
}

// DispatchIndirectCommand dispatches with counts read from Buffer.
type DispatchIndirectCommand struct {
	Buffer rg.Handle
	Offset uint64
}

// Type implements Command.
func (DispatchIndirectCommand) Type() CommandType { return CmdDispatchIndirect }

func (c DispatchIndirectCommand) String() string {
	return fmt.Sprintf("DispatchIndirect buffer=%#x offset=%d", uint64(c.Buffer), c.Offset)
}

// --------------------------------------------------------------------------
// Transfer Commands
// --------------------------------------------------------------------------

// CopyBufferCommand copies regions between buffers.
type CopyBufferCommand struct {
	Src, Dst rg.Handle
	Regions  []rg.BufferCopy
}

// Type implements Command.
func (CopyBufferCommand) Type() CommandType { return CmdCopyBuffer }

func (c CopyBufferCommand) String() string {
	return fmt.Sprintf("CopyBuffer %#x -> %#x regions=%d", uint64(c.Src), uint64(c.Dst), len(c.Regions))
}

// CopyImageCommand copies regions between images.
type CopyImageCommand struct {
	Src       rg.Handle
	SrcLayout rg.ImageLayout
	Dst       rg.Handle
	DstLayout rg.ImageLayout
	Regions   []rg.ImageCopy
}

// Type implements Command.
func (CopyImageCommand) Type() CommandType { return CmdCopyImage }

func (c CopyImageCommand) String() string {
	return fmt.Sprintf("CopyImage %#x (%s) -> %#x (%s) regions=%d",
		uint64(c.Src), c.SrcLayout, uint64(c.Dst), c.DstLayout, len(c.Regions))
}

// BlitImageCommand scales regions between images.
type BlitImageCommand struct {
	Src       rg.Handle
	SrcLayout rg.ImageLayout
	Dst       rg.Handle
	DstLayout rg.ImageLayout
	Regions   []rg.ImageBlit
	Filter    rg.Filter
}

// Type implements Command.
func (BlitImageCommand) Type() CommandType { return CmdBlitImage }

func (c BlitImageCommand) String() string {
	return fmt.Sprintf("BlitImage %#x (%s) -> %#x (%s) regions=%d filter=%d",
		uint64(c.Src), c.SrcLayout, uint64(c.Dst), c.DstLayout, len(c.Regions), c.Filter)
}

// CopyBufferToImageCommand uploads buffer contents into an image.
type CopyBufferToImageCommand struct {
	Src       rg.Handle
	Dst       rg.Handle
	DstLayout rg.ImageLayout
	Regions   []rg.BufferImageCopy
}

// Type implements Command.
func (CopyBufferToImageCommand) Type() CommandType { return CmdCopyBufferToImage }

func (c CopyBufferToImageCommand) String() string {
	return fmt.Sprintf("CopyBufferToImage %#x -> %#x (%s) regions=%d",
		uint64(c.Src), uint64(c.Dst), c.DstLayout, len(c.Regions))
}

// CopyImageToBufferCommand reads image contents back into a buffer.
type CopyImageToBufferCommand struct {
	Src       rg.Handle
	SrcLayout rg.ImageLayout
	Dst       rg.Handle
	Regions   []rg.BufferImageCopy
}

// Type implements Command.
func (CopyImageToBufferCommand) Type() CommandType { return CmdCopyImageToBuffer }

func (c CopyImageToBufferCommand) String() string {
	return fmt.Sprintf("CopyImageToBuffer %#x (%s) -> %#x regions=%d",
		uint64(c.Src), c.SrcLayout, uint64(c.Dst), len(c.Regions))
}

// FillBufferCommand fills a buffer range with a 32-bit word.
type FillBufferCommand struct {
	Buffer rg.Handle
	Offset uint64
	Size   uint64
	Data   uint32
}

// Type implements Command.
func (FillBufferCommand) Type() CommandType { return CmdFillBuffer }

func (c FillBufferCommand) String() string {
	return fmt.Sprintf("FillBuffer %#x offset=%d size=%d data=%#x", uint64(c.Buffer), c.Offset, c.Size, c.Data)
}

// UpdateBufferCommand writes inline data into a buffer.
type UpdateBufferCommand struct {
	Buffer rg.Handle
	Offset uint64
	Data   []byte
}

// Type implements Command.
func (UpdateBufferCommand) Type() CommandType { return CmdUpdateBuffer }

func (c UpdateBufferCommand) String() string {
	return fmt.Sprintf("UpdateBuffer %#x offset=%d bytes=%d", uint64(c.Buffer), c.Offset, len(c.Data))
}

// ClearColorImageCommand clears ranges of a color image.
type ClearColorImageCommand struct {
	Image  rg.Handle
	Layout rg.ImageLayout
	Color  rg.ClearColorValue
	Ranges []rg.ImageSubresourceRange
}

// Type implements Command.
func (ClearColorImageCommand) Type() CommandType { return CmdClearColorImage }

func (c ClearColorImageCommand) String() string {
	return fmt.Sprintf("ClearColorImage %#x (%s) color=%v ranges=%s",
		uint64(c.Image), c.Layout, c.Color.Float32, formatRanges(c.Ranges))
}

// ClearDepthStencilImageCommand clears ranges of a depth/stencil image.
type ClearDepthStencilImageCommand struct {
	Image  rg.Handle
	Layout rg.ImageLayout
	Value  rg.ClearDepthStencilValue
	Ranges []rg.ImageSubresourceRange
}

// Type implements Command.
func (ClearDepthStencilImageCommand) Type() CommandType { return CmdClearDepthStencilImage }

func (c ClearDepthStencilImageCommand) String() string {
	return fmt.Sprintf("ClearDepthStencilImage %#x (%s) depth=%g stencil=%d ranges=%s",
		uint64(c.Image), c.Layout, c.Value.Depth, c.Value.Stencil, formatRanges(c.Ranges))
}

// ClearAttachmentsCommand clears regions of the bound attachments.
type ClearAttachmentsCommand struct {
	Attachments []rg.ClearAttachment
	Rects       []rg.ClearRect
}

// Type implements Command.
func (ClearAttachmentsCommand) Type() CommandType { return CmdClearAttachments }

func (c ClearAttachmentsCommand) String() string {
	return fmt.Sprintf("ClearAttachments attachments=%d rects=%d", len(c.Attachments), len(c.Rects))
}

// --------------------------------------------------------------------------
// Synchronization and Scope Commands
// --------------------------------------------------------------------------

// PipelineBarrierCommand is one barrier batch.
type PipelineBarrierCommand struct {
	SrcStages rg.PipelineStageFlags
	DstStages rg.PipelineStageFlags
	Buffers   []rg.BufferMemoryBarrier
	Images    []rg.ImageMemoryBarrier
}

// Type implements Command.
func (PipelineBarrierCommand) Type() CommandType { return CmdPipelineBarrier }

func (c PipelineBarrierCommand) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PipelineBarrier %s -> %s", c.SrcStages, c.DstStages)
	for _, b := range c.Buffers {
		fmt.Fprintf(&sb, "\n    buffer %#x %s -> %s", uint64(b.Buffer), b.SrcAccess, b.DstAccess)
	}
	for _, b := range c.Images {
		fmt.Fprintf(&sb, "\n    image %#x %s %s -> %s %s -> %s",
			uint64(b.Image), b.Range, b.SrcAccess, b.DstAccess, b.OldLayout, b.NewLayout)
	}
	return sb.String()
}

// BeginRenderingCommand opens a rendering scope.
type BeginRenderingCommand struct {
	Info rg.RenderingInfo
}

// Type implements Command.
func (BeginRenderingCommand) Type() CommandType { return CmdBeginRendering }

func (c BeginRenderingCommand) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BeginRendering area=%s", formatRect(c.Info.RenderArea))
	for _, a := range c.Info.ColorAttachments {
		fmt.Fprintf(&sb, " color=%#x(%s,%s)", uint64(a.Image), a.Layout, loadOpName(a.LoadOp))
	}
	if a := c.Info.DepthAttachment; a != nil {
		fmt.Fprintf(&sb, " depth=%#x(%s,%s)", uint64(a.Image), a.Layout, loadOpName(a.LoadOp))
	}
	return sb.String()
}

// EndRenderingCommand closes the open rendering scope.
type EndRenderingCommand struct{}

// Type implements Command.
func (EndRenderingCommand) Type() CommandType { return CmdEndRendering }

func formatRect(r rg.Rect2D) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Extent.Width, r.Extent.Height, r.Offset.X, r.Offset.Y)
}

func formatRanges(rs []rg.ImageSubresourceRange) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func loadOpName(op rg.AttachmentLoadOp) string {
	switch op {
	case rg.LoadOpLoad:
		return "LOAD"
	case rg.LoadOpClear:
		return "CLEAR"
	case rg.LoadOpDontCare:
		return "DONT_CARE"
	}
	return fmt.Sprintf("LoadOp(%d)", int32(op))
}
