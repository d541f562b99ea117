//go:build !nogpu

package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	rg "github.com/gogpu/rendergraph"
)

// DefaultTimeout bounds WaitForCPUSynchronization.
const DefaultTimeout = 5 * time.Second

// Counters tallies the hal work an executor issued since it was created.
type Counters struct {
	RenderPasses       int
	ComputePasses      int
	TextureTransitions int
	// BufferBarriers counts buffer barriers left to hal's own usage
	// tracking.
	BufferBarriers int
	Copies         int
	StagingBytes   uint64
	Submits        int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLabel sets the debug label of encoders and passes.
func WithLabel(label string) Option {
	return func(e *Executor) { e.label = label }
}

// WithTimeout sets the fence wait limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithRegistry shares a handle registry between executors.
func WithRegistry(r *Registry) Option {
	return func(e *Executor) { e.res = r }
}

// Executor translates the linearized command stream of a graph into hal
// encoder calls on one device.
//
// State machine per frame:
//
//	BeginRecording -> commands -> EndRecording
//	SubmitWithCPUSynchronization -> WaitForCPUSynchronization
//
// The first failing command makes the frame's error sticky: later commands
// are skipped, EndRecording discards the encoder and Err reports the
// failure. The next BeginRecording starts over.
//
// Executor is NOT safe for concurrent use.
type Executor struct {
	device  hal.Device
	queue   hal.Queue
	res     *Registry
	label   string
	timeout time.Duration
	logger  *slog.Logger

	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	compute computeState

	cmdBuf     hal.CommandBuffer
	inFlight   []hal.CommandBuffer
	staging    []hal.Buffer
	fence      hal.Fence
	fenceValue uint64

	err      error
	counters Counters
}

type computeState struct {
	pipeline hal.ComputePipeline
	groups   []hal.BindGroup
}

var _ rg.Executor = (*Executor)(nil)

// NewExecutor returns an executor recording on device and submitting to
// queue.
func NewExecutor(device hal.Device, queue hal.Queue, opts ...Option) *Executor {
	e := &Executor{
		device:  device,
		queue:   queue,
		label:   "rendergraph",
		timeout: DefaultTimeout,
		logger:  rg.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.res == nil {
		e.res = NewRegistry()
	}
	return e
}

// Registry returns the handle registry commands are resolved against.
func (e *Executor) Registry() *Registry { return e.res }

// SetLogger implements the logger hook rendergraph.Submit propagates.
func (e *Executor) SetLogger(l *slog.Logger) {
	if l == nil {
		l = rg.Logger()
	}
	e.logger = l
}

// Err returns the first error of the current frame.
func (e *Executor) Err() error { return e.err }

// Counters returns the running totals.
func (e *Executor) Counters() Counters { return e.counters }

// Close discards any open encoder and releases the fence and staging
// buffers. Registered objects are left to their owner.
func (e *Executor) Close() {
	e.discard()
	e.release()
	if e.fence != nil {
		e.device.DestroyFence(e.fence)
		e.fence = nil
	}
}

func (e *Executor) fail(op string, err error) {
	if e.err != nil {
		return
	}
	e.err = fmt.Errorf("native: %s: %w", op, err)
	if errors.Is(err, ErrUnsupported) {
		e.logger.Warn("native: command skipped", "op", op, "error", err)
		return
	}
	e.logger.Error("native: command failed", "op", op, "error", err)
}

// recording reports whether op may proceed. inPass selects whether op
// belongs inside or outside a render pass.
func (e *Executor) recording(op string, inPass bool) bool {
	if e.err != nil {
		return false
	}
	if e.encoder == nil {
		e.fail(op, ErrNotRecording)
		return false
	}
	if inPass && e.pass == nil {
		e.fail(op, ErrNoRenderPass)
		return false
	}
	if !inPass && e.pass != nil {
		e.fail(op, ErrRenderPassOpen)
		return false
	}
	return true
}

func (e *Executor) discard() {
	if e.pass != nil {
		e.pass.End()
		e.pass = nil
	}
	if e.encoder != nil {
		e.encoder.DiscardEncoding()
		e.encoder = nil
	}
	if e.cmdBuf != nil {
		e.device.FreeCommandBuffer(e.cmdBuf)
		e.cmdBuf = nil
	}
}

func (e *Executor) release() {
	for _, cb := range e.inFlight {
		e.device.FreeCommandBuffer(cb)
	}
	e.inFlight = e.inFlight[:0]
	for _, b := range e.staging {
		e.device.DestroyBuffer(b)
	}
	e.staging = e.staging[:0]
}

// BeginRecording opens a command encoder for a new frame.
func (e *Executor) BeginRecording() {
	if e.encoder != nil && e.err == nil {
		e.fail("BeginRecording", ErrAlreadyRecording)
		return
	}
	e.discard()
	e.err = nil
	e.compute = computeState{}

	enc, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: e.label})
	if err != nil {
		e.fail("BeginRecording", fmt.Errorf("create command encoder: %w", err))
		return
	}
	if err := enc.BeginEncoding(e.label); err != nil {
		e.fail("BeginRecording", fmt.Errorf("begin encoding: %w", err))
		return
	}
	e.encoder = enc
}

// EndRecording closes the encoder. A frame that failed is discarded.
func (e *Executor) EndRecording() {
	if e.encoder == nil {
		if e.err == nil {
			e.fail("EndRecording", ErrNotRecording)
		}
		return
	}
	if e.err != nil {
		e.discard()
		return
	}
	if e.pass != nil {
		e.pass.End()
		e.pass = nil
	}
	cb, err := e.encoder.EndEncoding()
	e.encoder = nil
	if err != nil {
		e.fail("EndRecording", fmt.Errorf("end encoding: %w", err))
		return
	}
	e.cmdBuf = cb
}

// SubmitWithCPUSynchronization submits the recorded frame and signals the
// executor's fence when it completes.
func (e *Executor) SubmitWithCPUSynchronization() {
	if e.err != nil || e.cmdBuf == nil {
		return
	}
	if e.fence == nil {
		f, err := e.device.CreateFence()
		if err != nil {
			e.fail("SubmitWithCPUSynchronization", fmt.Errorf("create fence: %w", err))
			return
		}
		e.fence = f
	}
	e.fenceValue++
	if err := e.queue.Submit([]hal.CommandBuffer{e.cmdBuf}, e.fence, e.fenceValue); err != nil {
		e.fail("SubmitWithCPUSynchronization", fmt.Errorf("submit: %w", err))
		return
	}
	e.inFlight = append(e.inFlight, e.cmdBuf)
	e.cmdBuf = nil
	e.counters.Submits++
}

// WaitForCPUSynchronization blocks until the last submitted frame completes,
// then frees its command buffers and staging buffers.
func (e *Executor) WaitForCPUSynchronization() {
	if e.fence == nil || len(e.inFlight) == 0 {
		return
	}
	ok, err := e.device.Wait(e.fence, e.fenceValue, e.timeout)
	if err != nil {
		e.fail("WaitForCPUSynchronization", fmt.Errorf("wait: %w", err))
		return
	}
	if !ok {
		e.fail("WaitForCPUSynchronization", fmt.Errorf("%w after %v", ErrTimeout, e.timeout))
		return
	}
	e.release()
}

// BindPipeline sets the graphics pipeline on the open render pass, or
// remembers the compute pipeline for the next Dispatch.
func (e *Executor) BindPipeline(bindPoint rg.PipelineBindPoint, pipeline rg.PipelineHandle) {
	inPass := bindPoint == rg.BindPointGraphics
	if !e.recording("BindPipeline", inPass) {
		return
	}
	p, err := e.res.pipeline(pipeline)
	if err != nil {
		e.fail("BindPipeline", err)
		return
	}
	if inPass {
		if p.render == nil {
			e.fail("BindPipeline", fmt.Errorf("%w: pipeline %#x is not a render pipeline", ErrUnknownHandle, uint64(pipeline)))
			return
		}
		e.pass.SetPipeline(p.render)
		return
	}
	if p.compute == nil {
		e.fail("BindPipeline", fmt.Errorf("%w: pipeline %#x is not a compute pipeline", ErrUnknownHandle, uint64(pipeline)))
		return
	}
	e.compute.pipeline = p.compute
}

// BindDescriptorSets binds hal bind groups starting at group index firstSet.
// The layout handle is unused since hal bind groups carry their layout.
func (e *Executor) BindDescriptorSets(bindPoint rg.PipelineBindPoint, _ rg.PipelineLayoutHandle, firstSet uint32, sets []rg.DescriptorSetHandle) {
	inPass := bindPoint == rg.BindPointGraphics
	if !e.recording("BindDescriptorSets", inPass) {
		return
	}
	for i, set := range sets {
		g, err := e.res.bindGroup(set)
		if err != nil {
			e.fail("BindDescriptorSets", err)
			return
		}
		index := firstSet + uint32(i)
		if inPass {
			e.pass.SetBindGroup(index, g, nil)
			continue
		}
		for uint32(len(e.compute.groups)) <= index {
			e.compute.groups = append(e.compute.groups, nil)
		}
		e.compute.groups[index] = g
	}
}

// SetViewport sets the viewport of the open render pass.
func (e *Executor) SetViewport(v rg.Viewport) {
	if !e.recording("SetViewport", true) {
		return
	}
	e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

// SetScissor sets the scissor rectangle of the open render pass.
func (e *Executor) SetScissor(s rg.Rect2D) {
	if !e.recording("SetScissor", true) {
		return
	}
	e.pass.SetScissorRect(uint32(max(s.Offset.X, 0)), uint32(max(s.Offset.Y, 0)), s.Extent.Width, s.Extent.Height)
}

// Draw records a non-indexed draw.
func (e *Executor) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !e.recording("Draw", true) {
		return
	}
	e.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndirect is not expressible on hal.
func (e *Executor) DrawIndirect(rg.Handle, uint64, uint32, uint32) {
	if e.recording("DrawIndirect", true) {
		e.fail("DrawIndirect", ErrUnsupported)
	}
}

// Dispatch runs one compute pass with the remembered pipeline and groups.
func (e *Executor) Dispatch(x, y, z uint32) {
	if !e.recording("Dispatch", false) {
		return
	}
	if e.compute.pipeline == nil {
		e.fail("Dispatch", ErrNoPipeline)
		return
	}
	pass := e.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: e.label})
	pass.SetPipeline(e.compute.pipeline)
	for i, g := range e.compute.groups {
		if g != nil {
			pass.SetBindGroup(uint32(i), g, nil)
		}
	}
	pass.Dispatch(x, y, z)
	pass.End()
	e.counters.ComputePasses++
}

// DispatchIndirect is not expressible on hal.
func (e *Executor) DispatchIndirect(rg.Handle, uint64) {
	if e.recording("DispatchIndirect", false) {
		e.fail("DispatchIndirect", ErrUnsupported)
	}
}

// CopyBuffer copies buffer regions.
func (e *Executor) CopyBuffer(src, dst rg.Handle, regions []rg.BufferCopy) {
	if !e.recording("CopyBuffer", false) {
		return
	}
	s, err := e.res.buffer(src)
	if err != nil {
		e.fail("CopyBuffer", err)
		return
	}
	d, err := e.res.buffer(dst)
	if err != nil {
		e.fail("CopyBuffer", err)
		return
	}
	copies := make([]hal.BufferCopy, len(regions))
	for i, r := range regions {
		copies[i] = hal.BufferCopy{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size}
	}
	e.encoder.CopyBufferToBuffer(s.buffer, d.buffer, copies)
	e.counters.Copies++
}

// CopyImage copies image regions. Layouts are implied by the preceding
// usage transitions.
func (e *Executor) CopyImage(src rg.Handle, _ rg.ImageLayout, dst rg.Handle, _ rg.ImageLayout, regions []rg.ImageCopy) {
	if !e.recording("CopyImage", false) {
		return
	}
	s, err := e.res.texture(src)
	if err != nil {
		e.fail("CopyImage", err)
		return
	}
	d, err := e.res.texture(dst)
	if err != nil {
		e.fail("CopyImage", err)
		return
	}
	copies := make([]hal.TextureCopy, len(regions))
	for i, r := range regions {
		copies[i] = hal.TextureCopy{
			SrcBase: imageCopyTexture(s.texture, r.SrcSubresource, r.SrcOffset),
			DstBase: imageCopyTexture(d.texture, r.DstSubresource, r.DstOffset),
			Size:    extent(r.Extent, r.SrcSubresource.LayerCount),
		}
	}
	e.encoder.CopyTextureToTexture(s.texture, d.texture, copies)
	e.counters.Copies++
}

// BlitImage is not expressible on hal: there is no scaled copy.
func (e *Executor) BlitImage(rg.Handle, rg.ImageLayout, rg.Handle, rg.ImageLayout, []rg.ImageBlit, rg.Filter) {
	if e.recording("BlitImage", false) {
		e.fail("BlitImage", ErrUnsupported)
	}
}

// CopyBufferToImage uploads buffer regions into an image.
func (e *Executor) CopyBufferToImage(src, dst rg.Handle, _ rg.ImageLayout, regions []rg.BufferImageCopy) {
	if !e.recording("CopyBufferToImage", false) {
		return
	}
	b, err := e.res.buffer(src)
	if err != nil {
		e.fail("CopyBufferToImage", err)
		return
	}
	t, err := e.res.texture(dst)
	if err != nil {
		e.fail("CopyBufferToImage", err)
		return
	}
	copies, err := bufferTextureCopies(t, regions)
	if err != nil {
		e.fail("CopyBufferToImage", err)
		return
	}
	e.encoder.CopyBufferToTexture(b.buffer, t.texture, copies)
	e.counters.Copies++
}

// CopyImageToBuffer reads image regions back into a buffer.
func (e *Executor) CopyImageToBuffer(src rg.Handle, _ rg.ImageLayout, dst rg.Handle, regions []rg.BufferImageCopy) {
	if !e.recording("CopyImageToBuffer", false) {
		return
	}
	t, err := e.res.texture(src)
	if err != nil {
		e.fail("CopyImageToBuffer", err)
		return
	}
	b, err := e.res.buffer(dst)
	if err != nil {
		e.fail("CopyImageToBuffer", err)
		return
	}
	copies, err := bufferTextureCopies(t, regions)
	if err != nil {
		e.fail("CopyImageToBuffer", err)
		return
	}
	e.encoder.CopyTextureToBuffer(t.texture, b.buffer, copies)
	e.counters.Copies++
}

// FillBuffer writes the repeated 32-bit pattern through a staging buffer.
func (e *Executor) FillBuffer(buffer rg.Handle, offset, size uint64, data uint32) {
	if !e.recording("FillBuffer", false) {
		return
	}
	b, err := e.res.buffer(buffer)
	if err != nil {
		e.fail("FillBuffer", err)
		return
	}
	if size == rg.WholeSize {
		size = (b.size - offset) &^ 3
	}
	if size == 0 {
		return
	}
	pattern := make([]byte, size)
	for i := uint64(0); i+4 <= size; i += 4 {
		binary.LittleEndian.PutUint32(pattern[i:], data)
	}
	e.upload("FillBuffer", b.buffer, offset, pattern)
}

// UpdateBuffer writes data through a staging buffer.
func (e *Executor) UpdateBuffer(buffer rg.Handle, offset uint64, data []byte) {
	if !e.recording("UpdateBuffer", false) || len(data) == 0 {
		return
	}
	b, err := e.res.buffer(buffer)
	if err != nil {
		e.fail("UpdateBuffer", err)
		return
	}
	e.upload("UpdateBuffer", b.buffer, offset, data)
}

// upload stages data in a fresh buffer written by the queue, then copies it
// into dst in stream order.
func (e *Executor) upload(op string, dst hal.Buffer, offset uint64, data []byte) {
	size := uint64(len(data))
	staging, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: e.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		e.fail(op, fmt.Errorf("create staging buffer: %w", err))
		return
	}
	e.staging = append(e.staging, staging)
	e.queue.WriteBuffer(staging, 0, data)
	e.encoder.CopyBufferToBuffer(staging, dst, []hal.BufferCopy{{SrcOffset: 0, DstOffset: offset, Size: size}})
	e.counters.StagingBytes += size
	e.counters.Copies++
}

// ClearColorImage clears the image's view with an empty render pass.
func (e *Executor) ClearColorImage(image rg.Handle, layout rg.ImageLayout, color rg.ClearColorValue, ranges []rg.ImageSubresourceRange) {
	if !e.recording("ClearColorImage", false) {
		return
	}
	t, err := e.clearTarget("ClearColorImage", image, ranges)
	if err != nil {
		e.fail("ClearColorImage", err)
		return
	}
	e.clearPass(t, layout, &hal.RenderPassDescriptor{
		Label: e.label + "_clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearColor(color),
		}},
	})
}

// ClearDepthStencilImage clears the image's view with an empty render pass.
func (e *Executor) ClearDepthStencilImage(image rg.Handle, layout rg.ImageLayout, value rg.ClearDepthStencilValue, ranges []rg.ImageSubresourceRange) {
	if !e.recording("ClearDepthStencilImage", false) {
		return
	}
	t, err := e.clearTarget("ClearDepthStencilImage", image, ranges)
	if err != nil {
		e.fail("ClearDepthStencilImage", err)
		return
	}
	e.clearPass(t, layout, &hal.RenderPassDescriptor{
		Label: e.label + "_clear",
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              t.view,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   value.Depth,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: value.Stencil,
		},
	})
}

// clearTarget resolves image for a clear. Only the base mip level of the
// registered view can be cleared.
func (e *Executor) clearTarget(op string, image rg.Handle, ranges []rg.ImageSubresourceRange) (textureEntry, error) {
	t, err := e.res.texture(image)
	if err != nil {
		return t, err
	}
	if t.view == nil {
		return t, fmt.Errorf("%w: image %#x has no view", ErrUnsupported, uint64(image))
	}
	for _, r := range ranges {
		if r.BaseMipLevel != 0 || (r.LevelCount != 1 && r.LevelCount != rg.RemainingMipLevels) {
			return t, fmt.Errorf("%w: %s of %v", ErrUnsupported, op, r)
		}
	}
	return t, nil
}

func (e *Executor) clearPass(t textureEntry, layout rg.ImageLayout, desc *hal.RenderPassDescriptor) {
	from := textureUsage(layout)
	e.transition(t.texture, from, gputypes.TextureUsageRenderAttachment)
	e.encoder.BeginRenderPass(desc).End()
	e.transition(t.texture, gputypes.TextureUsageRenderAttachment, from)
	e.counters.RenderPasses++
}

// ClearAttachments is not expressible on hal: attachments clear only at
// pass load.
func (e *Executor) ClearAttachments([]rg.ClearAttachment, []rg.ClearRect) {
	if e.recording("ClearAttachments", true) {
		e.fail("ClearAttachments", ErrUnsupported)
	}
}

// PipelineBarrier turns image barriers into hal usage transitions. Buffer
// barriers are left to hal, which tracks buffer usage itself.
func (e *Executor) PipelineBarrier(b *rg.Barrier) {
	if !e.recording("PipelineBarrier", false) {
		return
	}
	if len(b.Images) > 0 {
		barriers := make([]hal.TextureBarrier, 0, len(b.Images))
		for _, ib := range b.Images {
			t, err := e.res.texture(ib.Image)
			if err != nil {
				e.fail("PipelineBarrier", err)
				return
			}
			barriers = append(barriers, hal.TextureBarrier{
				Texture: t.texture,
				Usage: hal.TextureUsageTransition{
					OldUsage: textureUsage(ib.OldLayout),
					NewUsage: textureUsage(ib.NewLayout),
				},
			})
		}
		e.encoder.TransitionTextures(barriers)
		e.counters.TextureTransitions += len(barriers)
	}
	if len(b.Buffers) > 0 {
		e.counters.BufferBarriers += len(b.Buffers)
		e.logger.Debug("native: buffer barriers left to hal", "count", len(b.Buffers))
	}
}

func (e *Executor) transition(tex hal.Texture, from, to gputypes.TextureUsage) {
	e.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
	e.counters.TextureTransitions++
}

// BeginRendering opens a hal render pass over the attachments' views.
func (e *Executor) BeginRendering(info *rg.RenderingInfo) {
	if !e.recording("BeginRendering", false) {
		return
	}
	desc := &hal.RenderPassDescriptor{Label: e.label}
	for _, a := range info.ColorAttachments {
		t, err := e.attachment(a.Image)
		if err != nil {
			e.fail("BeginRendering", err)
			return
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:       t.view,
			LoadOp:     loadOp(a.LoadOp),
			StoreOp:    storeOp(a.StoreOp),
			ClearValue: clearColor(a.ClearColor),
		})
	}
	if d := info.DepthAttachment; d != nil {
		t, err := e.attachment(d.Image)
		if err != nil {
			e.fail("BeginRendering", err)
			return
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              t.view,
			DepthLoadOp:       loadOp(d.LoadOp),
			DepthStoreOp:      storeOp(d.StoreOp),
			DepthClearValue:   d.ClearDepthStencil.Depth,
			StencilLoadOp:     loadOp(d.LoadOp),
			StencilStoreOp:    storeOp(d.StoreOp),
			StencilClearValue: d.ClearDepthStencil.Stencil,
		}
	}
	e.pass = e.encoder.BeginRenderPass(desc)
	e.counters.RenderPasses++
}

func (e *Executor) attachment(h rg.Handle) (textureEntry, error) {
	t, err := e.res.texture(h)
	if err != nil {
		return t, err
	}
	if t.view == nil {
		return t, fmt.Errorf("%w: attachment %#x has no view", ErrUnsupported, uint64(h))
	}
	return t, nil
}

// EndRendering ends the open render pass.
func (e *Executor) EndRendering() {
	if !e.recording("EndRendering", true) {
		return
	}
	e.pass.End()
	e.pass = nil
}

func clearColor(c rg.ClearColorValue) gputypes.Color {
	return gputypes.Color{
		R: float64(c.Float32[0]),
		G: float64(c.Float32[1]),
		B: float64(c.Float32[2]),
		A: float64(c.Float32[3]),
	}
}

func imageCopyTexture(tex hal.Texture, l rg.ImageSubresourceLayers, o rg.Offset3D) hal.ImageCopyTexture {
	return hal.ImageCopyTexture{
		Texture:  tex,
		MipLevel: l.MipLevel,
		Origin: hal.Origin3D{
			X: uint32(max(o.X, 0)),
			Y: uint32(max(o.Y, 0)),
			Z: uint32(max(o.Z, 0)) + l.BaseArrayLayer,
		},
	}
}

func extent(x rg.Extent3D, layers uint32) hal.Extent3D {
	depth := max(x.Depth, 1)
	if layers > 1 && layers != rg.RemainingArrayLayers {
		depth = layers
	}
	return hal.Extent3D{Width: x.Width, Height: x.Height, DepthOrArrayLayers: depth}
}

func bufferTextureCopies(t textureEntry, regions []rg.BufferImageCopy) ([]hal.BufferTextureCopy, error) {
	bpt := bytesPerTexel(t.format)
	if bpt == 0 {
		return nil, fmt.Errorf("%w: buffer copies of format %v", ErrUnsupported, t.format)
	}
	copies := make([]hal.BufferTextureCopy, len(regions))
	for i, r := range regions {
		rowLength := r.BufferRowLength
		if rowLength == 0 {
			rowLength = r.ImageExtent.Width
		}
		rows := r.BufferImageHeight
		if rows == 0 {
			rows = r.ImageExtent.Height
		}
		copies[i] = hal.BufferTextureCopy{
			BufferLayout: hal.ImageDataLayout{
				Offset:       r.BufferOffset,
				BytesPerRow:  rowLength * bpt,
				RowsPerImage: rows,
			},
			TextureBase: imageCopyTexture(t.texture, r.ImageSubresource, r.ImageOffset),
			Size:        extent(r.ImageExtent, r.ImageSubresource.LayerCount),
		}
	}
	return copies, nil
}
