package rendergraph

// NodeKind identifies the operation a node performs.
type NodeKind uint8

const (
	NodeDispatch NodeKind = iota
	NodeDispatchIndirect
	NodeDraw
	NodeDrawIndirect
	NodeBeginRendering
	NodeClearAttachments
	NodeEndRendering
	NodeCopyBuffer
	NodeCopyImage
	NodeCopyBufferToImage
	NodeCopyImageToBuffer
	NodeBlitImage
	NodeFillBuffer
	NodeUpdateBuffer
	NodeClearColorImage
	NodeClearDepthStencilImage
	NodeSynchronization
)

var nodeKindNames = [...]string{
	NodeDispatch:               "Dispatch",
	NodeDispatchIndirect:       "DispatchIndirect",
	NodeDraw:                   "Draw",
	NodeDrawIndirect:           "DrawIndirect",
	NodeBeginRendering:         "BeginRendering",
	NodeClearAttachments:       "ClearAttachments",
	NodeEndRendering:           "EndRendering",
	NodeCopyBuffer:             "CopyBuffer",
	NodeCopyImage:              "CopyImage",
	NodeCopyBufferToImage:      "CopyBufferToImage",
	NodeCopyImageToBuffer:      "CopyImageToBuffer",
	NodeBlitImage:              "BlitImage",
	NodeFillBuffer:             "FillBuffer",
	NodeUpdateBuffer:           "UpdateBuffer",
	NodeClearColorImage:        "ClearColorImage",
	NodeClearDepthStencilImage: "ClearDepthStencilImage",
	NodeSynchronization:        "Synchronization",
}

// String returns the kind name.
func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// ParseNodeKind is the inverse of NodeKind.String.
func ParseNodeKind(s string) (NodeKind, bool) {
	for k, name := range nodeKindNames {
		if name == s {
			return NodeKind(k), true
		}
	}
	return 0, false
}

// inScope reports whether nodes of kind k may only appear inside a
// rendering scope.
func (k NodeKind) inScope() bool {
	return k == NodeDraw || k == NodeDrawIndirect || k == NodeClearAttachments
}

// executionStage is the stage assumed for declared accesses without one.
func (k NodeKind) executionStage() PipelineStageFlags {
	switch k {
	case NodeDispatch, NodeDispatchIndirect:
		return StageComputeShader
	case NodeDraw, NodeDrawIndirect:
		return StageVertexShader | StageFragmentShader
	case NodeBeginRendering, NodeClearAttachments, NodeEndRendering:
		return StageColorAttachmentOutput
	case NodeSynchronization:
		return StageBottomOfPipe
	}
	return StageTransfer
}

// NodeData is the kind-specific payload of a node. Implementations are the
// pointer types in this package, so the payload returned by Graph.NodeData
// can be edited in place until the graph is submitted.
type NodeData interface {
	Kind() NodeKind

	// buildLinks appends the accesses implied by the payload.
	buildLinks(b *linkBuilder)
	// record issues the node's own command (binds excluded).
	record(e Executor)
}

// PipelineHandle, PipelineLayoutHandle and DescriptorSetHandle are opaque
// driver tokens. The graph only compares them.
type (
	PipelineHandle       uint64
	PipelineLayoutHandle uint64
	DescriptorSetHandle  uint64
)

// PipelineData names the pipeline state a draw or dispatch needs bound.
type PipelineData struct {
	Pipeline       PipelineHandle
	Layout         PipelineLayoutHandle
	FirstSet       uint32
	DescriptorSets []DescriptorSetHandle
}

// pipelineNode is implemented by nodes that need pipeline state bound.
type pipelineNode interface {
	pipelineData() (*PipelineData, PipelineBindPoint)
}

// dynamicStateNode is implemented by draws carrying viewport and scissor.
type dynamicStateNode interface {
	dynamicState() (*Viewport, *Rect2D)
}

// DispatchData dispatches compute workgroups.
type DispatchData struct {
	Pipeline                              PipelineData
	GroupCountX, GroupCountY, GroupCountZ uint32
}

func (*DispatchData) Kind() NodeKind        { return NodeDispatch }
func (*DispatchData) buildLinks(*linkBuilder) {}
func (d *DispatchData) record(e Executor) {
	e.Dispatch(d.GroupCountX, d.GroupCountY, d.GroupCountZ)
}
func (d *DispatchData) pipelineData() (*PipelineData, PipelineBindPoint) {
	return &d.Pipeline, BindPointCompute
}

// DispatchIndirectData dispatches with workgroup counts read from Buffer.
type DispatchIndirectData struct {
	Pipeline PipelineData
	Buffer   Handle
	Offset   uint64
}

func (*DispatchIndirectData) Kind() NodeKind { return NodeDispatchIndirect }
func (d *DispatchIndirectData) buildLinks(b *linkBuilder) {
	b.buffer(d.Buffer, AccessIndirectCommandRead, StageDrawIndirect)
}
func (d *DispatchIndirectData) record(e Executor) { e.DispatchIndirect(d.Buffer, d.Offset) }
func (d *DispatchIndirectData) pipelineData() (*PipelineData, PipelineBindPoint) {
	return &d.Pipeline, BindPointCompute
}

// DrawData records a non-indexed draw. A nil Viewport or Scissor keeps the
// currently set dynamic state.
type DrawData struct {
	Pipeline      PipelineData
	Viewport      *Viewport
	Scissor       *Rect2D
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

func (*DrawData) Kind() NodeKind        { return NodeDraw }
func (*DrawData) buildLinks(*linkBuilder) {}
func (d *DrawData) record(e Executor) {
	e.Draw(d.VertexCount, d.InstanceCount, d.FirstVertex, d.FirstInstance)
}
func (d *DrawData) pipelineData() (*PipelineData, PipelineBindPoint) {
	return &d.Pipeline, BindPointGraphics
}
func (d *DrawData) dynamicState() (*Viewport, *Rect2D) { return d.Viewport, d.Scissor }

// DrawIndirectData records draws whose parameters are read from Buffer.
type DrawIndirectData struct {
	Pipeline  PipelineData
	Viewport  *Viewport
	Scissor   *Rect2D
	Buffer    Handle
	Offset    uint64
	DrawCount uint32
	Stride    uint32
}

func (*DrawIndirectData) Kind() NodeKind { return NodeDrawIndirect }
func (d *DrawIndirectData) buildLinks(b *linkBuilder) {
	b.buffer(d.Buffer, AccessIndirectCommandRead, StageDrawIndirect)
}
func (d *DrawIndirectData) record(e Executor) {
	e.DrawIndirect(d.Buffer, d.Offset, d.DrawCount, d.Stride)
}
func (d *DrawIndirectData) pipelineData() (*PipelineData, PipelineBindPoint) {
	return &d.Pipeline, BindPointGraphics
}
func (d *DrawIndirectData) dynamicState() (*Viewport, *Rect2D) { return d.Viewport, d.Scissor }

// RenderingAttachment is one attachment of a rendering scope.
type RenderingAttachment struct {
	Image  Handle
	Layout ImageLayout
	// Range defaults to the whole image when LevelCount and LayerCount are
	// zero. Its AspectMask selects color or depth/stencil access.
	Range             ImageSubresourceRange
	LoadOp            AttachmentLoadOp
	StoreOp           AttachmentStoreOp
	ClearColor        ClearColorValue
	ClearDepthStencil ClearDepthStencilValue
}

// RenderingInfo mirrors VkRenderingInfo.
type RenderingInfo struct {
	RenderArea       Rect2D
	LayerCount       uint32
	ColorAttachments []RenderingAttachment
	DepthAttachment  *RenderingAttachment
}

// BeginRenderingData opens a rendering scope.
type BeginRenderingData struct {
	RenderingInfo
}

func (*BeginRenderingData) Kind() NodeKind { return NodeBeginRendering }
func (d *BeginRenderingData) buildLinks(b *linkBuilder) {
	for _, a := range d.ColorAttachments {
		access := AccessColorAttachmentWrite
		if a.LoadOp == LoadOpLoad {
			access |= AccessColorAttachmentRead
		}
		rng := a.Range
		if rng.AspectMask == 0 {
			rng.AspectMask = AspectColor
		}
		b.image(a.Image, access, StageColorAttachmentOutput, a.Layout, rng)
	}
	if a := d.DepthAttachment; a != nil {
		access := AccessDepthStencilAttachmentWrite
		if a.LoadOp == LoadOpLoad {
			access |= AccessDepthStencilAttachmentRead
		}
		rng := a.Range
		if rng.AspectMask == 0 {
			rng.AspectMask = AspectDepth
		}
		b.image(a.Image, access, StageEarlyFragmentTests|StageLateFragmentTests, a.Layout, rng)
	}
}
func (d *BeginRenderingData) record(e Executor) { e.BeginRendering(&d.RenderingInfo) }

// resumed returns a copy whose attachments load their previous contents,
// used when a scope is split around a dependent command.
func (d *BeginRenderingData) resumed() *BeginRenderingData {
	out := &BeginRenderingData{RenderingInfo: d.RenderingInfo}
	out.ColorAttachments = make([]RenderingAttachment, len(d.ColorAttachments))
	for i, a := range d.ColorAttachments {
		a.LoadOp = LoadOpLoad
		out.ColorAttachments[i] = a
	}
	if d.DepthAttachment != nil {
		depth := *d.DepthAttachment
		depth.LoadOp = LoadOpLoad
		out.DepthAttachment = &depth
	}
	return out
}

// ClearAttachmentsData clears regions of the bound attachments.
type ClearAttachmentsData struct {
	Attachments []ClearAttachment
	Rects       []ClearRect
}

func (*ClearAttachmentsData) Kind() NodeKind        { return NodeClearAttachments }
func (*ClearAttachmentsData) buildLinks(*linkBuilder) {}
func (d *ClearAttachmentsData) record(e Executor)   { e.ClearAttachments(d.Attachments, d.Rects) }

// EndRenderingData closes the open rendering scope.
type EndRenderingData struct{}

func (*EndRenderingData) Kind() NodeKind        { return NodeEndRendering }
func (*EndRenderingData) buildLinks(*linkBuilder) {}
func (*EndRenderingData) record(e Executor)     { e.EndRendering() }

// CopyBufferData copies regions between buffers.
type CopyBufferData struct {
	Src, Dst Handle
	Regions  []BufferCopy
}

func (*CopyBufferData) Kind() NodeKind { return NodeCopyBuffer }
func (d *CopyBufferData) buildLinks(b *linkBuilder) {
	b.buffer(d.Src, AccessTransferRead, StageTransfer)
	b.buffer(d.Dst, AccessTransferWrite, StageTransfer)
}
func (d *CopyBufferData) record(e Executor) { e.CopyBuffer(d.Src, d.Dst, d.Regions) }

// CopyImageData copies regions between images.
type CopyImageData struct {
	Src, Dst Handle
	Regions  []ImageCopy
}

func (*CopyImageData) Kind() NodeKind { return NodeCopyImage }
func (d *CopyImageData) buildLinks(b *linkBuilder) {
	for _, r := range d.Regions {
		b.image(d.Src, AccessTransferRead, StageTransfer, LayoutTransferSrcOptimal, r.SrcSubresource.Range())
		b.image(d.Dst, AccessTransferWrite, StageTransfer, LayoutTransferDstOptimal, r.DstSubresource.Range())
	}
}
func (d *CopyImageData) record(e Executor) {
	e.CopyImage(d.Src, LayoutTransferSrcOptimal, d.Dst, LayoutTransferDstOptimal, d.Regions)
}

// BlitImageData scales regions between images.
type BlitImageData struct {
	Src, Dst Handle
	Regions  []ImageBlit
	Filter   Filter
}

func (*BlitImageData) Kind() NodeKind { return NodeBlitImage }
func (d *BlitImageData) buildLinks(b *linkBuilder) {
	for _, r := range d.Regions {
		b.image(d.Src, AccessTransferRead, StageTransfer, LayoutTransferSrcOptimal, r.SrcSubresource.Range())
		b.image(d.Dst, AccessTransferWrite, StageTransfer, LayoutTransferDstOptimal, r.DstSubresource.Range())
	}
}
func (d *BlitImageData) record(e Executor) {
	e.BlitImage(d.Src, LayoutTransferSrcOptimal, d.Dst, LayoutTransferDstOptimal, d.Regions, d.Filter)
}

// CopyBufferToImageData uploads buffer contents into an image.
type CopyBufferToImageData struct {
	Src     Handle // buffer
	Dst     Handle // image
	Regions []BufferImageCopy
}

func (*CopyBufferToImageData) Kind() NodeKind { return NodeCopyBufferToImage }
func (d *CopyBufferToImageData) buildLinks(b *linkBuilder) {
	b.buffer(d.Src, AccessTransferRead, StageTransfer)
	for _, r := range d.Regions {
		b.image(d.Dst, AccessTransferWrite, StageTransfer, LayoutTransferDstOptimal, r.ImageSubresource.Range())
	}
}
func (d *CopyBufferToImageData) record(e Executor) {
	e.CopyBufferToImage(d.Src, d.Dst, LayoutTransferDstOptimal, d.Regions)
}

// CopyImageToBufferData reads image contents back into a buffer.
type CopyImageToBufferData struct {
	Src     Handle // image
	Dst     Handle // buffer
	Regions []BufferImageCopy
}

func (*CopyImageToBufferData) Kind() NodeKind { return NodeCopyImageToBuffer }
func (d *CopyImageToBufferData) buildLinks(b *linkBuilder) {
	for _, r := range d.Regions {
		b.image(d.Src, AccessTransferRead, StageTransfer, LayoutTransferSrcOptimal, r.ImageSubresource.Range())
	}
	b.buffer(d.Dst, AccessTransferWrite, StageTransfer)
}
func (d *CopyImageToBufferData) record(e Executor) {
	e.CopyImageToBuffer(d.Src, LayoutTransferSrcOptimal, d.Dst, d.Regions)
}

// FillBufferData fills a buffer range with a repeated 32-bit word.
type FillBufferData struct {
	Buffer Handle
	Offset uint64
	Size   uint64
	Data   uint32
}

func (*FillBufferData) Kind() NodeKind { return NodeFillBuffer }
func (d *FillBufferData) buildLinks(b *linkBuilder) {
	b.buffer(d.Buffer, AccessTransferWrite, StageTransfer)
}
func (d *FillBufferData) record(e Executor) { e.FillBuffer(d.Buffer, d.Offset, d.Size, d.Data) }

// UpdateBufferData writes inline data into a buffer.
type UpdateBufferData struct {
	Buffer Handle
	Offset uint64
	Data   []byte
}

func (*UpdateBufferData) Kind() NodeKind { return NodeUpdateBuffer }
func (d *UpdateBufferData) buildLinks(b *linkBuilder) {
	b.buffer(d.Buffer, AccessTransferWrite, StageTransfer)
}
func (d *UpdateBufferData) record(e Executor) { e.UpdateBuffer(d.Buffer, d.Offset, d.Data) }

// ClearColorImageData clears ranges of a color image outside rendering.
type ClearColorImageData struct {
	Image  Handle
	Color  ClearColorValue
	Ranges []ImageSubresourceRange
}

func (*ClearColorImageData) Kind() NodeKind { return NodeClearColorImage }
func (d *ClearColorImageData) buildLinks(b *linkBuilder) {
	for _, r := range d.ranges() {
		b.image(d.Image, AccessTransferWrite, StageTransfer, LayoutTransferDstOptimal, r)
	}
}
func (d *ClearColorImageData) record(e Executor) {
	e.ClearColorImage(d.Image, LayoutTransferDstOptimal, d.Color, d.ranges())
}
func (d *ClearColorImageData) ranges() []ImageSubresourceRange {
	if len(d.Ranges) == 0 {
		return []ImageSubresourceRange{WholeImage(AspectColor)}
	}
	return d.Ranges
}

// ClearDepthStencilImageData clears ranges of a depth/stencil image.
type ClearDepthStencilImageData struct {
	Image  Handle
	Value  ClearDepthStencilValue
	Ranges []ImageSubresourceRange
}

func (*ClearDepthStencilImageData) Kind() NodeKind { return NodeClearDepthStencilImage }
func (d *ClearDepthStencilImageData) buildLinks(b *linkBuilder) {
	for _, r := range d.ranges() {
		b.image(d.Image, AccessTransferWrite, StageTransfer, LayoutTransferDstOptimal, r)
	}
}
func (d *ClearDepthStencilImageData) record(e Executor) {
	e.ClearDepthStencilImage(d.Image, LayoutTransferDstOptimal, d.Value, d.ranges())
}
func (d *ClearDepthStencilImageData) ranges() []ImageSubresourceRange {
	if len(d.Ranges) == 0 {
		return []ImageSubresourceRange{WholeImage(AspectDepth | AspectStencil)}
	}
	return d.Ranges
}

// SynchronizationData transitions an image to Layout for a consumer outside
// the graph, such as the presentation engine. It issues no command of its
// own; the barrier is the whole effect.
type SynchronizationData struct {
	Image  Handle
	Layout ImageLayout
	Aspect ImageAspectFlags
}

func (*SynchronizationData) Kind() NodeKind { return NodeSynchronization }
func (d *SynchronizationData) buildLinks(b *linkBuilder) {
	aspect := d.Aspect
	if aspect == 0 {
		aspect = AspectColor
	}
	b.image(d.Image, AccessNone, StageBottomOfPipe, d.Layout, WholeImage(aspect))
	b.links[len(b.links)-1].Transition = true
}
func (*SynchronizationData) record(Executor) {}
