package rendergraph

// BufferMemoryBarrier mirrors VkBufferMemoryBarrier without queue family
// ownership transfer, which the graph never performs.
type BufferMemoryBarrier struct {
	SrcAccess AccessFlags
	DstAccess AccessFlags
	Buffer    Handle
	Offset    uint64
	// Size is WholeSize for the entire buffer.
	Size uint64
}

// WholeSize mirrors VK_WHOLE_SIZE.
const WholeSize = ^uint64(0)

// ImageMemoryBarrier mirrors VkImageMemoryBarrier without queue family
// ownership transfer.
type ImageMemoryBarrier struct {
	SrcAccess AccessFlags
	DstAccess AccessFlags
	OldLayout ImageLayout
	NewLayout ImageLayout
	Image     Handle
	Range     ImageSubresourceRange
}

// Barrier is one vkCmdPipelineBarrier call.
type Barrier struct {
	SrcStages PipelineStageFlags
	DstStages PipelineStageFlags
	Buffers   []BufferMemoryBarrier
	Images    []ImageMemoryBarrier
}

// Empty reports whether the barrier carries no buffer or image barrier.
func (b *Barrier) Empty() bool { return len(b.Buffers) == 0 && len(b.Images) == 0 }

func (b *Barrier) reset() {
	b.SrcStages, b.DstStages = 0, 0
	b.Buffers = b.Buffers[:0]
	b.Images = b.Images[:0]
}

// Executor issues the linearized command stream. Implementations wrap a
// driver command buffer or record calls for inspection.
//
// Submit calls BeginRecording first and EndRecording last, with every other
// call in between in the computed order. Slices and pointers passed to an
// executor are only valid for the duration of the call.
//
// SubmitWithCPUSynchronization and WaitForCPUSynchronization are never
// called by Submit; callers invoke them around it.
type Executor interface {
	BeginRecording()
	EndRecording()
	SubmitWithCPUSynchronization()
	WaitForCPUSynchronization()

	BindPipeline(bindPoint PipelineBindPoint, pipeline PipelineHandle)
	BindDescriptorSets(bindPoint PipelineBindPoint, layout PipelineLayoutHandle, firstSet uint32, sets []DescriptorSetHandle)
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect2D)

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndirect(buffer Handle, offset uint64, drawCount, stride uint32)
	Dispatch(groupCountX, groupCountY, groupCountZ uint32)
	DispatchIndirect(buffer Handle, offset uint64)

	CopyBuffer(src, dst Handle, regions []BufferCopy)
	CopyImage(src Handle, srcLayout ImageLayout, dst Handle, dstLayout ImageLayout, regions []ImageCopy)
	BlitImage(src Handle, srcLayout ImageLayout, dst Handle, dstLayout ImageLayout, regions []ImageBlit, filter Filter)
	CopyBufferToImage(src, dst Handle, dstLayout ImageLayout, regions []BufferImageCopy)
	CopyImageToBuffer(src Handle, srcLayout ImageLayout, dst Handle, regions []BufferImageCopy)
	FillBuffer(buffer Handle, offset, size uint64, data uint32)
	UpdateBuffer(buffer Handle, offset uint64, data []byte)
	ClearColorImage(image Handle, layout ImageLayout, color ClearColorValue, ranges []ImageSubresourceRange)
	ClearDepthStencilImage(image Handle, layout ImageLayout, value ClearDepthStencilValue, ranges []ImageSubresourceRange)
	ClearAttachments(attachments []ClearAttachment, rects []ClearRect)

	PipelineBarrier(barrier *Barrier)
	BeginRendering(info *RenderingInfo)
	EndRendering()
}
