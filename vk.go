package rendergraph

import (
	"fmt"
	"strings"
)

// The enums in this file carry the exact bit values of their Vulkan
// counterparts so executors can pass them to the driver unchanged.

// AccessFlags is a VkAccessFlags bit set.
type AccessFlags uint32

// Access bits.
const (
	AccessIndirectCommandRead         AccessFlags = 0x00000001
	AccessIndexRead                   AccessFlags = 0x00000002
	AccessVertexAttributeRead         AccessFlags = 0x00000004
	AccessUniformRead                 AccessFlags = 0x00000008
	AccessInputAttachmentRead         AccessFlags = 0x00000010
	AccessShaderRead                  AccessFlags = 0x00000020
	AccessShaderWrite                 AccessFlags = 0x00000040
	AccessColorAttachmentRead         AccessFlags = 0x00000080
	AccessColorAttachmentWrite        AccessFlags = 0x00000100
	AccessDepthStencilAttachmentRead  AccessFlags = 0x00000200
	AccessDepthStencilAttachmentWrite AccessFlags = 0x00000400
	AccessTransferRead                AccessFlags = 0x00000800
	AccessTransferWrite               AccessFlags = 0x00001000
	AccessHostRead                    AccessFlags = 0x00002000
	AccessHostWrite                   AccessFlags = 0x00004000
	AccessMemoryRead                  AccessFlags = 0x00008000
	AccessMemoryWrite                 AccessFlags = 0x00010000
	AccessNone                        AccessFlags = 0
)

const (
	accessReadMask = AccessIndirectCommandRead | AccessIndexRead | AccessVertexAttributeRead |
		AccessUniformRead | AccessInputAttachmentRead | AccessShaderRead | AccessColorAttachmentRead |
		AccessDepthStencilAttachmentRead | AccessTransferRead | AccessHostRead | AccessMemoryRead
	accessWriteMask = AccessShaderWrite | AccessColorAttachmentWrite | AccessDepthStencilAttachmentWrite |
		AccessTransferWrite | AccessHostWrite | AccessMemoryWrite
	accessAttachmentMask = AccessColorAttachmentRead | AccessColorAttachmentWrite |
		AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite | AccessInputAttachmentRead
)

var accessNames = []struct {
	bit  AccessFlags
	name string
}{
	{AccessIndirectCommandRead, "INDIRECT_COMMAND_READ"},
	{AccessIndexRead, "INDEX_READ"},
	{AccessVertexAttributeRead, "VERTEX_ATTRIBUTE_READ"},
	{AccessUniformRead, "UNIFORM_READ"},
	{AccessInputAttachmentRead, "INPUT_ATTACHMENT_READ"},
	{AccessShaderRead, "SHADER_READ"},
	{AccessShaderWrite, "SHADER_WRITE"},
	{AccessColorAttachmentRead, "COLOR_ATTACHMENT_READ"},
	{AccessColorAttachmentWrite, "COLOR_ATTACHMENT_WRITE"},
	{AccessDepthStencilAttachmentRead, "DEPTH_STENCIL_ATTACHMENT_READ"},
	{AccessDepthStencilAttachmentWrite, "DEPTH_STENCIL_ATTACHMENT_WRITE"},
	{AccessTransferRead, "TRANSFER_READ"},
	{AccessTransferWrite, "TRANSFER_WRITE"},
	{AccessHostRead, "HOST_READ"},
	{AccessHostWrite, "HOST_WRITE"},
	{AccessMemoryRead, "MEMORY_READ"},
	{AccessMemoryWrite, "MEMORY_WRITE"},
}

// Reads returns the read bits of a.
func (a AccessFlags) Reads() AccessFlags { return a & accessReadMask }

// Writes returns the write bits of a.
func (a AccessFlags) Writes() AccessFlags { return a & accessWriteMask }

// IsWrite reports whether a contains any write bit.
func (a AccessFlags) IsWrite() bool { return a&accessWriteMask != 0 }

// Contains reports whether every bit of b is set in a.
func (a AccessFlags) Contains(b AccessFlags) bool { return a&b == b }

// String returns the bits joined with '|', or "NONE".
func (a AccessFlags) String() string {
	if a == 0 {
		return "NONE"
	}
	var parts []string
	rest := a
	for _, n := range accessNames {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseAccessFlags parses the String form: names joined with '|', or
// "NONE". Names are case-insensitive.
func ParseAccessFlags(s string) (AccessFlags, error) {
	var out AccessFlags
	err := parseBits(s, func(name string) bool {
		for _, n := range accessNames {
			if strings.EqualFold(n.name, name) {
				out |= n.bit
				return true
			}
		}
		return false
	})
	if err != nil {
		return 0, fmt.Errorf("access flags: %w", err)
	}
	return out, nil
}

// parseBits splits s on '|' and hands every trimmed name to set. "NONE"
// and the empty string set nothing.
func parseBits(s string, set func(name string) bool) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NONE") {
		return nil
	}
	for name := range strings.SplitSeq(s, "|") {
		name = strings.TrimSpace(name)
		if !set(name) {
			return fmt.Errorf("unknown name %q", name)
		}
	}
	return nil
}

// PipelineStageFlags is a VkPipelineStageFlags bit set.
type PipelineStageFlags uint32

// Pipeline stage bits.
const (
	StageTopOfPipe                    PipelineStageFlags = 0x00000001
	StageDrawIndirect                 PipelineStageFlags = 0x00000002
	StageVertexInput                  PipelineStageFlags = 0x00000004
	StageVertexShader                 PipelineStageFlags = 0x00000008
	StageTessellationControlShader    PipelineStageFlags = 0x00000010
	StageTessellationEvaluationShader PipelineStageFlags = 0x00000020
	StageGeometryShader               PipelineStageFlags = 0x00000040
	StageFragmentShader               PipelineStageFlags = 0x00000080
	StageEarlyFragmentTests           PipelineStageFlags = 0x00000100
	StageLateFragmentTests            PipelineStageFlags = 0x00000200
	StageColorAttachmentOutput        PipelineStageFlags = 0x00000400
	StageComputeShader                PipelineStageFlags = 0x00000800
	StageTransfer                     PipelineStageFlags = 0x00001000
	StageBottomOfPipe                 PipelineStageFlags = 0x00002000
	StageHost                         PipelineStageFlags = 0x00004000
	StageAllGraphics                  PipelineStageFlags = 0x00008000
	StageAllCommands                  PipelineStageFlags = 0x00010000
	StageNone                         PipelineStageFlags = 0
)

var stageNames = []struct {
	bit  PipelineStageFlags
	name string
}{
	{StageTopOfPipe, "TOP_OF_PIPE"},
	{StageDrawIndirect, "DRAW_INDIRECT"},
	{StageVertexInput, "VERTEX_INPUT"},
	{StageVertexShader, "VERTEX_SHADER"},
	{StageTessellationControlShader, "TESSELLATION_CONTROL_SHADER"},
	{StageTessellationEvaluationShader, "TESSELLATION_EVALUATION_SHADER"},
	{StageGeometryShader, "GEOMETRY_SHADER"},
	{StageFragmentShader, "FRAGMENT_SHADER"},
	{StageEarlyFragmentTests, "EARLY_FRAGMENT_TESTS"},
	{StageLateFragmentTests, "LATE_FRAGMENT_TESTS"},
	{StageColorAttachmentOutput, "COLOR_ATTACHMENT_OUTPUT"},
	{StageComputeShader, "COMPUTE_SHADER"},
	{StageTransfer, "TRANSFER"},
	{StageBottomOfPipe, "BOTTOM_OF_PIPE"},
	{StageHost, "HOST"},
	{StageAllGraphics, "ALL_GRAPHICS"},
	{StageAllCommands, "ALL_COMMANDS"},
}

// Contains reports whether every bit of b is set in s.
func (s PipelineStageFlags) Contains(b PipelineStageFlags) bool { return s&b == b }

// String returns the bits joined with '|', or "NONE".
func (s PipelineStageFlags) String() string {
	if s == 0 {
		return "NONE"
	}
	var parts []string
	rest := s
	for _, n := range stageNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParsePipelineStageFlags parses the String form.
func ParsePipelineStageFlags(s string) (PipelineStageFlags, error) {
	var out PipelineStageFlags
	err := parseBits(s, func(name string) bool {
		for _, n := range stageNames {
			if strings.EqualFold(n.name, name) {
				out |= n.bit
				return true
			}
		}
		return false
	})
	if err != nil {
		return 0, fmt.Errorf("pipeline stages: %w", err)
	}
	return out, nil
}

// ImageLayout is a VkImageLayout value.
type ImageLayout int32

// Image layouts.
const (
	LayoutUndefined                     ImageLayout = 0
	LayoutGeneral                       ImageLayout = 1
	LayoutColorAttachmentOptimal        ImageLayout = 2
	LayoutDepthStencilAttachmentOptimal ImageLayout = 3
	LayoutDepthStencilReadOnlyOptimal   ImageLayout = 4
	LayoutShaderReadOnlyOptimal         ImageLayout = 5
	LayoutTransferSrcOptimal            ImageLayout = 6
	LayoutTransferDstOptimal            ImageLayout = 7
	LayoutPreinitialized                ImageLayout = 8
	LayoutPresentSrc                    ImageLayout = 1000001002
)

var layoutNames = map[ImageLayout]string{
	LayoutUndefined:                     "UNDEFINED",
	LayoutGeneral:                       "GENERAL",
	LayoutColorAttachmentOptimal:        "COLOR_ATTACHMENT_OPTIMAL",
	LayoutDepthStencilAttachmentOptimal: "DEPTH_STENCIL_ATTACHMENT_OPTIMAL",
	LayoutDepthStencilReadOnlyOptimal:   "DEPTH_STENCIL_READ_ONLY_OPTIMAL",
	LayoutShaderReadOnlyOptimal:         "SHADER_READ_ONLY_OPTIMAL",
	LayoutTransferSrcOptimal:            "TRANSFER_SRC_OPTIMAL",
	LayoutTransferDstOptimal:            "TRANSFER_DST_OPTIMAL",
	LayoutPreinitialized:                "PREINITIALIZED",
	LayoutPresentSrc:                    "PRESENT_SRC_KHR",
}

// String returns the Vulkan enumerator name without its prefix.
func (l ImageLayout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("ImageLayout(%d)", int32(l))
}

// ParseImageLayout is the inverse of ImageLayout.String.
func ParseImageLayout(s string) (ImageLayout, bool) {
	for l, name := range layoutNames {
		if strings.EqualFold(name, s) {
			return l, true
		}
	}
	return LayoutUndefined, false
}

// ImageAspectFlags is a VkImageAspectFlags bit set.
type ImageAspectFlags uint32

// Image aspect bits.
const (
	AspectColor   ImageAspectFlags = 0x1
	AspectDepth   ImageAspectFlags = 0x2
	AspectStencil ImageAspectFlags = 0x4
)

// String returns the aspects joined with '|'.
func (a ImageAspectFlags) String() string {
	if a == 0 {
		return "NONE"
	}
	var parts []string
	if a&AspectColor != 0 {
		parts = append(parts, "COLOR")
	}
	if a&AspectDepth != 0 {
		parts = append(parts, "DEPTH")
	}
	if a&AspectStencil != 0 {
		parts = append(parts, "STENCIL")
	}
	return strings.Join(parts, "|")
}

// ParseImageAspectFlags parses the String form.
func ParseImageAspectFlags(s string) (ImageAspectFlags, error) {
	var out ImageAspectFlags
	err := parseBits(s, func(name string) bool {
		switch strings.ToUpper(name) {
		case "COLOR":
			out |= AspectColor
		case "DEPTH":
			out |= AspectDepth
		case "STENCIL":
			out |= AspectStencil
		default:
			return false
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("image aspects: %w", err)
	}
	return out, nil
}

// Sentinel counts meaning "all remaining levels/layers".
const (
	RemainingMipLevels   = ^uint32(0)
	RemainingArrayLayers = ^uint32(0)
)

// ImageSubresourceRange mirrors VkImageSubresourceRange.
type ImageSubresourceRange struct {
	AspectMask     ImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// WholeImage returns the range covering every mip level and layer of aspect.
func WholeImage(aspect ImageAspectFlags) ImageSubresourceRange {
	return ImageSubresourceRange{
		AspectMask: aspect,
		LevelCount: RemainingMipLevels,
		LayerCount: RemainingArrayLayers,
	}
}

func (r ImageSubresourceRange) String() string {
	count := func(n uint32) string {
		if n == ^uint32(0) {
			return "*"
		}
		return fmt.Sprint(n)
	}
	return fmt.Sprintf("%s mip[%d+%s] layer[%d+%s]", r.AspectMask,
		r.BaseMipLevel, count(r.LevelCount), r.BaseArrayLayer, count(r.LayerCount))
}

// ImageSubresourceLayers mirrors VkImageSubresourceLayers.
type ImageSubresourceLayers struct {
	AspectMask     ImageAspectFlags
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Range widens l to a subresource range of one mip level.
func (l ImageSubresourceLayers) Range() ImageSubresourceRange {
	return ImageSubresourceRange{
		AspectMask:     l.AspectMask,
		BaseMipLevel:   l.MipLevel,
		LevelCount:     1,
		BaseArrayLayer: l.BaseArrayLayer,
		LayerCount:     l.LayerCount,
	}
}

// Offset3D mirrors VkOffset3D.
type Offset3D struct{ X, Y, Z int32 }

// Extent3D mirrors VkExtent3D.
type Extent3D struct{ Width, Height, Depth uint32 }

// Offset2D mirrors VkOffset2D.
type Offset2D struct{ X, Y int32 }

// Extent2D mirrors VkExtent2D.
type Extent2D struct{ Width, Height uint32 }

// Rect2D mirrors VkRect2D.
type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

// Viewport mirrors VkViewport.
type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// BufferCopy mirrors VkBufferCopy.
type BufferCopy struct {
	SrcOffset, DstOffset, Size uint64
}

// ImageCopy mirrors VkImageCopy.
type ImageCopy struct {
	SrcSubresource ImageSubresourceLayers
	SrcOffset      Offset3D
	DstSubresource ImageSubresourceLayers
	DstOffset      Offset3D
	Extent         Extent3D
}

// ImageBlit mirrors VkImageBlit.
type ImageBlit struct {
	SrcSubresource ImageSubresourceLayers
	SrcOffsets     [2]Offset3D
	DstSubresource ImageSubresourceLayers
	DstOffsets     [2]Offset3D
}

// BufferImageCopy mirrors VkBufferImageCopy.
type BufferImageCopy struct {
	BufferOffset      uint64
	BufferRowLength   uint32
	BufferImageHeight uint32
	ImageSubresource  ImageSubresourceLayers
	ImageOffset       Offset3D
	ImageExtent       Extent3D
}

// ClearColorValue mirrors VkClearColorValue. Only the float view is modelled;
// integer formats reinterpret the bits.
type ClearColorValue struct {
	Float32 [4]float32
}

// ClearDepthStencilValue mirrors VkClearDepthStencilValue.
type ClearDepthStencilValue struct {
	Depth   float32
	Stencil uint32
}

// ClearAttachment mirrors VkClearAttachment.
type ClearAttachment struct {
	AspectMask      ImageAspectFlags
	ColorAttachment uint32
	Color           ClearColorValue
	DepthStencil    ClearDepthStencilValue
}

// ClearRect mirrors VkClearRect.
type ClearRect struct {
	Rect           Rect2D
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Filter mirrors VkFilter.
type Filter int32

// Filters.
const (
	FilterNearest Filter = 0
	FilterLinear  Filter = 1
)

// AttachmentLoadOp mirrors VkAttachmentLoadOp.
type AttachmentLoadOp int32

// Load ops.
const (
	LoadOpLoad     AttachmentLoadOp = 0
	LoadOpClear    AttachmentLoadOp = 1
	LoadOpDontCare AttachmentLoadOp = 2
)

// AttachmentStoreOp mirrors VkAttachmentStoreOp.
type AttachmentStoreOp int32

// Store ops.
const (
	StoreOpStore    AttachmentStoreOp = 0
	StoreOpDontCare AttachmentStoreOp = 1
)

// PipelineBindPoint mirrors VkPipelineBindPoint.
type PipelineBindPoint int32

// Bind points.
const (
	BindPointGraphics PipelineBindPoint = 0
	BindPointCompute  PipelineBindPoint = 1
)

func (p PipelineBindPoint) String() string {
	switch p {
	case BindPointGraphics:
		return "GRAPHICS"
	case BindPointCompute:
		return "COMPUTE"
	}
	return fmt.Sprintf("PipelineBindPoint(%d)", int32(p))
}
