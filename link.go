package rendergraph

import "github.com/gogpu/rendergraph/internal/subrange"

// Link is one resource access declared by a node.
type Link struct {
	Resource Handle
	Kind     ResourceKind
	Access   AccessFlags
	Stage    PipelineStageFlags

	// Image-only fields.
	Layout ImageLayout
	Aspect ImageAspectFlags
	Range  ImageSubresourceRange

	// Transition forces a barrier even when the tracked state already
	// matches. Synchronization nodes set it.
	Transition bool
}

// IsInput reports whether the link reads the resource.
func (l Link) IsInput() bool { return l.Access.Reads() != 0 }

// IsOutput reports whether the link writes the resource. Layout-only
// transitions count as writes.
func (l Link) IsOutput() bool { return l.Access.IsWrite() || l.Transition }

// Overlaps reports whether l and o touch a common part of the same
// resource. Image ranges are compared as declared; aspects are ignored.
func (l Link) Overlaps(o Link) bool {
	if l.Resource != o.Resource {
		return false
	}
	if l.Kind == ResourceBuffer || o.Kind == ResourceBuffer {
		return true
	}
	return rangeRect(l.Range).Overlaps(rangeRect(o.Range))
}

// Conflicts reports whether l and o overlap and at least one writes, so
// their nodes must stay ordered.
func (l Link) Conflicts(o Link) bool {
	return (l.IsOutput() || o.IsOutput()) && l.Overlaps(o)
}

func rangeRect(r ImageSubresourceRange) subrange.Rect {
	return subrange.Rect{
		Mips:   subrange.NewSpan(r.BaseMipLevel, r.LevelCount),
		Layers: subrange.NewSpan(r.BaseArrayLayer, r.LayerCount),
	}
}

// isAttachment reports whether the link only touches the resource as a
// render-pass attachment. Rasterization order covers those accesses
// between draws of one scope.
func (l Link) isAttachment() bool {
	return l.Access != 0 && l.Access&^accessAttachmentMask == 0
}

// BufferAccess declares how a node touches a buffer.
type BufferAccess struct {
	Buffer Handle
	Access AccessFlags
	// Stage defaults to the node's execution stage when zero.
	Stage PipelineStageFlags
}

// ImageAccess declares how a node touches an image.
type ImageAccess struct {
	Image  Handle
	Access AccessFlags
	// Stage defaults to the node's execution stage when zero.
	Stage  PipelineStageFlags
	Layout ImageLayout
	// Range defaults to the whole image of the given aspect when its
	// LevelCount and LayerCount are both zero.
	Range ImageSubresourceRange
}

// AccessInfo enumerates the resources a draw or dispatch touches beyond the
// ones implied by its payload. The scheduler trusts these declarations.
type AccessInfo struct {
	Buffers []BufferAccess
	Images  []ImageAccess
}

// linkBuilder accumulates the links of one node.
type linkBuilder struct {
	links        []Link
	defaultStage PipelineStageFlags
}

func (b *linkBuilder) buffer(h Handle, access AccessFlags, stage PipelineStageFlags) {
	if stage == 0 {
		stage = b.defaultStage
	}
	b.links = append(b.links, Link{Resource: h, Kind: ResourceBuffer, Access: access, Stage: stage})
}

func (b *linkBuilder) image(h Handle, access AccessFlags, stage PipelineStageFlags, layout ImageLayout, rng ImageSubresourceRange) {
	if stage == 0 {
		stage = b.defaultStage
	}
	if rng.LevelCount == 0 && rng.LayerCount == 0 {
		rng = WholeImage(rng.AspectMask)
	}
	b.links = append(b.links, Link{
		Resource: h,
		Kind:     ResourceImage,
		Access:   access,
		Stage:    stage,
		Layout:   layout,
		Aspect:   rng.AspectMask,
		Range:    rng,
	})
}

func (b *linkBuilder) accessInfo(info AccessInfo) {
	for _, a := range info.Buffers {
		b.buffer(a.Buffer, a.Access, a.Stage)
	}
	for _, a := range info.Images {
		b.image(a.Image, a.Access, a.Stage, a.Layout, a.Range)
	}
}
