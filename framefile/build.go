package framefile

import (
	"encoding/hex"
	"fmt"
	"strings"

	rg "github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend"
)

// Options returns the graph options the frame asks for.
func (f *Frame) Options() ([]rg.Option, error) {
	policy, err := rg.ParseBarrierPolicy(f.Barriers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	opts := []rg.Option{rg.WithBarrierPolicy(policy), rg.WithCapacity(len(f.Nodes))}
	if f.Reorder != nil && !*f.Reorder {
		opts = append(opts, rg.WithoutReordering())
	}
	return opts, nil
}

// Resources returns the backend descriptions of the frame's resources.
func (f *Frame) Resources() []backend.Resource {
	res := make([]backend.Resource, 0, len(f.Buffers)+len(f.Images))
	for _, b := range f.Buffers {
		res = append(res, backend.Resource{
			Handle: rg.Handle(b.Handle),
			Kind:   rg.ResourceBuffer,
			Label:  b.Label,
			Size:   b.Size,
		})
	}
	for _, im := range f.Images {
		res = append(res, backend.Resource{
			Handle:    rg.Handle(im.Handle),
			Kind:      rg.ResourceImage,
			Label:     im.Label,
			Width:     im.Width,
			Height:    im.Height,
			MipLevels: im.Mips,
			Layers:    im.Layers,
			Depth:     im.Depth,
		})
	}
	return res
}

// Build creates a graph holding the frame's resources and nodes. Options
// given here are applied after the frame's own, so callers can override
// the barrier policy or share a tracker.
func (f *Frame) Build(extra ...rg.Option) (*rg.Graph, error) {
	opts, err := f.Options()
	if err != nil {
		return nil, err
	}
	g := rg.New(append(opts, extra...)...)
	b := builder{kinds: make(map[rg.Handle]rg.ResourceKind)}
	for _, buf := range f.Buffers {
		h := rg.Handle(buf.Handle)
		if err := b.declare(h, rg.ResourceBuffer, buf.Label); err != nil {
			return nil, err
		}
		if !g.Tracker().Contains(h) {
			g.AddBuffer(h)
		}
	}
	for _, im := range f.Images {
		h := rg.Handle(im.Handle)
		if err := b.declare(h, rg.ResourceImage, im.Label); err != nil {
			return nil, err
		}
		if !g.Tracker().Contains(h) {
			g.AddImage(h, im.Layered)
		}
	}
	for i, n := range f.Nodes {
		info, err := b.node(n)
		if err != nil {
			return nil, fmt.Errorf("framefile: node %d (%s): %w", i, n.Kind, err)
		}
		g.AddNode(info)
	}
	return g, nil
}

type builder struct {
	kinds map[rg.Handle]rg.ResourceKind
}

func (b *builder) declare(h rg.Handle, kind rg.ResourceKind, label string) error {
	if h == 0 {
		return fmt.Errorf("%w: %s has no handle", ErrInvalid, label)
	}
	if _, ok := b.kinds[h]; ok {
		return fmt.Errorf("%w: handle %#x (%s) declared twice", ErrInvalid, uint64(h), label)
	}
	b.kinds[h] = kind
	return nil
}

func (b *builder) buffer(h uint64) (rg.Handle, error) {
	return b.resource(h, rg.ResourceBuffer)
}

func (b *builder) image(h uint64) (rg.Handle, error) {
	return b.resource(h, rg.ResourceImage)
}

func (b *builder) resource(h uint64, want rg.ResourceKind) (rg.Handle, error) {
	kind, ok := b.kinds[rg.Handle(h)]
	if !ok {
		return 0, fmt.Errorf("%w: %#x", ErrUndeclared, h)
	}
	if kind != want {
		return 0, fmt.Errorf("%w: %#x is not a %s", ErrInvalid, h, kindName(want))
	}
	return rg.Handle(h), nil
}

func kindName(k rg.ResourceKind) string {
	if k == rg.ResourceBuffer {
		return "buffer"
	}
	return "image"
}

func (b *builder) node(n Node) (rg.CreateInfo, error) {
	kind, ok := rg.ParseNodeKind(n.Kind)
	if !ok {
		return rg.CreateInfo{}, fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}
	data, err := b.data(kind, n)
	if err != nil {
		return rg.CreateInfo{}, err
	}
	access, err := b.access(n.Access)
	if err != nil {
		return rg.CreateInfo{}, err
	}
	return rg.CreateInfo{Data: data, Access: access, Label: n.Label}, nil
}

func (b *builder) data(kind rg.NodeKind, n Node) (rg.NodeData, error) {
	switch kind {
	case rg.NodeDispatch:
		if len(n.Groups) != 3 {
			return nil, fmt.Errorf("%w: groups needs x, y and z", ErrInvalid)
		}
		return &rg.DispatchData{
			Pipeline:    pipeline(n),
			GroupCountX: n.Groups[0], GroupCountY: n.Groups[1], GroupCountZ: n.Groups[2],
		}, nil
	case rg.NodeDispatchIndirect:
		buf, err := b.buffer(n.Buffer)
		if err != nil {
			return nil, err
		}
		return &rg.DispatchIndirectData{Pipeline: pipeline(n), Buffer: buf, Offset: n.Offset}, nil
	case rg.NodeDraw:
		return &rg.DrawData{
			Pipeline:      pipeline(n),
			Viewport:      viewport(n.Viewport),
			Scissor:       rect(n.Scissor),
			VertexCount:   n.Vertices,
			InstanceCount: max(n.Instances, 1),
			FirstVertex:   n.FirstVertex,
			FirstInstance: n.FirstInstance,
		}, nil
	case rg.NodeDrawIndirect:
		buf, err := b.buffer(n.Buffer)
		if err != nil {
			return nil, err
		}
		return &rg.DrawIndirectData{
			Pipeline:  pipeline(n),
			Viewport:  viewport(n.Viewport),
			Scissor:   rect(n.Scissor),
			Buffer:    buf,
			Offset:    n.Offset,
			DrawCount: max(n.DrawCount, 1),
			Stride:    n.Stride,
		}, nil
	case rg.NodeBeginRendering:
		return b.beginRendering(n)
	case rg.NodeClearAttachments:
		return clearAttachments(n)
	case rg.NodeEndRendering:
		return &rg.EndRenderingData{}, nil
	case rg.NodeCopyBuffer:
		src, dst, err := b.pair(n, rg.ResourceBuffer, rg.ResourceBuffer)
		if err != nil {
			return nil, err
		}
		d := &rg.CopyBufferData{Src: src, Dst: dst}
		for _, r := range n.Regions {
			d.Regions = append(d.Regions, rg.BufferCopy{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size})
		}
		return d, nil
	case rg.NodeCopyImage:
		src, dst, err := b.pair(n, rg.ResourceImage, rg.ResourceImage)
		if err != nil {
			return nil, err
		}
		d := &rg.CopyImageData{Src: src, Dst: dst}
		for _, r := range n.Regions {
			srcLayers, dstLayers, err := regionLayers(r)
			if err != nil {
				return nil, err
			}
			d.Regions = append(d.Regions, rg.ImageCopy{
				SrcSubresource: srcLayers,
				DstSubresource: dstLayers,
				Extent:         extent(r),
			})
		}
		return d, nil
	case rg.NodeBlitImage:
		src, dst, err := b.pair(n, rg.ResourceImage, rg.ResourceImage)
		if err != nil {
			return nil, err
		}
		filter := rg.FilterLinear
		switch strings.ToLower(n.Filter) {
		case "", "linear":
		case "nearest":
			filter = rg.FilterNearest
		default:
			return nil, fmt.Errorf("%w: filter %q", ErrInvalid, n.Filter)
		}
		d := &rg.BlitImageData{Src: src, Dst: dst, Filter: filter}
		for _, r := range n.Regions {
			srcLayers, dstLayers, err := regionLayers(r)
			if err != nil {
				return nil, err
			}
			dw, dh := r.DstWidth, r.DstHeight
			if dw == 0 && dh == 0 {
				dw, dh = r.Width, r.Height
			}
			d.Regions = append(d.Regions, rg.ImageBlit{
				SrcSubresource: srcLayers,
				SrcOffsets:     [2]rg.Offset3D{{}, {X: int32(r.Width), Y: int32(r.Height), Z: 1}},
				DstSubresource: dstLayers,
				DstOffsets:     [2]rg.Offset3D{{}, {X: int32(dw), Y: int32(dh), Z: 1}},
			})
		}
		return d, nil
	case rg.NodeCopyBufferToImage:
		src, dst, err := b.pair(n, rg.ResourceBuffer, rg.ResourceImage)
		if err != nil {
			return nil, err
		}
		regions, err := bufferImageRegions(n.Regions, false)
		if err != nil {
			return nil, err
		}
		return &rg.CopyBufferToImageData{Src: src, Dst: dst, Regions: regions}, nil
	case rg.NodeCopyImageToBuffer:
		src, dst, err := b.pair(n, rg.ResourceImage, rg.ResourceBuffer)
		if err != nil {
			return nil, err
		}
		regions, err := bufferImageRegions(n.Regions, true)
		if err != nil {
			return nil, err
		}
		return &rg.CopyImageToBufferData{Src: src, Dst: dst, Regions: regions}, nil
	case rg.NodeFillBuffer:
		buf, err := b.buffer(n.Buffer)
		if err != nil {
			return nil, err
		}
		return &rg.FillBufferData{Buffer: buf, Offset: n.Offset, Size: n.Size, Data: n.Value}, nil
	case rg.NodeUpdateBuffer:
		buf, err := b.buffer(n.Buffer)
		if err != nil {
			return nil, err
		}
		payload, err := hex.DecodeString(n.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: bytes: %v", ErrInvalid, err)
		}
		return &rg.UpdateBufferData{Buffer: buf, Offset: n.Offset, Data: payload}, nil
	case rg.NodeClearColorImage:
		img, err := b.image(n.Image)
		if err != nil {
			return nil, err
		}
		color, err := clearColor(n.Color)
		if err != nil {
			return nil, err
		}
		ranges, err := imageRanges(n.Ranges, rg.AspectColor)
		if err != nil {
			return nil, err
		}
		return &rg.ClearColorImageData{Image: img, Color: color, Ranges: ranges}, nil
	case rg.NodeClearDepthStencilImage:
		img, err := b.image(n.Image)
		if err != nil {
			return nil, err
		}
		ranges, err := imageRanges(n.Ranges, rg.AspectDepth|rg.AspectStencil)
		if err != nil {
			return nil, err
		}
		return &rg.ClearDepthStencilImageData{
			Image:  img,
			Value:  rg.ClearDepthStencilValue{Depth: n.Depth, Stencil: n.Stencil},
			Ranges: ranges,
		}, nil
	case rg.NodeSynchronization:
		img, err := b.image(n.Image)
		if err != nil {
			return nil, err
		}
		layout, err := parseLayout(n.Layout, rg.LayoutPresentSrc)
		if err != nil {
			return nil, err
		}
		aspect, err := rg.ParseImageAspectFlags(n.Aspect)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return &rg.SynchronizationData{Image: img, Layout: layout, Aspect: aspect}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

func (b *builder) pair(n Node, srcKind, dstKind rg.ResourceKind) (rg.Handle, rg.Handle, error) {
	src, err := b.resource(n.Src, srcKind)
	if err != nil {
		return 0, 0, err
	}
	dst, err := b.resource(n.Dst, dstKind)
	if err != nil {
		return 0, 0, err
	}
	return src, dst, nil
}

func (b *builder) beginRendering(n Node) (*rg.BeginRenderingData, error) {
	d := &rg.BeginRenderingData{}
	d.LayerCount = 1
	if n.Area != nil {
		d.RenderArea = *rect(n.Area)
	}
	for _, a := range n.ColorAttachments {
		att, err := b.attachment(a, rg.AspectColor, rg.LayoutColorAttachmentOptimal)
		if err != nil {
			return nil, err
		}
		d.ColorAttachments = append(d.ColorAttachments, att)
	}
	if n.DepthAttachment != nil {
		att, err := b.attachment(*n.DepthAttachment, rg.AspectDepth|rg.AspectStencil, rg.LayoutDepthStencilAttachmentOptimal)
		if err != nil {
			return nil, err
		}
		d.DepthAttachment = &att
	}
	return d, nil
}

func (b *builder) attachment(a Attachment, aspect rg.ImageAspectFlags, layout rg.ImageLayout) (rg.RenderingAttachment, error) {
	img, err := b.image(a.Image)
	if err != nil {
		return rg.RenderingAttachment{}, err
	}
	out := rg.RenderingAttachment{Image: img}
	if out.Layout, err = parseLayout(a.Layout, layout); err != nil {
		return out, err
	}
	if a.Range != nil {
		if out.Range, err = imageRange(*a.Range, aspect); err != nil {
			return out, err
		}
	} else {
		out.Range.AspectMask = aspect
	}
	switch strings.ToLower(a.Load) {
	case "", "load":
		out.LoadOp = rg.LoadOpLoad
	case "clear":
		out.LoadOp = rg.LoadOpClear
	case "dont_care":
		out.LoadOp = rg.LoadOpDontCare
	default:
		return out, fmt.Errorf("%w: load op %q", ErrInvalid, a.Load)
	}
	switch strings.ToLower(a.Store) {
	case "", "store":
		out.StoreOp = rg.StoreOpStore
	case "dont_care":
		out.StoreOp = rg.StoreOpDontCare
	default:
		return out, fmt.Errorf("%w: store op %q", ErrInvalid, a.Store)
	}
	if out.ClearColor, err = clearColor(a.Color); err != nil {
		return out, err
	}
	out.ClearDepthStencil = rg.ClearDepthStencilValue{Depth: a.Depth, Stencil: a.Stencil}
	return out, nil
}

func (b *builder) access(list []Access) (rg.AccessInfo, error) {
	var info rg.AccessInfo
	for _, a := range list {
		flags, err := rg.ParseAccessFlags(a.Access)
		if err != nil {
			return info, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		stage, err := rg.ParsePipelineStageFlags(a.Stage)
		if err != nil {
			return info, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		switch {
		case a.Buffer != 0 && a.Image != 0:
			return info, fmt.Errorf("%w: access names both a buffer and an image", ErrInvalid)
		case a.Buffer != 0:
			buf, err := b.buffer(a.Buffer)
			if err != nil {
				return info, err
			}
			info.Buffers = append(info.Buffers, rg.BufferAccess{Buffer: buf, Access: flags, Stage: stage})
		case a.Image != 0:
			img, err := b.image(a.Image)
			if err != nil {
				return info, err
			}
			layout, err := parseLayout(a.Layout, rg.LayoutGeneral)
			if err != nil {
				return info, err
			}
			ia := rg.ImageAccess{Image: img, Access: flags, Stage: stage, Layout: layout}
			if a.Range != nil {
				if ia.Range, err = imageRange(*a.Range, rg.AspectColor); err != nil {
					return info, err
				}
			} else {
				ia.Range.AspectMask = rg.AspectColor
			}
			info.Images = append(info.Images, ia)
		default:
			return info, fmt.Errorf("%w: access names no resource", ErrInvalid)
		}
	}
	return info, nil
}

func pipeline(n Node) rg.PipelineData {
	p := rg.PipelineData{
		Pipeline: rg.PipelineHandle(n.Pipeline),
		Layout:   rg.PipelineLayoutHandle(n.PipelineLayout),
		FirstSet: n.FirstSet,
	}
	for _, s := range n.Sets {
		p.DescriptorSets = append(p.DescriptorSets, rg.DescriptorSetHandle(s))
	}
	return p
}

func viewport(v *Viewport) *rg.Viewport {
	if v == nil {
		return nil
	}
	maxDepth := float32(1)
	if v.MaxDepth != nil {
		maxDepth = *v.MaxDepth
	}
	return &rg.Viewport{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.MinDepth, MaxDepth: maxDepth}
}

func rect(r *Rect) *rg.Rect2D {
	if r == nil {
		return nil
	}
	return &rg.Rect2D{
		Offset: rg.Offset2D{X: r.X, Y: r.Y},
		Extent: rg.Extent2D{Width: r.Width, Height: r.Height},
	}
}

func clearColor(c []float32) (rg.ClearColorValue, error) {
	var out rg.ClearColorValue
	if len(c) > 4 {
		return out, fmt.Errorf("%w: color has %d components", ErrInvalid, len(c))
	}
	copy(out.Float32[:], c)
	return out, nil
}

func clearAttachments(n Node) (*rg.ClearAttachmentsData, error) {
	d := &rg.ClearAttachmentsData{}
	for _, c := range n.Clears {
		aspect, err := rg.ParseImageAspectFlags(c.Aspect)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if aspect == 0 {
			aspect = rg.AspectColor
		}
		color, err := clearColor(c.Color)
		if err != nil {
			return nil, err
		}
		d.Attachments = append(d.Attachments, rg.ClearAttachment{
			AspectMask:      aspect,
			ColorAttachment: c.Attachment,
			Color:           color,
			DepthStencil:    rg.ClearDepthStencilValue{Depth: c.Depth, Stencil: c.Stencil},
		})
	}
	for _, r := range n.Rects {
		d.Rects = append(d.Rects, rg.ClearRect{Rect: *rect(&r), LayerCount: 1})
	}
	return d, nil
}

func parseLayout(s string, def rg.ImageLayout) (rg.ImageLayout, error) {
	if s == "" {
		return def, nil
	}
	l, ok := rg.ParseImageLayout(s)
	if !ok {
		return 0, fmt.Errorf("%w: layout %q", ErrInvalid, s)
	}
	return l, nil
}

func imageRange(r Range, aspect rg.ImageAspectFlags) (rg.ImageSubresourceRange, error) {
	if r.Aspect != "" {
		a, err := rg.ParseImageAspectFlags(r.Aspect)
		if err != nil {
			return rg.ImageSubresourceRange{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		aspect = a
	}
	out := rg.ImageSubresourceRange{
		AspectMask:     aspect,
		BaseMipLevel:   r.BaseMip,
		LevelCount:     r.Mips,
		BaseArrayLayer: r.BaseLayer,
		LayerCount:     r.Layers,
	}
	if out.LevelCount == 0 {
		out.LevelCount = rg.RemainingMipLevels
	}
	if out.LayerCount == 0 {
		out.LayerCount = rg.RemainingArrayLayers
	}
	return out, nil
}

func imageRanges(rs []Range, aspect rg.ImageAspectFlags) ([]rg.ImageSubresourceRange, error) {
	var out []rg.ImageSubresourceRange
	for _, r := range rs {
		rng, err := imageRange(r, aspect)
		if err != nil {
			return nil, err
		}
		out = append(out, rng)
	}
	return out, nil
}

func regionLayers(r Region) (src, dst rg.ImageSubresourceLayers, err error) {
	aspect := rg.AspectColor
	if r.Aspect != "" {
		if aspect, err = rg.ParseImageAspectFlags(r.Aspect); err != nil {
			return src, dst, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	layers := max(r.Layers, 1)
	src = rg.ImageSubresourceLayers{AspectMask: aspect, MipLevel: r.SrcMip, BaseArrayLayer: r.SrcLayer, LayerCount: layers}
	dst = rg.ImageSubresourceLayers{AspectMask: aspect, MipLevel: r.DstMip, BaseArrayLayer: r.DstLayer, LayerCount: layers}
	return src, dst, nil
}

func extent(r Region) rg.Extent3D {
	return rg.Extent3D{Width: r.Width, Height: r.Height, Depth: max(r.Depth, 1)}
}

// bufferImageRegions reads the image side from the Src* fields when the
// image is the copy source and from the Dst* fields otherwise.
func bufferImageRegions(rs []Region, imageIsSrc bool) ([]rg.BufferImageCopy, error) {
	var out []rg.BufferImageCopy
	for _, r := range rs {
		src, dst, err := regionLayers(r)
		if err != nil {
			return nil, err
		}
		layers := dst
		if imageIsSrc {
			layers = src
		}
		out = append(out, rg.BufferImageCopy{
			BufferOffset:      r.BufferOffset,
			BufferRowLength:   r.RowLength,
			BufferImageHeight: r.ImageHeight,
			ImageSubresource:  layers,
			ImageExtent:       extent(r),
		})
	}
	return out, nil
}
