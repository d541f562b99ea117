package rendergraph

import (
	"fmt"

	"github.com/gogpu/rendergraph/internal/subrange"
)

// Handle is an opaque buffer or image token owned by the caller, typically
// the driver object's address or a registry index.
type Handle uint64

// ResourceKind tells buffers and images apart.
type ResourceKind uint8

const (
	// ResourceBuffer tracks a single whole-buffer state.
	ResourceBuffer ResourceKind = iota + 1
	// ResourceImage tracks state per subresource range.
	ResourceImage
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceBuffer:
		return "buffer"
	case ResourceImage:
		return "image"
	}
	return fmt.Sprintf("ResourceKind(%d)", uint8(k))
}

// ResourceState is the last known synchronization state of a buffer or of
// one image subresource region.
//
// WriteAccess and WriteStages describe the last write or layout transition.
// ReadAccess and ReadStages accumulate the reads performed since, which are
// also the accesses the last write has already been made visible to.
type ResourceState struct {
	WriteAccess AccessFlags
	WriteStages PipelineStageFlags
	ReadAccess  AccessFlags
	ReadStages  PipelineStageFlags
	Layout      ImageLayout
}

// StateEntry is a tracked region and its state.
type StateEntry struct {
	// Range is the region in Vulkan terms. Counts reaching the end of the
	// image are reported as RemainingMipLevels/RemainingArrayLayers.
	Range ImageSubresourceRange
	State ResourceState

	rect subrange.Rect
}

type trackedResource struct {
	kind    ResourceKind
	layered bool
	buffer  ResourceState
	image   *subrange.List[ResourceState]
}

// rect maps a requested range onto the tracked space. Non-layered images
// share one state across all array layers. Zero counts select the whole
// image; any other range selecting no subresource is a precondition
// violation of node.
func (r *trackedResource) rect(rng ImageSubresourceRange, node int) subrange.Rect {
	if r.kind == ResourceBuffer {
		return subrange.Whole()
	}
	if rng.LevelCount == 0 && rng.LayerCount == 0 {
		rng = WholeImage(rng.AspectMask)
	}
	out := subrange.Rect{
		Mips:   subrange.NewSpan(rng.BaseMipLevel, rng.LevelCount),
		Layers: subrange.NewSpan(rng.BaseArrayLayer, rng.LayerCount),
	}
	if !r.layered {
		out.Layers = subrange.Full()
	}
	if out.Empty() {
		fatal(ErrEmptyRange, node, "image range %s", rng)
	}
	return out
}

func (r *trackedResource) query(rect subrange.Rect) []StateEntry {
	if r.kind == ResourceBuffer {
		return []StateEntry{{Range: rectRange(rect, 0), State: r.buffer, rect: rect}}
	}
	hits := r.image.Query(rect)
	out := make([]StateEntry, len(hits))
	for i, h := range hits {
		out[i] = StateEntry{Range: rectRange(h.Rect, 0), State: h.Value, rect: h.Rect}
	}
	return out
}

func (r *trackedResource) set(rect subrange.Rect, st ResourceState) {
	if r.kind == ResourceBuffer {
		st.Layout = LayoutUndefined
		r.buffer = st
		return
	}
	r.image.Set(rect, st)
}

func rectRange(rect subrange.Rect, aspect ImageAspectFlags) ImageSubresourceRange {
	return ImageSubresourceRange{
		AspectMask:     aspect,
		BaseMipLevel:   uint32(rect.Mips.Begin),
		LevelCount:     rect.Mips.Count(),
		BaseArrayLayer: uint32(rect.Layers.Begin),
		LayerCount:     rect.Layers.Count(),
	}
}

// Tracker records the last known state of every registered resource. It
// outlives individual graphs: the state left by one Submit is the starting
// point of the next.
//
// Tracker is not safe for concurrent use. Only Submit mutates it while a
// graph is being scheduled.
type Tracker struct {
	resources map[Handle]*trackedResource
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{resources: make(map[Handle]*trackedResource)}
}

// AddBuffer registers a buffer with no prior access.
// Registering a handle twice panics.
func (t *Tracker) AddBuffer(h Handle) {
	t.add(h, &trackedResource{kind: ResourceBuffer})
}

// AddImage registers an image in layout UNDEFINED with no prior access.
// Layered images track every array layer separately; other images share a
// state across layers and only distinguish mip levels.
func (t *Tracker) AddImage(h Handle, layered bool) {
	t.add(h, &trackedResource{
		kind:    ResourceImage,
		layered: layered,
		image:   subrange.NewList(ResourceState{Layout: LayoutUndefined}),
	})
}

func (t *Tracker) add(h Handle, r *trackedResource) {
	if _, dup := t.resources[h]; dup {
		fatal(ErrDuplicateResource, -1, "handle %#x", uint64(h))
	}
	t.resources[h] = r
}

// Remove forgets a resource, typically right before the caller destroys it.
func (t *Tracker) Remove(h Handle) {
	t.lookup(h, -1)
	delete(t.resources, h)
}

// Contains reports whether h is registered.
func (t *Tracker) Contains(h Handle) bool {
	_, ok := t.resources[h]
	return ok
}

// Kind returns the kind of h and whether it is registered.
func (t *Tracker) Kind(h Handle) (ResourceKind, bool) {
	r, ok := t.resources[h]
	if !ok {
		return 0, false
	}
	return r.kind, true
}

// Len returns the number of registered resources.
func (t *Tracker) Len() int { return len(t.resources) }

// State returns the entries overlapping rng, clipped to it. Buffers ignore
// rng and return their single state.
func (t *Tracker) State(h Handle, rng ImageSubresourceRange) []StateEntry {
	r := t.lookup(h, -1)
	return r.query(r.rect(rng, -1))
}

// BufferState returns the state of a registered buffer.
func (t *Tracker) BufferState(h Handle) ResourceState {
	r := t.lookup(h, -1)
	if r.kind != ResourceBuffer {
		fatal(ErrResourceKind, -1, "handle %#x is an image", uint64(h))
	}
	return r.buffer
}

// SetState overwrites the state of rng. Existing entries are split and
// merged so entries of one image never overlap.
func (t *Tracker) SetState(h Handle, rng ImageSubresourceRange, st ResourceState) {
	r := t.lookup(h, -1)
	r.set(r.rect(rng, -1), st)
}

// entryCount returns the number of tracked regions of h.
func (t *Tracker) entryCount(h Handle) int {
	r := t.lookup(h, -1)
	if r.kind == ResourceBuffer {
		return 1
	}
	return r.image.Len()
}

func (t *Tracker) lookup(h Handle, node int) *trackedResource {
	r, ok := t.resources[h]
	if !ok {
		fatal(ErrUnregisteredResource, node, "handle %#x", uint64(h))
	}
	return r
}
