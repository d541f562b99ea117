//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	rg "github.com/gogpu/rendergraph"
)

type bufferEntry struct {
	buffer hal.Buffer
	size   uint64
}

type textureEntry struct {
	texture hal.Texture
	// view is used for attachments and clears. It may be nil for textures
	// that are only copied.
	view   hal.TextureView
	format gputypes.TextureFormat
}

type pipelineEntry struct {
	render  hal.RenderPipeline
	compute hal.ComputePipeline
}

// Registry maps graph handles to hal objects. The graph never owns GPU
// objects; callers register what a frame refers to before submitting it.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	buffers    map[rg.Handle]bufferEntry
	textures   map[rg.Handle]textureEntry
	pipelines  map[rg.PipelineHandle]pipelineEntry
	bindGroups map[rg.DescriptorSetHandle]hal.BindGroup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		buffers:    make(map[rg.Handle]bufferEntry),
		textures:   make(map[rg.Handle]textureEntry),
		pipelines:  make(map[rg.PipelineHandle]pipelineEntry),
		bindGroups: make(map[rg.DescriptorSetHandle]hal.BindGroup),
	}
}

// RegisterBuffer binds h to buf. size resolves rendergraph.WholeSize fills.
func (r *Registry) RegisterBuffer(h rg.Handle, buf hal.Buffer, size uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[h] = bufferEntry{buffer: buf, size: size}
}

// RegisterTexture binds h to tex and its default view.
func (r *Registry) RegisterTexture(h rg.Handle, tex hal.Texture, view hal.TextureView, format gputypes.TextureFormat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textures[h] = textureEntry{texture: tex, view: view, format: format}
}

// RegisterRenderPipeline binds p to a graphics pipeline.
func (r *Registry) RegisterRenderPipeline(p rg.PipelineHandle, pipeline hal.RenderPipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[p] = pipelineEntry{render: pipeline}
}

// RegisterComputePipeline binds p to a compute pipeline.
func (r *Registry) RegisterComputePipeline(p rg.PipelineHandle, pipeline hal.ComputePipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines[p] = pipelineEntry{compute: pipeline}
}

// RegisterBindGroup binds a descriptor set handle to a hal bind group.
func (r *Registry) RegisterBindGroup(set rg.DescriptorSetHandle, group hal.BindGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindGroups[set] = group
}

// Forget drops h from the buffer and texture maps. It does not destroy the
// hal objects.
func (r *Registry) Forget(h rg.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, h)
	delete(r.textures, h)
}

func (r *Registry) buffer(h rg.Handle) (bufferEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buffers[h]
	if !ok {
		return bufferEntry{}, fmt.Errorf("%w: buffer %#x", ErrUnknownHandle, uint64(h))
	}
	return b, nil
}

func (r *Registry) texture(h rg.Handle) (textureEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.textures[h]
	if !ok {
		return textureEntry{}, fmt.Errorf("%w: image %#x", ErrUnknownHandle, uint64(h))
	}
	return t, nil
}

func (r *Registry) pipeline(p rg.PipelineHandle) (pipelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.pipelines[p]
	if !ok {
		return pipelineEntry{}, fmt.Errorf("%w: pipeline %#x", ErrUnknownHandle, uint64(p))
	}
	return e, nil
}

func (r *Registry) bindGroup(set rg.DescriptorSetHandle) (hal.BindGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.bindGroups[set]
	if !ok {
		return nil, fmt.Errorf("%w: descriptor set %#x", ErrUnknownHandle, uint64(set))
	}
	return g, nil
}
