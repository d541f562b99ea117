//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	rg "github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend"
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.Backend {
		return NewBackend()
	})
}

type provisioned struct {
	buffer  hal.Buffer
	texture hal.Texture
	view    hal.TextureView
}

// Backend runs frames on a hal device through an Executor and owns the
// objects it provisions for frame resources.
type Backend struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	// external is set when the device belongs to the caller.
	external bool
	adapter  string

	exec  *Executor
	owned map[rg.Handle]provisioned
}

var _ backend.Backend = (*Backend)(nil)

// NewBackend returns a backend that opens its own Vulkan device in Init.
func NewBackend() *Backend {
	return &Backend{owned: make(map[rg.Handle]provisioned)}
}

// NewBackendWithDevice returns a backend on a caller-owned device. Close
// leaves the device open.
func NewBackendWithDevice(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{
		device:   device,
		queue:    queue,
		external: true,
		adapter:  "external",
		owned:    make(map[rg.Handle]provisioned),
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendNative }

// Adapter returns the name of the adapter the device was opened on.
func (b *Backend) Adapter() string { return b.adapter }

// Init opens a device when none was supplied and creates the executor.
func (b *Backend) Init() error {
	if b.exec != nil {
		return nil
	}
	if b.device == nil {
		if err := b.openDevice(); err != nil {
			return err
		}
	}
	b.exec = NewExecutor(b.device, b.queue)
	rg.Logger().Info("native: backend initialized", "adapter", b.adapter)
	return nil
}

func (b *Backend) openDevice() error {
	hb, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open device: %w", err)
	}
	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.adapter = selected.Info.Name
	return nil
}

// Close destroys provisioned objects, then the device if the backend
// opened it.
func (b *Backend) Close() {
	if b.exec != nil {
		b.exec.Close()
		b.exec = nil
	}
	for h := range b.owned {
		b.destroy(h)
	}
	if !b.external {
		if b.device != nil {
			b.device.Destroy()
			b.device = nil
			b.queue = nil
		}
		if b.instance != nil {
			b.instance.Destroy()
			b.instance = nil
		}
	}
}

func (b *Backend) destroy(h rg.Handle) {
	p, ok := b.owned[h]
	if !ok {
		return
	}
	delete(b.owned, h)
	if b.exec != nil {
		b.exec.Registry().Forget(h)
	}
	if p.view != nil {
		b.device.DestroyTextureView(p.view)
	}
	if p.texture != nil {
		b.device.DestroyTexture(p.texture)
	}
	if p.buffer != nil {
		b.device.DestroyBuffer(p.buffer)
	}
}

// Provision creates a buffer, or a texture with a default view, for each
// resource and registers it under the resource's handle. Provisioning a
// handle again replaces its objects.
func (b *Backend) Provision(res []backend.Resource) error {
	if b.exec == nil {
		return backend.ErrNotInitialized
	}
	reg := b.exec.Registry()
	for _, r := range res {
		b.destroy(r.Handle)
		switch r.Kind {
		case rg.ResourceBuffer:
			buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
				Label: r.Label,
				Size:  max(r.Size, 4),
				Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst |
					gputypes.BufferUsageStorage | gputypes.BufferUsageUniform | gputypes.BufferUsageVertex,
			})
			if err != nil {
				return fmt.Errorf("native: provision buffer %#x: %w", uint64(r.Handle), err)
			}
			b.owned[r.Handle] = provisioned{buffer: buf}
			reg.RegisterBuffer(r.Handle, buf, max(r.Size, 4))
		case rg.ResourceImage:
			if err := b.provisionImage(reg, r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("native: provision %#x: unknown kind %v", uint64(r.Handle), r.Kind)
		}
	}
	return nil
}

func (b *Backend) provisionImage(reg *Registry, r backend.Resource) error {
	format := gputypes.TextureFormatRGBA8Unorm
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
		gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageStorageBinding
	if r.Depth {
		format = gputypes.TextureFormatDepth24PlusStencil8
		usage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         r.Label,
		Size:          hal.Extent3D{Width: max(r.Width, 1), Height: max(r.Height, 1), DepthOrArrayLayers: max(r.Layers, 1)},
		MipLevelCount: max(r.MipLevels, 1),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return fmt.Errorf("native: provision image %#x: %w", uint64(r.Handle), err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: r.Label + "_view"})
	if err != nil {
		b.device.DestroyTexture(tex)
		return fmt.Errorf("native: provision image view %#x: %w", uint64(r.Handle), err)
	}
	b.owned[r.Handle] = provisioned{texture: tex, view: view}
	reg.RegisterTexture(r.Handle, tex, view, format)
	return nil
}

// Executor returns the hal executor. It is nil before Init.
func (b *Backend) Executor() rg.Executor {
	if b.exec == nil {
		return nil
	}
	return b.exec
}

// HAL returns the concrete executor for registering pipelines and bind
// groups.
func (b *Backend) HAL() *Executor { return b.exec }

// Finish submits the recorded frame, waits for it and returns the first
// error of the frame.
func (b *Backend) Finish() error {
	if b.exec == nil {
		return backend.ErrNotInitialized
	}
	b.exec.SubmitWithCPUSynchronization()
	b.exec.WaitForCPUSynchronization()
	return b.exec.Err()
}
