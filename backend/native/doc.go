// Package native runs rendergraph command streams on a gogpu/wgpu hal
// device.
//
// hal has no explicit layouts or buffer barriers. Image barriers become
// texture usage transitions, buffer barriers are left to hal's own usage
// tracking, and FillBuffer and UpdateBuffer go through queue-written
// staging buffers copied in stream order. Commands hal cannot express
// (blits, indirect draws and dispatches, ClearAttachments) make the frame
// fail with ErrUnsupported.
//
// Graph handles are resolved through a Registry. Backend provisions
// buffers and textures for declared resources; pipelines and bind groups
// are registered by the caller:
//
//	b := native.NewBackendWithDevice(device, queue)
//	if err := b.Init(); err != nil {
//		return err
//	}
//	defer b.Close()
//	b.HAL().Registry().RegisterComputePipeline(1, pipeline)
//	rendergraph.Submit(g, b.Executor())
//	if err := b.Finish(); err != nil {
//		return err
//	}
package native
