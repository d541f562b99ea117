//go:build !nogpu

package native

import (
	"github.com/gogpu/gputypes"

	rg "github.com/gogpu/rendergraph"
)

// textureUsage maps an image layout to the hal usage that implies it.
// hal derives layouts from usages, so a barrier becomes a usage transition.
func textureUsage(l rg.ImageLayout) gputypes.TextureUsage {
	switch l {
	case rg.LayoutGeneral:
		return gputypes.TextureUsageStorageBinding
	case rg.LayoutColorAttachmentOptimal, rg.LayoutDepthStencilAttachmentOptimal:
		return gputypes.TextureUsageRenderAttachment
	case rg.LayoutDepthStencilReadOnlyOptimal, rg.LayoutShaderReadOnlyOptimal:
		return gputypes.TextureUsageTextureBinding
	case rg.LayoutTransferSrcOptimal:
		return gputypes.TextureUsageCopySrc
	case rg.LayoutTransferDstOptimal:
		return gputypes.TextureUsageCopyDst
	case rg.LayoutPresentSrc:
		// Surfaces present straight from the attachment usage.
		return gputypes.TextureUsageRenderAttachment
	}
	return gputypes.TextureUsage(0)
}

func loadOp(op rg.AttachmentLoadOp) gputypes.LoadOp {
	if op == rg.LoadOpLoad {
		return gputypes.LoadOpLoad
	}
	// hal has no DONT_CARE load op.
	return gputypes.LoadOpClear
}

func storeOp(op rg.AttachmentStoreOp) gputypes.StoreOp {
	if op == rg.StoreOpStore {
		return gputypes.StoreOpStore
	}
	return gputypes.StoreOpDiscard
}

// bytesPerTexel returns 0 for formats that cannot be copied to or from a
// buffer.
func bytesPerTexel(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRG32Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	}
	return 0
}
