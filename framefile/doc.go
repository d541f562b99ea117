// Package framefile loads frame descriptions written in TOML or YAML and
// builds render graphs from them.
//
// A frame file declares buffers and images by handle and lists nodes in
// program order. Node kinds use the rendergraph.NodeKind names; enums use
// their Vulkan enumerator names without prefix ("TRANSFER_WRITE",
// "SHADER_READ_ONLY_OPTIMAL"), with '|' joining flag bits.
//
//	name = "upload"
//
//	[[buffer]]
//	handle = 0x10
//	size = 1024
//
//	[[node]]
//	kind = "FillBuffer"
//	buffer = 0x10
//	size = 1024
//	value = 42
//
// The same frame in YAML uses plural list keys (buffers, images, nodes,
// regions, ranges, clears, rects, color_attachments):
//
//	buffers:
//	  - {handle: 0x10, size: 1024}
//	nodes:
//	  - {kind: FillBuffer, buffer: 0x10, size: 1024, value: 42}
//
// Unknown keys are rejected so that typos do not silently drop accesses.
//
// Usage:
//
//	f, err := framefile.LoadFile("frame.toml")
//	g, err := f.Build()
//	stats := rendergraph.Submit(g, exec)
//
// [Frame.Resources] describes the declared resources for
// backend.Backend.Provision.
package framefile
