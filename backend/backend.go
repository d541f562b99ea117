package backend

import (
	"errors"

	"github.com/gogpu/rendergraph"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Resource describes one buffer or image a frame refers to. Backends that
// drive real devices create an object per Resource in Provision.
type Resource struct {
	Handle rendergraph.Handle
	Kind   rendergraph.ResourceKind
	Label  string

	// Size is the byte size of a buffer.
	Size uint64

	// Image extent. Zero mip and layer counts mean one.
	Width, Height uint32
	MipLevels     uint32
	Layers        uint32
	// Depth selects a depth/stencil format instead of a color one.
	Depth bool
}

// Backend is the interface for executor backends.
// It hides how a submitted command stream is carried out, allowing the
// same graph to be recorded for inspection or encoded for a GPU.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "recording", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before any other method.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Provision makes the described resources addressable by the
	// executor's handles.
	Provision(res []Resource) error

	// Executor returns the executor to pass to rendergraph.Submit.
	Executor() rendergraph.Executor

	// Finish completes the submitted frame, waiting for the device if
	// there is one, and reports the first executor error.
	Finish() error
}
