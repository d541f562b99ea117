package backend

import (
	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/recording"
)

// Backend name constants.
const (
	// BackendRecording is the name of the CPU-side recording backend.
	BackendRecording = "recording"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu hal).
	BackendNative = "native"
)

// RecordingBackend captures the command stream instead of executing it.
// It needs no device, so Provision accepts any resource.
type RecordingBackend struct {
	initialized bool
	recorder    *recording.Recorder
	last        *recording.Recording
}

// init registers the recording backend on package import.
func init() {
	Register(BackendRecording, func() Backend {
		return &RecordingBackend{}
	})
}

// NewRecordingBackend creates a new recording backend.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{}
}

// Name returns the backend identifier.
func (b *RecordingBackend) Name() string {
	return BackendRecording
}

// Init initializes the backend.
func (b *RecordingBackend) Init() error {
	b.recorder = recording.NewRecorder()
	b.initialized = true
	return nil
}

// Close releases the captured commands.
func (b *RecordingBackend) Close() {
	b.recorder = nil
	b.last = nil
	b.initialized = false
}

// Provision is a no-op: recorded handles need no backing objects.
func (b *RecordingBackend) Provision([]Resource) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Executor returns the recorder. It is nil before Init.
func (b *RecordingBackend) Executor() rendergraph.Executor {
	if b.recorder == nil {
		return nil
	}
	return b.recorder
}

// Finish seals the frame recorded so far and starts a new one.
func (b *RecordingBackend) Finish() error {
	if !b.initialized {
		return ErrNotInitialized
	}
	b.last = b.recorder.Finish()
	return nil
}

// Recording returns the frame sealed by the last Finish, or nil.
func (b *RecordingBackend) Recording() *recording.Recording {
	return b.last
}
