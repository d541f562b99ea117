package native

import "errors"

// Executor errors. The first error an executor hits is sticky: later calls
// are skipped and Err reports it.
var (
	// ErrUnsupported is returned for commands the hal encoder cannot express.
	ErrUnsupported = errors.New("native: command not supported by hal")

	// ErrUnknownHandle is returned when a command names a handle that was
	// never registered with the executor.
	ErrUnknownHandle = errors.New("native: unknown handle")

	// ErrNotRecording is returned when a command arrives outside
	// BeginRecording/EndRecording.
	ErrNotRecording = errors.New("native: encoder not recording")

	// ErrAlreadyRecording is returned by a second BeginRecording.
	ErrAlreadyRecording = errors.New("native: encoder already recording")

	// ErrNoRenderPass is returned for draw-time commands outside a
	// rendering scope.
	ErrNoRenderPass = errors.New("native: no render pass open")

	// ErrRenderPassOpen is returned for transfer and barrier commands issued
	// inside a rendering scope.
	ErrRenderPassOpen = errors.New("native: render pass open")

	// ErrNoPipeline is returned by Dispatch without a bound compute pipeline.
	ErrNoPipeline = errors.New("native: no compute pipeline bound")

	// ErrTimeout is returned when the fence wait expires.
	ErrTimeout = errors.New("native: GPU timeout")

	// ErrNoAdapter is returned by Backend.Init when no adapter is exposed.
	ErrNoAdapter = errors.New("native: no GPU adapter available")
)
