// Package recording provides an Executor that captures the command stream
// produced by rendergraph.Submit.
//
// Every executor call becomes a typed command struct holding copies of its
// arguments, which keeps the stream inspectable in tests and dumpable for
// debugging.
//
// # Architecture
//
// The package has two main components:
//
//   - Recorder: implements rendergraph.Executor and captures commands
//   - Recording: an immutable stream that can be played back into any
//     other executor
//
// # Basic Usage
//
//	rec := recording.NewRecorder()
//	stats := rendergraph.Submit(g, rec)
//
//	for _, c := range rec.Commands() {
//	    fmt.Println(c)
//	}
//
// Commands excludes lifecycle commands (BeginRecording, EndRecording and
// the CPU synchronization hooks); All includes them.
//
// # Text Dump
//
// WriteTo prints one numbered line per command. Barriers list each buffer
// and image entry on its own indented line:
//
//	  0  BeginRecording
//	  1  FillBuffer 0x1 offset=0 size=1024 data=0x2a
//	  2  PipelineBarrier TRANSFER -> TRANSFER
//	        buffer 0x1 TRANSFER_WRITE -> TRANSFER_WRITE
//	  3  FillBuffer 0x1 offset=0 size=1024 data=0x0
//	  4  EndRecording
//
// # Playback
//
// A Recording replays into another executor in the same order:
//
//	r := rec.Finish()
//	if err := r.Playback(nativeExecutor); err != nil {
//	    // handle error
//	}
//
// # Thread Safety
//
// Recorder is not safe for concurrent use. A finished Recording is
// read-only and may be shared.
package recording
