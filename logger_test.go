package rendergraph

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogs installs a debug-level text logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestNopHandler(t *testing.T) {
	var h slog.Handler = nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.Int("node", 1)}).(nopHandler); !ok {
		t.Error("WithAttrs should stay a nopHandler")
	}
	if _, ok := h.WithGroup("submit").(nopHandler); !ok {
		t.Error("WithGroup should stay a nopHandler")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

func TestSubmitLogsStats(t *testing.T) {
	buf := captureLogs(t)

	g := New()
	g.AddBuffer(1)
	g.AddNode(CreateInfo{Data: &FillBufferData{Buffer: 1, Size: WholeSize}})
	g.AddNode(CreateInfo{Data: &FillBufferData{Buffer: 1, Size: WholeSize}})
	Submit(g, nopExecutor{})

	out := buf.String()
	for _, want := range []string{"rendergraph: submitted", "nodes=2", "barriers=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestPreconditionLoggedBeforePanic(t *testing.T) {
	buf := captureLogs(t)

	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.Is(err, ErrUnregisteredResource) {
				t.Errorf("recovered %v, want ErrUnregisteredResource", r)
			}
		}()
		New().Tracker().State(7, ImageSubresourceRange{})
	}()

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "precondition violated") {
		t.Errorf("precondition not logged at error level:\n%s", out)
	}
}

type loggingExecutor struct {
	nopExecutor
	logger *slog.Logger
}

func (e *loggingExecutor) SetLogger(l *slog.Logger) { e.logger = l }

func TestSubmitPropagatesLogger(t *testing.T) {
	captureLogs(t)

	exec := &loggingExecutor{}
	Submit(New(), exec)

	if exec.logger != Logger() {
		t.Error("Submit did not hand the current logger to the executor")
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("rendergraph: concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledDebug(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("rendergraph: submitted", "nodes", 1)
	}
}
