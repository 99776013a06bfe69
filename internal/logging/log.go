// Package logging configures the slog logger shared by the CLI and the
// converter.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w. An empty level falls back to the
// LOG_LEVEL environment variable.
func New(level string, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(level, w))
}

// NewHandler is the text handler behind New, for callers that wrap it.
func NewHandler(level string, w io.Writer) slog.Handler {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Entry is one captured log record.
type Entry struct {
	Level     slog.Level
	Message   string
	Component string
	Attrs     map[string]any
}

// Recorder is a slog.Handler that keeps every record it sees and passes it
// on to an optional next handler. The CLI uses it to print a failure summary
// after a batch; tests use it to inspect what was logged.
type Recorder struct {
	next  slog.Handler
	attrs []slog.Attr
	sink  *sink
}

type sink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns a Recorder forwarding to next, which may be nil.
func NewRecorder(next slog.Handler) *Recorder {
	return &Recorder{next: next, sink: &sink{}}
}

func (r *Recorder) Enabled(ctx context.Context, level slog.Level) bool {
	if r.next == nil {
		return true
	}
	return r.next.Enabled(ctx, level)
}

func (r *Recorder) Handle(ctx context.Context, rec slog.Record) error {
	e := Entry{Level: rec.Level, Message: rec.Message}
	add := func(a slog.Attr) bool {
		if a.Key == "component" {
			e.Component = a.Value.String()
			return true
		}
		if e.Attrs == nil {
			e.Attrs = make(map[string]any)
		}
		e.Attrs[a.Key] = a.Value.Any()
		return true
	}
	for _, a := range r.attrs {
		add(a)
	}
	rec.Attrs(add)

	r.sink.mu.Lock()
	r.sink.entries = append(r.sink.entries, e)
	r.sink.mu.Unlock()

	if r.next == nil {
		return nil
	}
	return r.next.Handle(ctx, rec)
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &Recorder{sink: r.sink, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
	if r.next != nil {
		out.next = r.next.WithAttrs(attrs)
	}
	return out
}

func (r *Recorder) WithGroup(name string) slog.Handler {
	out := &Recorder{sink: r.sink, attrs: r.attrs}
	if r.next != nil {
		out.next = r.next.WithGroup(name)
	}
	return out
}

// Entries returns a copy of the records captured so far.
func (r *Recorder) Entries() []Entry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	out := make([]Entry, len(r.sink.entries))
	copy(out, r.sink.entries)
	return out
}

// Failures returns the captured records at error level or above.
func (r *Recorder) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level >= slog.LevelError {
			out = append(out, e)
		}
	}
	return out
}
