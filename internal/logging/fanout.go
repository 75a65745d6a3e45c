package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
)

// Fanout sends each record to every sink that accepts its level.
// A failing sink never blocks the others; failures are only counted.
type Fanout struct {
	sinks    []slog.Handler
	failures *atomic.Int64
}

// NewFanout builds a Fanout over the non-nil sinks.
func NewFanout(sinks ...slog.Handler) *Fanout {
	return &Fanout{
		sinks:    slices.DeleteFunc(slices.Clone(sinks), func(h slog.Handler) bool { return h == nil }),
		failures: new(atomic.Int64),
	}
}

// Failures reports how many sink writes have failed so far, across all
// handlers derived from this one.
func (f *Fanout) Failures() int64 {
	return f.failures.Load()
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f.sinks, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			f.failures.Add(1)
		}
	}
	return nil
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) derive(fn func(slog.Handler) slog.Handler) *Fanout {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		sinks[i] = fn(h)
	}
	return &Fanout{sinks: sinks, failures: f.failures}
}
