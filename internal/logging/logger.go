// Package logging provides leveled operational logging for slime sessions.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Garsondee/Slime-Siege/internal/sim"
)

// LevelTrace is a custom slog level below Debug. Every session event is
// logged at this level.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EventSink returns a sink that writes every session event to l at trace
// level. It is a no-op unless trace is enabled.
func EventSink(l *slog.Logger) sim.EventSink {
	return sim.EventSinkFunc(func(e sim.Event) {
		if !l.Enabled(context.Background(), LevelTrace) {
			return
		}
		attrs := []slog.Attr{
			slog.Int("tick", e.Tick),
			slog.String("event", e.Kind.String()),
			slog.Int("agent", int(e.Agent)),
			slog.String("at", e.At.String()),
		}
		if e.Other != 0 {
			attrs = append(attrs, slog.Int("other", int(e.Other)))
		}
		if e.Kind == sim.EventPhaseChanged {
			attrs = append(attrs, slog.String("phase", e.Phase.String()))
		}
		l.LogAttrs(context.Background(), LevelTrace, "event", attrs...)
	})
}
