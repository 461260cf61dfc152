package cpu

import (
	"context"
	"log/slog"
)

// LevelTrace is the log level of CPU trace events.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs msg at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

func (c *CPU) logTrace(msg string, args ...any) {
	if c.trace {
		Trace(msg, args...)
	}
}
