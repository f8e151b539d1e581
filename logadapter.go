package playercore

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter implements Logger on top of log/slog (SPEC_FULL.md
// domain-stack table, section B: "log/slog (stdlib, but styled on zsiec-prism)").
// zsiec-prism logs through a structured handler everywhere rather than
// fmt.Printf-style messages; this adapter lets embedders opt into the
// same style without this module hard-depending on slog for its default
// logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger, or slog.Default() if nil.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Printf satisfies Logger by formatting the message and logging it at
// Info level with a fixed "component" attribute, matching zsiec-prism's
// convention of tagging every log line with its owning subsystem.
func (a *SlogAdapter) Printf(format string, v ...any) {
	a.logger.LogAttrs(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...),
		slog.String("component", "playercore"))
}
