// Package logging builds the slog loggers handed to pipeline components.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Options struct {
	Verbose bool
	// Format is "text" (default) or "json".
	Format string
}

// New returns a logger writing to output. It never touches slog's default.
func New(output io.Writer, options Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if options.Verbose {
		level = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(strings.TrimSpace(options.Format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(output, handlerOptions)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(output, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", options.Format)
	}
}

// Discard is a logger for callers that want no output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
