// Package logging configures the process-wide structured logger.
// All diagnostics go to stderr so that stdout carries only the report.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. The default level is Warn, which
// surfaces degraded collections; verbose lowers it to Debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init builds a logger with New and installs it as the slog default.
func Init(w io.Writer, verbose bool) *slog.Logger {
	logger := New(w, verbose)
	slog.SetDefault(logger)
	return logger
}
