// Package logging configures the process-wide structured logger.
//
// Output goes to stderr so that harness reports and the end-of-run summary
// on stdout stay machine-readable. Verbosity maps onto slog levels:
// "quiet" shows warnings and errors only, "normal" adds per-component
// progress, "verbose" adds engine output echoing and per-item diagnostics.
package logging

import (
	"log/slog"
	"os"
)

// Opts strips the time attribute: runs are interactive and timestamps only
// add noise to the diagnostics stream.
var Opts = &slog.HandlerOptions{
	Level: slog.LevelInfo,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	},
}

// New builds a logger for the given verbosity setting. Unknown values fall
// back to "normal".
func New(verbosity string) *slog.Logger {
	level := slog.LevelInfo
	switch verbosity {
	case "quiet":
		level = slog.LevelWarn
	case "verbose":
		level = slog.LevelDebug
	}
	opts := *Opts
	opts.Level = level
	return slog.New(slog.NewTextHandler(os.Stderr, &opts))
}

// Default is the logger used before configuration is loaded.
var Default = New("normal")
