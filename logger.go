package brisk

import (
	"log/slog"

	"github.com/dancazarin/brisk-sub002/internal/logging"
)

// SetLogger configures the logger for brisk and all its sub-packages.
// By default, brisk produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior).
//
// Log levels used by brisk:
//   - [slog.LevelDebug]: internal diagnostics (batch sizes, atlas uploads)
//   - [slog.LevelInfo]: important lifecycle events (device selected)
//   - [slog.LevelWarn]: non-fatal issues (shaping fallback, rasterizer errors)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	brisk.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by brisk.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
