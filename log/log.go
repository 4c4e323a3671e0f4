// Package log exposes the loggers used across the module.
//
// The default logger writes colorized output to stdout. Applications
// embedding the library will usually install their own [slog.Logger]
// via [SetDefault] or pass one through the per-session options.
package log

import (
	"log/slog"
	"sync/atomic"

	"github.com/sipward/sipsession/internal/log"
)

var def atomic.Pointer[slog.Logger]

func init() {
	def.Store(log.Def)
}

// Default returns the logger used when no logger is configured.
func Default() *slog.Logger { return def.Load() }

// SetDefault replaces the logger returned by [Default].
// Passing nil restores the initial console logger.
func SetDefault(l *slog.Logger) {
	if l == nil {
		l = log.Def
	}
	def.Store(l)
}

// Dev returns a logger with developer-friendly multiline output.
func Dev() *slog.Logger { return log.Dev }

// Noop returns a logger that discards all records.
func Noop() *slog.Logger { return log.Noop }
