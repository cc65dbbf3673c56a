// Package logging holds one of the two pieces of process-wide mutable state
// this module carries (the other is gpuaccel's accelerator registry),
// mirroring gogpu/gg's logger.go: a nil-safe atomic
// *slog.Logger pointer, silent by default, swappable by the host
// application (desktop shell or CLI) without threading a logger through
// every constructor.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// Set installs the logger used by the engine and GPU backend.
// Passing nil restores the silent default. Safe for concurrent use.
func Set(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Get returns the currently installed logger.
func Get() *slog.Logger {
	return loggerPtr.Load()
}
