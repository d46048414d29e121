package yuv

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false, so callers never
// build attributes for a disabled logger.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

// current is read on every log call and replaced by SetLogger.
var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(silent)
}

// SetLogger routes the diagnostics of yuv and its sub-packages to l.
// Nothing is logged until it is called; nil silences logging again.
// It may be called while sinks are drawing.
//
// Levels:
//   - [slog.LevelDebug]: per-frame work (texture allocations, uploads, passes)
//   - [slog.LevelInfo]: lifecycle (sink created or closed, geometry change, device selected)
//   - [slog.LevelWarn]: recoverable problems (backend fallback, release errors)
//
// Example:
//
//	yuv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger. backend and
// integration/yuvcanvas log through it too.
func Logger() *slog.Logger {
	return current.Load()
}
