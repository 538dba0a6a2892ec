package mesh

import (
	"log/slog"
	"sync/atomic"
)

var (
	discard = slog.New(slog.DiscardHandler)
	logger  atomic.Pointer[slog.Logger]
)

func init() { logger.Store(discard) }

// SetLogger installs the logger shared by mesh and its sub-packages.
// Nothing is logged until it is called. Nil restores the silent logger.
//
// Levels:
//   - [slog.LevelDebug]: parse results, uploads, draw calls, cache activity
//   - [slog.LevelInfo]: device, pipeline and target creation
//   - [slog.LevelWarn]: resources that could not be released
//
// For example:
//
//	mesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	logger.Store(l)
}

// Logger returns the logger installed by SetLogger. It may be called from
// any goroutine.
func Logger() *slog.Logger { return logger.Load() }
