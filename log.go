package keyloop

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// The library never writes to stderr on its own: while the terminal is raw
// stray lines would corrupt the screen. Logging is off until SetLogger.
var pkgLogger atomic.Pointer[slog.Logger]

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger sets the logger used by the package. A nil logger disables
// logging.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return discard
}
