//go:build !unix

package keyloop

import (
	"errors"
	"os"
)

// DefaultSignals returns the termination signals a Guard handles by
// default.
func DefaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// Re-raising is not available; the guard falls back to exiting by hand.
func raise(os.Signal) error {
	return errors.ErrUnsupported
}

func exitCode(os.Signal) int { return 1 }

var signalNames = map[string]os.Signal{
	"SIGINT": os.Interrupt,
}
