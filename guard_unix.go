//go:build unix

package keyloop

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultSignals returns the termination signals a Guard handles by
// default.
func DefaultSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}
}

// raise restores the default disposition of sig and sends it to this
// process.
func raise(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return unix.EINVAL
	}
	signal.Reset(sig)
	return unix.Kill(unix.Getpid(), s)
}

// exitCode is the shell convention for death by signal.
func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

var signalNames = map[string]os.Signal{
	"SIGINT":  unix.SIGINT,
	"SIGTERM": unix.SIGTERM,
	"SIGHUP":  unix.SIGHUP,
	"SIGQUIT": unix.SIGQUIT,
	"SIGUSR1": unix.SIGUSR1,
	"SIGUSR2": unix.SIGUSR2,
}
