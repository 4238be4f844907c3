package keyloop

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
)

var (
	// ErrAlreadyActive is returned by Session.Enter when the terminal is
	// already in raw mode.
	ErrAlreadyActive = errors.New("keyloop: session already active")

	// ErrDeviceUnavailable is returned by Session.Enter when the device
	// cannot be put into raw mode (not a terminal, ioctl failure).
	ErrDeviceUnavailable = errors.New("keyloop: terminal device unavailable")
)

// Device is the terminal primitive a Session drives.
//
// Restore is called from a signal handler goroutine while the main
// goroutine may be blocked reading, so it must not depend on locks held by
// the reader. It is called at most once per successful MakeRaw.
type Device interface {
	MakeRaw() error
	Restore() error
}

// Mode is the terminal mode owned by a Session.
type Mode int32

const (
	NormalMode Mode = iota
	RawMode
	restoring // Raw → Normal transition in progress
)

func (m Mode) String() string {
	switch m {
	case NormalMode:
		return "normal"
	case RawMode:
		return "raw"
	case restoring:
		return "restoring"
	}
	return fmt.Sprintf("Mode(%d)", int32(m))
}

// Session owns the raw/normal mode of one terminal device.
//
// The mode lives in an atomic so Exit may be called from a signal handler
// without locking. Exactly one caller wins the Raw → Normal transition and
// resets the device; every other Exit is a no-op.
type Session struct {
	dev  Device
	mode atomic.Int32

	// last Restore error seen by the normal (non-forced) exit path
	err error
}

// NewSession returns a Session in NormalMode for dev.
func NewSession(dev Device) *Session {
	return &Session{dev: dev}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	return Mode(s.mode.Load())
}

// Active reports whether the terminal is in raw mode.
func (s *Session) Active() bool {
	return s.Mode() == RawMode
}

// Enter puts the device into raw mode. On failure the session stays in
// NormalMode and the returned error wraps ErrDeviceUnavailable.
func (s *Session) Enter() error {
	if s.Mode() != NormalMode {
		return ErrAlreadyActive
	}
	if err := s.dev.MakeRaw(); err != nil {
		logger().Error("entering raw mode", "err", err)
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	s.err = nil
	s.mode.Store(int32(RawMode))
	logger().Debug("terminal in raw mode")
	return nil
}

// Exit restores the device to normal mode. It is a no-op when the session
// is not in raw mode.
//
// With force set, Exit only performs the device reset: no logging, no
// error bookkeeping. That is the path taken from a termination signal.
// Without force, Exit also waits for a concurrent forced reset to finish,
// so the caller never observes a half-restored terminal.
func (s *Session) Exit(force bool) {
	if !s.mode.CompareAndSwap(int32(RawMode), int32(restoring)) {
		if !force {
			s.settle()
		}
		return
	}

	err := s.dev.Restore()
	s.mode.Store(int32(NormalMode))
	if force {
		return
	}

	s.err = err
	if err != nil {
		logger().Warn("restoring terminal", "err", err)
		return
	}
	logger().Debug("terminal restored")
}

// Err returns the device error from the last non-forced Exit, if any.
func (s *Session) Err() error {
	return s.err
}

// settle waits out a Raw → Normal transition running on another goroutine.
func (s *Session) settle() {
	for s.Mode() == restoring {
		runtime.Gosched()
	}
}
