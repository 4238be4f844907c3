package keyloop

import (
	"errors"
	"fmt"
)

// LoopState is the state of a Loop.
type LoopState int

const (
	Idle LoopState = iota
	Running
	Stopped
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("LoopState(%d)", int(s))
}

// ErrLoopStopped is returned by Run on a loop that has already run.
var ErrLoopStopped = errors.New("keyloop: loop already stopped")

// Loop reads keys one at a time and dispatches them through a Registry.
type Loop struct {
	src     KeySource
	reg     *Registry
	session *Session
	after   func(key Key, handled bool)

	state   LoopState
	running bool
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSession ties the loop to a session: once the session has been torn
// down by someone else (a termination signal), no further key is
// dispatched and the loop stops.
func WithSession(s *Session) LoopOption {
	return func(l *Loop) { l.session = s }
}

// WithAfterDispatch sets a callback run after every key read, with whether
// a handler was found. Useful for rendering after each update.
func WithAfterDispatch(fn func(key Key, handled bool)) LoopOption {
	return func(l *Loop) { l.after = fn }
}

// NewLoop returns an Idle loop reading from src.
func NewLoop(src KeySource, reg *Registry, opts ...LoopOption) *Loop {
	l := &Loop{src: src, reg: reg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the loop state.
func (l *Loop) State() LoopState { return l.state }

// Stop asks the loop to stop after the current handler returns. It is meant
// to be called from a handler.
func (l *Loop) Stop() { l.running = false }

// Run blocks reading and dispatching keys until Stop is called or the
// source fails. Unbound keys are ignored.
//
// A read failure stops the loop without invoking any handler; the error is
// returned so the caller can tell end of input (io.EOF) from a broken
// terminal. Run returns nil when stopped through Stop.
func (l *Loop) Run() error {
	if l.state != Idle {
		return ErrLoopStopped
	}
	l.state = Running
	l.running = true
	defer func() { l.state = Stopped }()

	guarded := l.session != nil && l.session.Active()

	for l.running {
		key, err := l.src.ReadKey()
		if err != nil {
			l.running = false
			logger().Debug("input closed", "err", err)
			return err
		}
		if guarded && !l.session.Active() {
			l.running = false
			logger().Debug("session torn down, dropping key", "key", key.String())
			return nil
		}
		handled := l.reg.Dispatch(key)
		if l.after != nil {
			l.after(key, handled)
		}
	}
	return nil
}
