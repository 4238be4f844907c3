package keyloop

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"
)

// Guard restores a Session however the process ends: through Close on the
// normal exit path, or from a termination signal.
type Guard struct {
	session *Session
	signals []os.Signal

	// swapped out in tests
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
	raise  func(sig os.Signal) error
	exit   func(code int)
	grace  time.Duration // wait for a re-raised signal before exiting by hand

	sigCh     chan os.Signal
	install   sync.Once
	closed    sync.Once
	installed atomic.Bool
	quit      chan struct{} // closed by Close to end the handler goroutine
	done      chan struct{} // closed when the handler goroutine returns
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithSignals sets the termination signals the guard handles. An empty
// list keeps the defaults.
func WithSignals(sigs ...os.Signal) GuardOption {
	return func(g *Guard) {
		if len(sigs) > 0 {
			g.signals = sigs
		}
	}
}

// NewGuard returns a Guard for s handling DefaultSignals unless
// WithSignals says otherwise. Nothing is registered until Install.
func NewGuard(s *Session, opts ...GuardOption) *Guard {
	g := &Guard{
		session: s,
		signals: DefaultSignals(),
		notify:  signal.Notify,
		stop:    signal.Stop,
		raise:   raise,
		exit:    os.Exit,
		grace:   time.Second,
		sigCh:   make(chan os.Signal, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Signals returns the signals the guard handles.
func (g *Guard) Signals() []os.Signal { return g.signals }

// Install starts handling termination signals. Calls after the first are
// no-ops.
func (g *Guard) Install() {
	g.install.Do(func() {
		g.notify(g.sigCh, g.signals...)
		g.installed.Store(true)
		go g.handle()
		logger().Debug("lifecycle guard installed", "signals", g.signals)
	})
}

// handle waits for a termination signal until Close. A signal already
// queued when Close arrives still takes the signal path.
func (g *Guard) handle() {
	defer close(g.done)
	select {
	case sig := <-g.sigCh:
		g.terminate(sig)
	case <-g.quit:
		select {
		case sig := <-g.sigCh:
			g.terminate(sig)
		default:
		}
	}
}

// terminate runs the signal path. It touches nothing but the session reset,
// then hands the signal back to the OS so the process ends the way it
// would have without us.
func (g *Guard) terminate(sig os.Signal) {
	g.session.Exit(true)
	g.stop(g.sigCh)
	if err := g.raise(sig); err == nil {
		time.Sleep(g.grace)
	}
	g.exit(exitCode(sig))
}

// Close is the normal-exit hook: it restores the terminal if still raw and
// stops signal handling. If a termination signal got in first, Close waits
// for the signal path, which ends the process.
func (g *Guard) Close() {
	if g.session.Active() {
		g.session.Exit(false)
	} else {
		g.session.settle()
	}

	g.closed.Do(func() {
		g.stop(g.sigCh)
		close(g.quit)
	})
	if g.installed.Load() {
		<-g.done
	}
}

// Exit runs Close and exits with code. Use it on exit paths that would
// skip a deferred Close.
func (g *Guard) Exit(code int) {
	g.Close()
	g.exit(code)
}
