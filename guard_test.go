package keyloop

import (
	"io"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type guardCalls struct {
	notified atomic.Int32
	raised   chan os.Signal
	exited   chan int
}

// stubGuard returns a guard whose OS hooks are recorded instead of acted
// on; signals are delivered by writing to g.sigCh.
func stubGuard(s *Session, opts ...GuardOption) (*Guard, *guardCalls) {
	g := NewGuard(s, opts...)
	p := &guardCalls{
		raised: make(chan os.Signal, 1),
		exited: make(chan int, 1),
	}
	g.notify = func(chan<- os.Signal, ...os.Signal) { p.notified.Add(1) }
	g.stop = func(chan<- os.Signal) {}
	g.raise = func(sig os.Signal) error { p.raised <- sig; return nil }
	g.exit = func(code int) { p.exited <- code }
	g.grace = 0
	return g, p
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestGuardCloseRestores(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	g, _ := stubGuard(s)
	g.Install()

	if err := s.Enter(); err != nil {
		t.Fatal(err)
	}
	g.Close()

	if s.Active() {
		t.Error("session still active after Close")
	}
	g.Close()
	if _, restores, _ := dev.counts(); restores != 1 {
		t.Errorf("restores = %d, want 1", restores)
	}
}

func TestGuardCloseNeverEntered(t *testing.T) {
	dev := &fakeDevice{}
	g, p := stubGuard(NewSession(dev))
	g.Close() // not installed either
	g.Install()
	g.Close()

	if _, restores, _ := dev.counts(); restores != 0 {
		t.Errorf("restores = %d, want 0", restores)
	}
	select {
	case sig := <-p.raised:
		t.Errorf("raised %v without a signal", sig)
	default:
	}
}

func TestGuardInstallOnce(t *testing.T) {
	g, p := stubGuard(NewSession(&fakeDevice{}))
	g.Install()
	g.Install()
	g.Install()
	defer g.Close()

	if n := p.notified.Load(); n != 1 {
		t.Errorf("notify called %d times, want 1", n)
	}
}

func TestGuardSignalRestores(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	g, p := stubGuard(s, WithSignals(syscall.SIGTERM))
	g.Install()
	s.Enter()

	g.sigCh <- syscall.SIGTERM

	if sig := waitFor(t, p.raised, "re-raise"); sig != syscall.SIGTERM {
		t.Errorf("raised %v, want SIGTERM", sig)
	}
	if code := waitFor(t, p.exited, "exit"); code != exitCode(syscall.SIGTERM) {
		t.Errorf("exit code = %d, want %d", code, exitCode(syscall.SIGTERM))
	}
	if s.Active() {
		t.Error("session still active after signal")
	}

	// the normal-exit hook afterwards must not reset again
	g.Close()
	if _, restores, _ := dev.counts(); restores != 1 {
		t.Errorf("restores = %d, want 1", restores)
	}
}

func TestGuardSignalNeverEntered(t *testing.T) {
	dev := &fakeDevice{}
	g, p := stubGuard(NewSession(dev))
	g.Install()

	g.sigCh <- os.Interrupt
	waitFor(t, p.exited, "exit")

	if _, restores, _ := dev.counts(); restores != 0 {
		t.Errorf("restores = %d, want 0", restores)
	}
}

func TestGuardRaiseFailureExits(t *testing.T) {
	s := NewSession(&fakeDevice{})
	g, p := stubGuard(s)
	g.raise = func(os.Signal) error { return os.ErrInvalid }
	g.grace = time.Hour // must not wait when the raise failed
	g.Install()

	g.sigCh <- os.Interrupt
	if code := waitFor(t, p.exited, "exit"); code != exitCode(os.Interrupt) {
		t.Errorf("exit code = %d, want %d", code, exitCode(os.Interrupt))
	}
}

func TestGuardExit(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	g, p := stubGuard(s)
	g.Install()
	s.Enter()

	g.Exit(3)

	if code := waitFor(t, p.exited, "exit"); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if s.Active() {
		t.Error("Exit must restore before exiting")
	}
}

func TestGuardSignalMidRead(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev)
	g, p := stubGuard(s)
	g.Install()
	s.Enter()

	pr, pw := io.Pipe()
	reg := NewRegistry()
	var calls atomic.Int32
	reg.BindFunc(Rune('h'), func() { calls.Add(1) })

	dispatched := make(chan Key, 4)
	loop := NewLoop(NewReader(pr), reg, WithSession(s),
		WithAfterDispatch(func(k Key, _ bool) { dispatched <- k }))

	done := make(chan error, 1)
	go func() { done <- loop.Run() }()

	pw.Write([]byte("h"))
	waitFor(t, dispatched, "first dispatch")

	// loop is now blocked in Read
	g.sigCh <- os.Interrupt
	waitFor(t, p.exited, "signal path")
	if s.Active() {
		t.Fatal("session still active while loop blocked in read")
	}

	pw.Write([]byte("h"))
	if err := waitFor(t, done, "loop stop"); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (no dispatch after teardown)", n)
	}
	pw.Close()
	g.Close()
}

func TestWithSignalsEmptyKeepsDefaults(t *testing.T) {
	g := NewGuard(NewSession(&fakeDevice{}), WithSignals())
	if len(g.Signals()) != len(DefaultSignals()) {
		t.Errorf("Signals() = %v, want defaults", g.Signals())
	}
}

func TestGuardCloseKeepsQueuedSignal(t *testing.T) {
	for i := 0; i < 200; i++ {
		dev := &fakeDevice{}
		s := NewSession(dev)
		g, p := stubGuard(s)
		s.Enter()

		// signal lands before the handler goroutine ever runs
		g.sigCh <- os.Interrupt
		g.Install()
		g.Close()

		select {
		case code := <-p.exited:
			if code != exitCode(os.Interrupt) {
				t.Fatalf("run %d: exit code = %d, want %d", i, code, exitCode(os.Interrupt))
			}
		default:
			t.Fatalf("run %d: queued signal was dropped by Close", i)
		}
		if s.Active() {
			t.Fatalf("run %d: session still active", i)
		}
		if _, restores, _ := dev.counts(); restores != 1 {
			t.Fatalf("run %d: restores = %d, want 1", i, restores)
		}
	}
}
