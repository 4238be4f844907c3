package keyloop

import (
	"fmt"
	"io"
)

// Action names used by BindDefaults, usable as [bindings] keys in config.
const (
	ActionQuit   = "quit"
	ActionRedraw = "draw_headers"
)

// App is the application context: one Session, one Registry and the Loop
// and Guard wired to them.
type App struct {
	Session  *Session
	Registry *Registry
	Loop     *Loop
	Guard    *Guard

	cfg Config
}

// New builds an App over dev, reading keys from src. Config signals
// and bindings are resolved here so a bad config fails before the
// terminal is touched.
func New(cfg Config, dev Device, src io.Reader, opts ...LoopOption) (*App, error) {
	sigs, err := cfg.TermSignals()
	if err != nil {
		return nil, err
	}

	a := &App{
		Session:  NewSession(dev),
		Registry: NewRegistry(),
		cfg:      cfg,
	}
	opts = append([]LoopOption{WithSession(a.Session)}, opts...)
	a.Loop = NewLoop(NewReader(src), a.Registry, opts...)
	a.Guard = NewGuard(a.Session, WithSignals(sigs...))
	return a, nil
}

// Quit restores the terminal and stops the loop.
func (a *App) Quit() {
	a.Session.Exit(false)
	a.Loop.Stop()
}

// BindDefaults installs the default bindings, End → quit and h → redraw,
// then applies the config's [bindings] table. A nil redraw leaves h
// unbound.
func (a *App) BindDefaults(redraw Handler) error {
	a.Registry.BindNamed(ActionQuit, End, HandlerFunc(a.Quit))
	if redraw != nil {
		a.Registry.BindNamed(ActionRedraw, Rune('h'), redraw)
	}
	return a.Registry.ApplyConfig(a.cfg.Bindings)
}

// Run installs the guard, enters raw mode and runs the loop until it
// stops. A startup failure is returned with the terminal untouched. A loop
// that ends on a read failure is a normal stop: the error is logged, not
// returned.
func (a *App) Run() error {
	a.Guard.Install()
	defer a.Guard.Close()

	if err := a.Session.Enter(); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if err := a.Loop.Run(); err != nil {
		logger().Debug("loop stopped on read failure", "err", err)
	}
	return nil
}
