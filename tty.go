package keyloop

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// resetSeq resets attributes and shows the cursor. Prebuilt so Restore does
// not allocate on the signal path.
var resetSeq = []byte("\x1b[0m\x1b[?25h")

// TTY is a Device backed by a real terminal through golang.org/x/term.
type TTY struct {
	in    *os.File
	out   *os.File
	fd    int
	saved *term.State
}

// NewTTY returns a Device for the terminal behind in. The reset sequence is
// written to out on Restore; out may be nil.
func NewTTY(in, out *os.File) *TTY {
	return &TTY{in: in, out: out, fd: int(in.Fd())}
}

// Stdio returns a TTY on os.Stdin/os.Stdout.
func Stdio() *TTY {
	return NewTTY(os.Stdin, os.Stdout)
}

// MakeRaw saves the current terminal state and switches to raw mode.
func (t *TTY) MakeRaw() error {
	if !term.IsTerminal(t.fd) {
		return fmt.Errorf("%s is not a terminal", t.in.Name())
	}
	st, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("make raw %s: %w", t.in.Name(), err)
	}
	t.saved = st
	return nil
}

// Restore writes the reset sequence and restores the saved state.
func (t *TTY) Restore() error {
	if t.saved == nil {
		return nil
	}
	var werr error
	if t.out != nil {
		_, werr = t.out.Write(resetSeq)
	}
	err := term.Restore(t.fd, t.saved)
	t.saved = nil
	return errors.Join(err, werr)
}

// Size returns the terminal width and height of out, or of in when out is
// nil.
func (t *TTY) Size() (width, height int, err error) {
	f := t.out
	if f == nil {
		f = t.in
	}
	return term.GetSize(int(f.Fd()))
}
