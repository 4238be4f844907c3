package keyloop

import (
	"io"
	"unicode/utf8"
)

// KeySource yields one key per call, blocking until input arrives.
type KeySource interface {
	ReadKey() (Key, error)
}

// Reader decodes raw terminal input into Keys.
//
// Terminals write an escape sequence in a single write, so a sequence is
// decoded from whatever one Read returned: an ESC that ends the buffered
// input is the Escape key itself. Only a UTF-8 rune split across reads
// causes a further Read.
type Reader struct {
	r   io.Reader
	buf [64]byte
	pos int
	end int
	err error // sticky; returned once the buffer is drained
}

// NewReader returns a Reader decoding keys from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadKey returns the next key. Once the underlying reader fails, ReadKey
// returns that error (io.EOF included) after all buffered keys.
func (r *Reader) ReadKey() (Key, error) {
	for {
		if r.pos == r.end {
			if err := r.fill(); err != nil {
				return Key{}, err
			}
		}
		b := r.buf[r.pos:r.end]
		if b[0] >= utf8.RuneSelf && !utf8.FullRune(b) && r.err == nil && len(b) < len(r.buf) {
			// rest of the rune is still in flight; a read error here is
			// sticky and the partial rune decodes as RuneError below
			r.fill()
			continue
		}
		k, n := decode(b)
		r.pos += n
		return k, nil
	}
}

// fill reads more input, keeping any unconsumed bytes at the front.
func (r *Reader) fill() error {
	if r.pos > 0 {
		r.end = copy(r.buf[:], r.buf[r.pos:r.end])
		r.pos = 0
	}
	for empty := 0; ; empty++ {
		if r.err != nil {
			return r.err
		}
		if r.end == len(r.buf) {
			return nil
		}
		n, err := r.r.Read(r.buf[r.end:])
		r.end += n
		r.err = err
		if n > 0 {
			return nil
		}
		if err == nil && empty >= 100 {
			r.err = io.ErrNoProgress
		}
	}
}

const esc = 0x1b

// decode returns the first key in b and how many bytes it used. b is
// never empty.
func decode(b []byte) (Key, int) {
	c := b[0]
	switch {
	case c == esc:
		return decodeEscape(b)
	case c == '\r' || c == '\n':
		return Key{Special: SpecialEnter}, 1
	case c == '\t':
		return Key{Special: SpecialTab}, 1
	case c == 0x7f || c == 0x08:
		return Key{Special: SpecialBackspace}, 1
	case c == 0:
		return Key{Rune: ' ', Mod: ModCtrl}, 1
	case c < esc:
		return Key{Rune: rune('a' + c - 1), Mod: ModCtrl}, 1
	case c < ' ':
		// 0x1c-0x1f: Ctrl+\ ] ^ _
		return Key{Rune: rune(c + 0x40), Mod: ModCtrl}, 1
	case c == ' ':
		return Key{Special: SpecialSpace}, 1
	case c < utf8.RuneSelf:
		return Key{Rune: rune(c)}, 1
	}
	r, n := utf8.DecodeRune(b)
	return Key{Rune: r}, n
}

func decodeEscape(b []byte) (Key, int) {
	if len(b) == 1 {
		return Key{Special: SpecialEscape}, 1
	}
	switch next := b[1]; {
	case next == '[':
		return decodeCSI(b)
	case next == 'O' && len(b) > 2:
		if sp, ok := ss3Keys[b[2]]; ok {
			return Key{Special: sp}, 3
		}
		return Key{}, 3
	case next > ' ' && next < 0x7f:
		return Key{Rune: rune(next), Mod: ModAlt}, 2
	}
	return Key{Special: SpecialEscape}, 1
}

// decodeCSI handles ESC [ params final. Unknown sequences decode to the
// zero Key so they never hit a binding by accident.
func decodeCSI(b []byte) (Key, int) {
	end := 2
	for end < len(b) && b[end] >= 0x30 && b[end] <= 0x3f {
		end++
	}
	if end == len(b) || b[end] < 0x40 || b[end] > 0x7e {
		// unterminated: treat as Alt+[
		return Key{Rune: '[', Mod: ModAlt}, 2
	}
	final := b[end]
	n := end + 1
	p0, p1 := csiParams(b[2:end])

	if final == 'Z' {
		return Key{Special: SpecialTab, Mod: ModShift}, n
	}
	if final == '~' {
		sp, ok := tildeKeys[p0]
		if !ok {
			return Key{}, n
		}
		return Key{Special: sp, Mod: xtermModifier(p1)}, n
	}
	if sp, ok := csiKeys[final]; ok {
		return Key{Special: sp, Mod: xtermModifier(p1)}, n
	}
	return Key{}, n
}

// csiParams returns the first two numeric parameters; missing ones are 0.
func csiParams(p []byte) (first, second int) {
	idx := 0
	for _, c := range p {
		switch {
		case c == ';':
			idx++
		case c >= '0' && c <= '9' && idx == 0:
			first = first*10 + int(c-'0')
		case c >= '0' && c <= '9' && idx == 1:
			second = second*10 + int(c-'0')
		}
	}
	return first, second
}

// xtermModifier decodes the "1 + bitmask" modifier parameter.
func xtermModifier(p int) Modifier {
	if p < 2 {
		return ModNone
	}
	bits := p - 1
	var m Modifier
	if bits&1 != 0 {
		m |= ModShift
	}
	if bits&(2|8) != 0 {
		m |= ModAlt
	}
	if bits&4 != 0 {
		m |= ModCtrl
	}
	return m
}

var csiKeys = map[byte]Special{
	'A': SpecialUp,
	'B': SpecialDown,
	'C': SpecialRight,
	'D': SpecialLeft,
	'H': SpecialHome,
	'F': SpecialEnd,
	'P': SpecialF1,
	'Q': SpecialF2,
	'R': SpecialF3,
	'S': SpecialF4,
}

var ss3Keys = map[byte]Special{
	'A': SpecialUp,
	'B': SpecialDown,
	'C': SpecialRight,
	'D': SpecialLeft,
	'H': SpecialHome,
	'F': SpecialEnd,
	'P': SpecialF1,
	'Q': SpecialF2,
	'R': SpecialF3,
	'S': SpecialF4,
}

var tildeKeys = map[int]Special{
	1:  SpecialHome,
	2:  SpecialInsert,
	3:  SpecialDelete,
	4:  SpecialEnd,
	5:  SpecialPageUp,
	6:  SpecialPageDown,
	7:  SpecialHome,
	8:  SpecialEnd,
	11: SpecialF1,
	12: SpecialF2,
	13: SpecialF3,
	14: SpecialF4,
	15: SpecialF5,
	17: SpecialF6,
	18: SpecialF7,
	19: SpecialF8,
	20: SpecialF9,
	21: SpecialF10,
	23: SpecialF11,
	24: SpecialF12,
}
