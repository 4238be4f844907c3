package keyloop

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Modifier represents key modifiers (Ctrl, Alt, Shift).
type Modifier uint8

const (
	ModNone Modifier = 0
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
)

// Special represents special (non-printable) keys.
type Special uint8

const (
	SpecialNone Special = iota
	SpecialEscape
	SpecialEnter
	SpecialTab
	SpecialSpace
	SpecialBackspace
	SpecialUp
	SpecialDown
	SpecialLeft
	SpecialRight
	SpecialHome
	SpecialEnd
	SpecialPageUp
	SpecialPageDown
	SpecialInsert
	SpecialDelete
	SpecialF1
	SpecialF2
	SpecialF3
	SpecialF4
	SpecialF5
	SpecialF6
	SpecialF7
	SpecialF8
	SpecialF9
	SpecialF10
	SpecialF11
	SpecialF12
)

// Key identifies one discrete input event. Keys are comparable and are
// used directly as Registry keys.
type Key struct {
	Rune    rune
	Mod     Modifier
	Special Special
}

// Rune returns the Key for a plain printable character.
func Rune(r rune) Key { return Key{Rune: r} }

// Named returns the Key for a special key without modifiers.
func Named(s Special) Key { return Key{Special: s} }

// End is the default end-of-session key.
var End = Named(SpecialEnd)

// ErrNotSingleKey is returned by ParseKey when the notation does not
// describe exactly one key.
var ErrNotSingleKey = errors.New("keyloop: not a single key")

// ErrUnsendable is returned by ParseKey for keys no terminal can send, such
// as Ctrl with a digit.
var ErrUnsendable = errors.New("keyloop: terminal cannot send key")

var specialNames = [...]string{
	SpecialEscape:    "Esc",
	SpecialEnter:     "CR",
	SpecialTab:       "Tab",
	SpecialSpace:     "Space",
	SpecialBackspace: "BS",
	SpecialUp:        "Up",
	SpecialDown:      "Down",
	SpecialLeft:      "Left",
	SpecialRight:     "Right",
	SpecialHome:      "Home",
	SpecialEnd:       "End",
	SpecialPageUp:    "PageUp",
	SpecialPageDown:  "PageDown",
	SpecialInsert:    "Insert",
	SpecialDelete:    "Del",
	SpecialF1:        "F1",
	SpecialF2:        "F2",
	SpecialF3:        "F3",
	SpecialF4:        "F4",
	SpecialF5:        "F5",
	SpecialF6:        "F6",
	SpecialF7:        "F7",
	SpecialF8:        "F8",
	SpecialF9:        "F9",
	SpecialF10:       "F10",
	SpecialF11:       "F11",
	SpecialF12:       "F12",
}

// lookup table for ParseKey, lower-cased; includes the common aliases
var specialByName = func() map[string]Special {
	m := map[string]Special{
		"escape":    SpecialEscape,
		"enter":     SpecialEnter,
		"return":    SpecialEnter,
		"backspace": SpecialBackspace,
		"delete":    SpecialDelete,
	}
	for s, name := range specialNames {
		if name != "" {
			m[strings.ToLower(name)] = Special(s)
		}
	}
	return m
}()

// String returns the vim-style notation for the key, e.g. "h", "<End>",
// "<C-c>". ParseKey maps the result of any key a Reader decodes back to
// the same Key.
func (k Key) String() string {
	if k.Special == SpecialNone && k.Mod == ModNone {
		if k.Rune == 0 {
			return ""
		}
		if k.Rune == '<' {
			return "<lt>"
		}
		return string(k.Rune)
	}

	var sb strings.Builder
	sb.WriteByte('<')
	if k.Mod&ModCtrl != 0 {
		sb.WriteString("C-")
	}
	if k.Mod&ModAlt != 0 {
		sb.WriteString("A-")
	}
	if k.Mod&ModShift != 0 {
		sb.WriteString("S-")
	}
	switch {
	case k.Special != SpecialNone && int(k.Special) < len(specialNames):
		sb.WriteString(specialNames[k.Special])
	case k.Rune == '<':
		sb.WriteString("lt")
	default:
		sb.WriteRune(k.Rune)
	}
	sb.WriteByte('>')
	return sb.String()
}

// ParseKey parses vim-style notation for a single key:
//
//	"h"        → h
//	"<End>"    → End key
//	"<C-w>"    → Ctrl+W
//	"<A-x>"    → Alt+X ("<M-x>" is accepted too)
//	"<S-Tab>"  → Shift+Tab
//	"<lt>"     → literal '<'
//
// Sequences such as "gg" or "<C-w>j" are rejected with ErrNotSingleKey.
//
// The result is the Key a Reader decodes for the same keystroke: " " is
// <Space>, "<C-A>" is <C-a>, "<C-h>" is <BS>, "<S-a>" is "A".
func ParseKey(s string) (Key, error) {
	k, err := parseKey(s)
	if err != nil {
		return Key{}, err
	}
	return canonical(k, s)
}

func parseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrNotSingleKey)
	}

	if s[0] != '<' || len(s) < 3 || s[len(s)-1] != '>' {
		r, size := utf8.DecodeRuneInString(s)
		if size != len(s) || r == utf8.RuneError {
			return Key{}, fmt.Errorf("%w: %q", ErrNotSingleKey, s)
		}
		return Key{Rune: r}, nil
	}

	inner := s[1 : len(s)-1]
	if strings.ContainsAny(inner, "<>") {
		return Key{}, fmt.Errorf("%w: %q", ErrNotSingleKey, s)
	}

	var k Key
	parts := strings.Split(inner, "-")
	last := parts[len(parts)-1]
	// "<C-->" splits into ["C", "", ""]: the key itself is '-'
	if last == "" && len(parts) > 2 {
		parts = parts[:len(parts)-1]
		last = "-"
	}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "c":
			k.Mod |= ModCtrl
		case "a", "m":
			k.Mod |= ModAlt
		case "s":
			k.Mod |= ModShift
		default:
			return Key{}, fmt.Errorf("keyloop: unknown modifier %q in %q", mod, s)
		}
	}

	lower := strings.ToLower(last)
	if sp, ok := specialByName[lower]; ok {
		k.Special = sp
		return k, nil
	}
	if lower == "lt" {
		k.Rune = '<'
		return k, nil
	}
	r, size := utf8.DecodeRuneInString(last)
	if size == 0 || size != len(last) {
		return Key{}, fmt.Errorf("keyloop: unknown key name %q in %q", last, s)
	}
	k.Rune = r
	return k, nil
}

// canonical rewrites k into the form decode produces. Terminals send
// Tab, Enter and Backspace as the same bytes as Ctrl+I, Ctrl+M and Ctrl+H,
// and send Ctrl only for letters and a handful of punctuation.
func canonical(k Key, s string) (Key, error) {
	if k.Special == SpecialNone {
		switch k.Rune {
		case ' ':
			k.Rune, k.Special = 0, SpecialSpace
		case '\t':
			k.Rune, k.Special = 0, SpecialTab
		case '\r', '\n':
			k.Rune, k.Special = 0, SpecialEnter
		case 0x7f, 0x08:
			k.Rune, k.Special = 0, SpecialBackspace
		case esc:
			k.Rune, k.Special = 0, SpecialEscape
		}
	}

	if k.Mod&ModShift != 0 && k.Rune >= 'a' && k.Rune <= 'z' {
		k.Rune -= 'a' - 'A'
		k.Mod &^= ModShift
	}

	switch {
	case k.Mod != ModCtrl:
		return k, nil
	case k.Special == SpecialSpace:
		// NUL
		return Key{Rune: ' ', Mod: ModCtrl}, nil
	case k.Special != SpecialNone:
		return k, nil
	}

	r := k.Rune
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	switch r {
	case 'h':
		return Named(SpecialBackspace), nil
	case 'i':
		return Named(SpecialTab), nil
	case 'j', 'm':
		return Named(SpecialEnter), nil
	case '[':
		return Named(SpecialEscape), nil
	case ' ', '\\', ']', '^', '_':
		return Key{Rune: r, Mod: ModCtrl}, nil
	}
	if r >= 'a' && r <= 'z' {
		return Key{Rune: r, Mod: ModCtrl}, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnsendable, s)
}
