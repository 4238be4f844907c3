package keyloop

import (
	"io"
	"sync"
)

// fakeDevice records raw/restore calls.
type fakeDevice struct {
	mu         sync.Mutex
	raw        bool
	makeRaws   int
	restores   int
	rawErr     error
	restoreErr error
}

func (d *fakeDevice) MakeRaw() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rawErr != nil {
		return d.rawErr
	}
	d.makeRaws++
	d.raw = true
	return nil
}

func (d *fakeDevice) Restore() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restores++
	d.raw = false
	return d.restoreErr
}

func (d *fakeDevice) counts() (makeRaws, restores int, raw bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.makeRaws, d.restores, d.raw
}

// keySeq is a KeySource replaying fixed keys, then failing with err (io.EOF
// when nil).
type keySeq struct {
	keys  []Key
	err   error
	reads int
}

func (s *keySeq) ReadKey() (Key, error) {
	s.reads++
	if len(s.keys) == 0 {
		if s.err != nil {
			return Key{}, s.err
		}
		return Key{}, io.EOF
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, nil
}
