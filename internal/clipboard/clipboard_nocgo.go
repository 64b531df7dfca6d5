//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import "errors"

var errCGODisabled = errors.New("clipboard operations require cgo support")

type system struct{}

func (system) unavailable() error {
	if !hasDisplay() {
		return errNoDisplay
	}
	return errCGODisabled
}

func (s system) write(format, []byte) error { return s.unavailable() }

func (s system) read(format) ([]byte, error) { return nil, s.unavailable() }
