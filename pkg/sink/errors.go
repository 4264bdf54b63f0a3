package sink

import (
	"errors"
	"fmt"
)

// ErrIO matches every storage failure reported by this package
var ErrIO = errors.New("trace sink I/O failure")

// IOError describes a failed sink operation. It is never retried.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("sink %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
