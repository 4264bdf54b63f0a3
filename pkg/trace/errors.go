package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrState is matched by every lifecycle violation
	ErrState = errors.New("invalid trace session state")

	// ErrNoSession is returned when no open session is carried by the context
	ErrNoSession = fmt.Errorf("%w: no active session", ErrState)

	// ErrSessionClosed is returned when a closed session is asked to record
	ErrSessionClosed = fmt.Errorf("%w: session is closed", ErrState)

	// ErrEmptyName is returned when a span has no name
	ErrEmptyName = errors.New("span name is required")
)
