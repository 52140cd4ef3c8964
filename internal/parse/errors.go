package parse

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownUnit   = errors.New("unknown size unit")
	ErrBadMagnitude  = errors.New("bad magnitude")
	ErrMalformedLine = errors.New("malformed summary line")
	ErrNoSummary     = errors.New("no cpu or memory summary line")
	ErrNoRows        = errors.New("no filesystem rows")
)

// ParseError is a soft, per-field failure. Callers degrade the field to a
// sentinel value instead of aborting the whole parse.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
