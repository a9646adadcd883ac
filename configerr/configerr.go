// Package configerr describes parameters rejected at construction time.
package configerr

import (
	"fmt"

	"golang.org/x/xerrors"
)

type Error struct {
	// Field names the offending parameter.
	Field   string
	Message string

	frame xerrors.Frame
}

func New(field, format string, args ...interface{}) *Error {
	return &Error{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		frame:   xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(e.Error())
	if p.Detail() {
		e.frame.Format(p)
	}
	return nil
}

// Is reports whether err is, or wraps, a configuration error.
func Is(err error) bool {
	var cerr *Error
	return xerrors.As(err, &cerr)
}
