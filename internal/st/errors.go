package st

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminated is returned when a control structure has no matching
	// END_* keyword before the end of the input.
	ErrUnterminated = errors.New("unterminated control structure")
	// ErrMalformed is returned for mismatched END_* keywords and for
	// structures missing a mandatory keyword (IF without THEN, CASE without OF).
	ErrMalformed = errors.New("malformed control structure")
)

// ParseError describes a control-structure failure. It unwraps to
// ErrUnterminated or ErrMalformed.
type ParseError struct {
	Err     error
	Keyword string
	Offset  int
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s (offset %d)", e.Err, e.Msg, e.Offset)
}

func (e *ParseError) Unwrap() error { return e.Err }

func unterminated(kw string, off int) *ParseError {
	return &ParseError{
		Err:     ErrUnterminated,
		Keyword: kw,
		Offset:  off,
		Msg:     fmt.Sprintf("%s without matching %s", kw, blockEnd[kw]),
	}
}

func malformed(kw string, off int, format string, args ...any) *ParseError {
	return &ParseError{
		Err:     ErrMalformed,
		Keyword: kw,
		Offset:  off,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// shift moves the offset of a *ParseError by base, so errors raised on a
// sub-slice point into the caller's text.
func shift(err error, base int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Offset += base
	}
	return err
}
