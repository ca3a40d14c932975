package script

import (
	"fmt"
	"strings"
)

// SyntaxError describes a script line that does not match the grammar or
// carries an out-of-domain value. Err, when set, is the underlying sentinel
// (viewstate.ErrInvalidParameter, math.ErrDegenerateAxis).
type SyntaxError struct {
	Line int
	Text string
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ErrorList accumulates the syntax errors of one parse.
type ErrorList []*SyntaxError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d script errors:", len(l))
	for _, e := range l {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap exposes every error to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// Err returns nil for an empty list, or the list itself.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
