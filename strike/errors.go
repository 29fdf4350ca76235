package strike

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a script failed. All kinds abort the run.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// Structural errors are malformed scripts: re-entered incoming, nested
	// codewords, unmatched clear, runaway recursion.
	Structural
	// Resource errors are missing or unreadable payloads and camouflages.
	Resource
	// Reference errors are deliveries without a payload and calls of
	// unknown codewords.
	Reference
)

func (k ErrorKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Resource:
		return "resource"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind ErrorKind
	Line int
	Op   string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error"
	if e.Op != "" {
		s += " in " + e.Op
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" at line %d", e.Line)
	}
	return s + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNone
}

func NewError(kind ErrorKind, line int, op string, err error) *Error {
	return &Error{Kind: kind, Line: line, Op: op, Err: err}
}

func errorf(kind ErrorKind, line int, op string, format string, args ...interface{}) *Error {
	return NewError(kind, line, op, errors.Errorf(format, args...))
}
