package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")

	ErrMalformedRecord     = errors.New("domain: malformed record")
	ErrInvalidEnum         = errors.New("domain: invalid enum value")
	ErrUnresolvedReference = errors.New("domain: unresolved reference")
	ErrIO                  = errors.New("domain: i/o failure")
)

// Position locates a record inside a data file. The zero value means the
// record did not come from a file.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return ""
	}
	if p.Line == 0 {
		return p.File
	}
	return p.File + ":" + strconv.Itoa(p.Line)
}

func (p Position) prefix() string {
	if s := p.String(); s != "" {
		return s + ": "
	}
	return ""
}

// MalformedRecordError reports a record whose shape or scalar fields could
// not be decoded. Raw always carries the offending line.
type MalformedRecordError struct {
	Position
	Kind  Kind
	Raw   string
	Want  []int // accepted field counts, set for arity failures
	Got   int
	Field string // set when a single field failed to parse
	Err   error
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	b.WriteString(e.prefix())
	b.WriteString(string(e.Kind))
	b.WriteString(" record")
	switch {
	case e.Field != "":
		fmt.Fprintf(&b, ": field %s", e.Field)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	case len(e.Want) > 0:
		want := make([]string, len(e.Want))
		for i, n := range e.Want {
			want[i] = strconv.Itoa(n)
		}
		fmt.Fprintf(&b, ": want %s fields, got %d", strings.Join(want, " or "), e.Got)
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	fmt.Fprintf(&b, " (line %q)", e.Raw)
	return b.String()
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }
func (e *MalformedRecordError) Unwrap() error        { return e.Err }

// InvalidEnumValueError reports a status, period or property type that is not
// one of the known values. Matching is case-sensitive.
type InvalidEnumValueError struct {
	Position
	Field string
	Value string
	Raw   string
}

func (e *InvalidEnumValueError) Error() string {
	msg := fmt.Sprintf("%sinvalid %s %q", e.prefix(), e.Field, e.Value)
	if e.Raw != "" {
		msg += fmt.Sprintf(" (line %q)", e.Raw)
	}
	return msg
}

func (e *InvalidEnumValueError) Is(target error) bool { return target == ErrInvalidEnum }

// UnresolvedReferenceError reports a record pointing at an ID that is not
// loaded.
type UnresolvedReferenceError struct {
	Kind    Kind
	ID      string
	RefKind Kind
	RefID   string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %s: %s %q not found", e.Kind, e.ID, e.RefKind, e.RefID)
}

func (e *UnresolvedReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }

// IOError reports a data file that could not be read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error        { return e.Err }

// WithPosition stamps file, line and raw text onto a decode error. Errors of
// other types are returned unchanged.
func WithPosition(err error, file string, line int, raw string) error {
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		malformed.Position = Position{File: file, Line: line}
		if malformed.Raw == "" {
			malformed.Raw = raw
		}
		return err
	}

	var enum *InvalidEnumValueError
	if errors.As(err, &enum) {
		enum.Position = Position{File: file, Line: line}
		if enum.Raw == "" {
			enum.Raw = raw
		}
	}
	return err
}
