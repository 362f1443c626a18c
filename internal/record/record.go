// Package record converts entities to and from single comma-delimited lines.
//
// Decoding is structural only: references stay as raw IDs and nothing is
// looked up. Field counts are strict per kind. Values are never quoted, so
// encoding refuses any value that would smuggle in a delimiter or a line
// break rather than write a row that cannot be read back.
package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosuda/rentals/internal/domain"
)

const (
	Delimiter = ","
	// ListDelimiter separates IDs inside a single field.
	ListDelimiter = ";"
	DateLayout    = "2006-01-02"
)

// ErrUnencodable is returned when a value cannot be written without
// corrupting the row.
var ErrUnencodable = errors.New("record: value cannot be encoded")

// Format bundles the codec functions for one entity kind.
type Format[T domain.Entity] struct {
	Kind   domain.Kind
	Encode func(T) (string, error)
	Decode func(string) (T, error)
}

var (
	Tenants    = Format[*domain.Tenant]{Kind: domain.KindTenant, Encode: EncodeTenant, Decode: DecodeTenant}
	Hosts      = Format[*domain.Host]{Kind: domain.KindHost, Encode: EncodeHost, Decode: DecodeHost}
	Agreements = Format[*domain.RentalAgreement]{Kind: domain.KindAgreement, Encode: EncodeAgreement, Decode: DecodeAgreement}
	Payments   = Format[*domain.Payment]{Kind: domain.KindPayment, Encode: EncodePayment, Decode: DecodePayment}
)

// Properties returns the property format writing the given layout. Decoding
// accepts both layouts regardless.
func Properties(layout PropertyLayout) Format[*domain.Property] {
	return Format[*domain.Property]{
		Kind: domain.KindProperty,
		Encode: func(p *domain.Property) (string, error) {
			return EncodeProperty(p, layout)
		},
		Decode: DecodeProperty,
	}
}

// Encode dispatches on the concrete entity type. Properties use the tagged
// layout.
func Encode(e domain.Entity) (string, error) {
	switch v := e.(type) {
	case *domain.Tenant:
		return EncodeTenant(v)
	case *domain.Host:
		return EncodeHost(v)
	case *domain.Property:
		return EncodeProperty(v, LayoutTagged)
	case *domain.RentalAgreement:
		return EncodeAgreement(v)
	case *domain.Payment:
		return EncodePayment(v)
	default:
		return "", fmt.Errorf("record.Encode: unsupported entity %T", e)
	}
}

// Decode parses line as a record of the given kind.
func Decode(kind domain.Kind, line string) (domain.Entity, error) {
	switch kind {
	case domain.KindTenant:
		return DecodeTenant(line)
	case domain.KindHost:
		return DecodeHost(line)
	case domain.KindProperty:
		return DecodeProperty(line)
	case domain.KindAgreement:
		return DecodeAgreement(line)
	case domain.KindPayment:
		return DecodePayment(line)
	default:
		return nil, &domain.InvalidEnumValueError{Field: "entity kind", Value: string(kind)}
	}
}

// fields splits a line and checks its arity against the accepted counts.
func fields(kind domain.Kind, line string, want ...int) ([]string, error) {
	parts := strings.Split(line, Delimiter)
	for _, n := range want {
		if len(parts) == n {
			return parts, nil
		}
	}
	return nil, &domain.MalformedRecordError{Kind: kind, Raw: line, Want: want, Got: len(parts)}
}

// decoder accumulates the first field error of a record so callers can parse
// every column and check once.
type decoder struct {
	kind domain.Kind
	raw  string
	err  error
}

func (d *decoder) fail(field string, err error) {
	if d.err != nil {
		return
	}
	var enum *domain.InvalidEnumValueError
	if errors.As(err, &enum) {
		enum.Raw = d.raw
		d.err = enum
		return
	}
	d.err = &domain.MalformedRecordError{Kind: d.kind, Raw: d.raw, Field: field, Err: err}
}

func (d *decoder) id(field, s string) string {
	if s == "" {
		d.fail(field, errors.New("must not be empty"))
	}
	return s
}

func (d *decoder) date(field, s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		d.fail(field, err)
	}
	return t
}

func (d *decoder) amount(field, s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.fail(field, err)
		return 0
	}
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		d.fail(field, errors.New("must be a finite number"))
	case v < 0:
		d.fail(field, errors.New("must not be negative"))
	}
	return v
}

func (d *decoder) count(field, s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		d.fail(field, err)
		return 0
	}
	if n < 0 {
		d.fail(field, errors.New("must not be negative"))
	}
	return n
}

func (d *decoder) boolean(field, s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		d.fail(field, err)
	}
	return b
}

// encoder builds a row and remembers the first value that cannot be written.
type encoder struct {
	kind   domain.Kind
	id     string
	fields []string
	err    error
}

func newEncoder(kind domain.Kind, id string) *encoder {
	e := &encoder{kind: kind, id: id}
	if id == "" {
		e.err = fmt.Errorf("%s: empty id: %w", kind, ErrUnencodable)
	}
	return e
}

func (e *encoder) text(field, s string) {
	if e.err == nil && strings.ContainsAny(s, Delimiter+"\r\n") {
		e.err = fmt.Errorf("%s %s: field %s contains a delimiter or line break: %w", e.kind, e.id, field, ErrUnencodable)
	}
	e.fields = append(e.fields, s)
}

// raw appends a value that was already validated by the caller.
func (e *encoder) raw(s string) {
	e.fields = append(e.fields, s)
}

// enum appends an enum value; parseErr is the result of re-parsing it.
func (e *encoder) enum(field, s string, parseErr error) {
	if e.err == nil && parseErr != nil {
		e.err = fmt.Errorf("%s %s: field %s: %w: %w", e.kind, e.id, field, parseErr, ErrUnencodable)
	}
	e.fields = append(e.fields, s)
}

func (e *encoder) date(t time.Time) {
	e.fields = append(e.fields, t.Format(DateLayout))
}

func (e *encoder) amount(field string, v float64) {
	switch {
	case e.err != nil:
	case math.IsNaN(v) || math.IsInf(v, 0):
		e.err = fmt.Errorf("%s %s: field %s is not a finite number: %w", e.kind, e.id, field, ErrUnencodable)
	case v < 0:
		e.err = fmt.Errorf("%s %s: field %s is negative: %w", e.kind, e.id, field, ErrUnencodable)
	}
	e.fields = append(e.fields, strconv.FormatFloat(v, 'f', 2, 64))
}

func (e *encoder) count(v int) {
	e.fields = append(e.fields, strconv.Itoa(v))
}

func (e *encoder) boolean(v bool) {
	e.fields = append(e.fields, strconv.FormatBool(v))
}

func (e *encoder) line() (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return strings.Join(e.fields, Delimiter), nil
}
