package record

import (
	"fmt"
	"strings"

	"github.com/gosuda/rentals/internal/domain"
)

// Person rows are id,fullName,dateOfBirth,contact. Contact info is
// conventionally "email,phone", so rows written with the two halves split
// carry five fields; rows holding a single contact value carry four.

func EncodeTenant(t *domain.Tenant) (string, error) {
	return encodePerson(domain.KindTenant, &t.Person)
}

func DecodeTenant(line string) (*domain.Tenant, error) {
	p, err := decodePerson(domain.KindTenant, line)
	if err != nil {
		return nil, err
	}
	return &domain.Tenant{Person: p}, nil
}

func EncodeHost(h *domain.Host) (string, error) {
	return encodePerson(domain.KindHost, &h.Person)
}

func DecodeHost(line string) (*domain.Host, error) {
	p, err := decodePerson(domain.KindHost, line)
	if err != nil {
		return nil, err
	}
	return &domain.Host{Person: p}, nil
}

func encodePerson(kind domain.Kind, p *domain.Person) (string, error) {
	e := newEncoder(kind, p.ID)
	e.text("id", p.ID)
	e.text("fullName", p.FullName)
	e.date(p.DateOfBirth)

	// The one comma a contact may hold is the email/phone split.
	if e.err == nil && (strings.Count(p.ContactInfo, Delimiter) > 1 || strings.ContainsAny(p.ContactInfo, "\r\n")) {
		e.err = fmt.Errorf("%s %s: field contactInfo has more than one delimiter: %w", kind, p.ID, ErrUnencodable)
	}
	e.raw(p.ContactInfo)

	return e.line()
}

func decodePerson(kind domain.Kind, line string) (domain.Person, error) {
	f, err := fields(kind, line, 4, 5)
	if err != nil {
		return domain.Person{}, err
	}

	d := &decoder{kind: kind, raw: line}
	p := domain.Person{
		ID:          d.id("id", f[0]),
		FullName:    f[1],
		DateOfBirth: d.date("dateOfBirth", f[2]),
		ContactInfo: strings.Join(f[3:], Delimiter),
	}
	if d.err != nil {
		return domain.Person{}, d.err
	}
	return p, nil
}
