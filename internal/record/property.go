package record

import (
	"fmt"

	"github.com/gosuda/rentals/internal/domain"
)

// PropertyLayout selects how property rows are written.
type PropertyLayout int

const (
	// LayoutTagged appends the explicit variant tag as a ninth field.
	LayoutTagged PropertyLayout = iota
	// LayoutLegacy writes eight fields and relies on the ID prefix to carry
	// the variant.
	LayoutLegacy
)

const (
	legacyPropertyFields = 8
	taggedPropertyFields = 9
)

// EncodeProperty writes id,address,price,status,owner followed by the three
// subtype fields, then the tag unless layout is LayoutLegacy.
func EncodeProperty(p *domain.Property, layout PropertyLayout) (string, error) {
	e := newEncoder(domain.KindProperty, p.ID)
	e.text("id", p.ID)
	e.text("address", p.Address)
	e.amount("price", p.Price)
	_, statusErr := domain.ParsePropertyStatus(string(p.Status))
	e.enum("status", string(p.Status), statusErr)
	e.text("owner", p.Owner)

	switch d := p.Details.(type) {
	case domain.Residential:
		e.count(d.Bedrooms)
		e.boolean(d.HasGarden)
		e.boolean(d.PetFriendly)
	case domain.Commercial:
		e.text("businessType", d.BusinessType)
		e.count(d.ParkingSpaces)
		e.amount("squareFootage", d.SquareFootage)
	default:
		return "", fmt.Errorf("property %s: missing subtype details: %w", p.ID, ErrUnencodable)
	}

	if layout == LayoutLegacy {
		if inferred := domain.InferPropertyType(p.ID); inferred != p.Type() {
			return "", fmt.Errorf("property %s: legacy layout would read back as %s: %w", p.ID, inferred, ErrUnencodable)
		}
	} else {
		e.raw(string(p.Type()))
	}

	return e.line()
}

// DecodeProperty reads both layouts. Eight-field rows take their variant from
// the ID prefix, nine-field rows from the trailing tag.
func DecodeProperty(line string) (*domain.Property, error) {
	f, err := fields(domain.KindProperty, line, legacyPropertyFields, taggedPropertyFields)
	if err != nil {
		return nil, err
	}

	d := &decoder{kind: domain.KindProperty, raw: line}
	p := &domain.Property{
		ID:      d.id("id", f[0]),
		Address: f[1],
		Price:   d.amount("price", f[2]),
		Owner:   f[4],
	}
	status, err := domain.ParsePropertyStatus(f[3])
	if err != nil {
		d.fail("status", err)
	}
	p.Status = status

	kind := domain.InferPropertyType(f[0])
	if len(f) == taggedPropertyFields {
		kind, err = domain.ParsePropertyType(f[8])
		if err != nil {
			d.fail("type", err)
		}
	}

	switch kind {
	case domain.PropertyResidential:
		p.Details = domain.Residential{
			Bedrooms:    d.count("bedrooms", f[5]),
			HasGarden:   d.boolean("hasGarden", f[6]),
			PetFriendly: d.boolean("isPetFriendly", f[7]),
		}
	case domain.PropertyCommercial:
		p.Details = domain.Commercial{
			BusinessType:  f[5],
			ParkingSpaces: d.count("parkingSpaces", f[6]),
			SquareFootage: d.amount("squareFootage", f[7]),
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
