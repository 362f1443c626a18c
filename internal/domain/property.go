package domain

import "strings"

type PropertyStatus string

const (
	PropertyAvailable        PropertyStatus = "AVAILABLE"
	PropertyRented           PropertyStatus = "RENTED"
	PropertyUnderMaintenance PropertyStatus = "UNDER_MAINTENANCE"
)

func ParsePropertyStatus(s string) (PropertyStatus, error) {
	return parseEnum("property status", s, PropertyAvailable, PropertyRented, PropertyUnderMaintenance)
}

// PropertyType is the persisted discriminator of the Property variant.
type PropertyType string

const (
	PropertyResidential PropertyType = "RESIDENTIAL"
	PropertyCommercial  PropertyType = "COMMERCIAL"
)

func ParsePropertyType(s string) (PropertyType, error) {
	return parseEnum("property type", s, PropertyResidential, PropertyCommercial)
}

// InferPropertyType applies the legacy naming rule used by untagged rows:
// IDs starting with "R" are residential, everything else is commercial.
func InferPropertyType(id string) PropertyType {
	if strings.HasPrefix(id, "R") {
		return PropertyResidential
	}
	return PropertyCommercial
}

// PropertyDetails is the subtype payload of a Property. Only Residential and
// Commercial implement it.
type PropertyDetails interface {
	PropertyType() PropertyType
	isPropertyDetails()
}

type Residential struct {
	Bedrooms    int
	HasGarden   bool
	PetFriendly bool
}

func (Residential) PropertyType() PropertyType { return PropertyResidential }
func (Residential) isPropertyDetails()         {}

type Commercial struct {
	BusinessType  string
	ParkingSpaces int
	SquareFootage float64
}

func (Commercial) PropertyType() PropertyType { return PropertyCommercial }
func (Commercial) isPropertyDetails()         {}

type Property struct {
	ID      string
	Address string
	Price   float64
	Status  PropertyStatus
	// Owner is an owner identifier; it links to a host when it equals a host ID.
	Owner   string
	Details PropertyDetails
}

func (p *Property) EntityID() string { return p.ID }

// Type returns the variant tag, or "" when Details is unset.
func (p *Property) Type() PropertyType {
	if p.Details == nil {
		return ""
	}
	return p.Details.PropertyType()
}

func (p *Property) Residential() (Residential, bool) {
	r, ok := p.Details.(Residential)
	return r, ok
}

func (p *Property) Commercial() (Commercial, bool) {
	c, ok := p.Details.(Commercial)
	return c, ok
}
