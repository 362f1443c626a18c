package store

import (
	"fmt"

	"github.com/gosuda/rentals/internal/domain"
)

// Snapshot is the full entity set handed between the persistence layer and
// its callers.
type Snapshot struct {
	Tenants    *Store[*domain.Tenant]
	Hosts      *Store[*domain.Host]
	Properties *Store[*domain.Property]
	Agreements *Store[*domain.RentalAgreement]
	Payments   *Store[*domain.Payment]

	// Orphans are payments whose agreement did not resolve. They are kept so
	// that saving a snapshot never drops them from disk.
	Orphans []*domain.Payment
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Tenants:    New[*domain.Tenant](domain.KindTenant),
		Hosts:      New[*domain.Host](domain.KindHost),
		Properties: New[*domain.Property](domain.KindProperty),
		Agreements: New[*domain.RentalAgreement](domain.KindAgreement),
		Payments:   New[*domain.Payment](domain.KindPayment),
	}
}

// Len returns the number of resolved entities of the given kind. Orphan
// payments are not counted.
func (s *Snapshot) Len(kind domain.Kind) int {
	switch kind {
	case domain.KindTenant:
		return s.Tenants.Len()
	case domain.KindHost:
		return s.Hosts.Len()
	case domain.KindProperty:
		return s.Properties.Len()
	case domain.KindAgreement:
		return s.Agreements.Len()
	case domain.KindPayment:
		return s.Payments.Len()
	default:
		return 0
	}
}

func (s *Snapshot) Counts() map[domain.Kind]int {
	counts := make(map[domain.Kind]int, len(domain.Kinds()))
	for _, k := range domain.Kinds() {
		counts[k] = s.Len(k)
	}
	return counts
}

// Remove deletes an entity by kind and ID. Dependent records are left alone;
// they are dropped by the resolver on the next load.
func (s *Snapshot) Remove(kind domain.Kind, id string) error {
	var removed bool
	switch kind {
	case domain.KindTenant:
		removed = s.Tenants.Remove(id)
	case domain.KindHost:
		removed = s.Hosts.Remove(id)
	case domain.KindProperty:
		removed = s.Properties.Remove(id)
	case domain.KindAgreement:
		removed = s.Agreements.Remove(id)
	case domain.KindPayment:
		removed = s.Payments.Remove(id) || s.removeOrphan(id)
	default:
		return fmt.Errorf("store.Snapshot.Remove: %w", &domain.InvalidEnumValueError{Field: "entity kind", Value: string(kind)})
	}
	if !removed {
		return fmt.Errorf("store.Snapshot.Remove: %s %q: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func (s *Snapshot) removeOrphan(id string) bool {
	for i, p := range s.Orphans {
		if p.ID == id {
			s.Orphans = append(s.Orphans[:i], s.Orphans[i+1:]...)
			return true
		}
	}
	return false
}

// AllPayments returns resolved payments followed by orphans, the order they
// are written in.
func (s *Snapshot) AllPayments() []*domain.Payment {
	out := s.Payments.All()
	for _, p := range s.Orphans {
		if !s.Payments.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}
