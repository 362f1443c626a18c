package domain

import "time"

// Person holds the fields shared by tenants and hosts.
type Person struct {
	ID          string
	FullName    string
	DateOfBirth time.Time
	// ContactInfo is free text, conventionally "email,phone".
	ContactInfo string
}

func (p *Person) EntityID() string { return p.ID }

type Tenant struct {
	Person

	// Derived on load, never persisted.
	AgreementIDs []string
	PaymentIDs   []string
}

type Host struct {
	Person

	// Derived on load from property ownership, never persisted.
	PropertyIDs  []string
	AgreementIDs []string

	// CooperatingOwners is kept in memory only; hosts.txt has no column for it.
	CooperatingOwners []string
}

// appendOnce adds id to ids unless it is already present.
func appendOnce(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (t *Tenant) LinkAgreement(id string) { t.AgreementIDs = appendOnce(t.AgreementIDs, id) }
func (t *Tenant) LinkPayment(id string)   { t.PaymentIDs = appendOnce(t.PaymentIDs, id) }

func (h *Host) LinkProperty(id string)  { h.PropertyIDs = appendOnce(h.PropertyIDs, id) }
func (h *Host) LinkAgreement(id string) { h.AgreementIDs = appendOnce(h.AgreementIDs, id) }

// ResetLinks clears every derived collection.
func (t *Tenant) ResetLinks() {
	t.AgreementIDs = nil
	t.PaymentIDs = nil
}

func (h *Host) ResetLinks() {
	h.PropertyIDs = nil
	h.AgreementIDs = nil
}
