package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/store"
)

const (
	insertTenant = `INSERT INTO tenants (id, full_name, date_of_birth, contact_info)
		 VALUES ($1, $2, $3, $4)`
	insertHost = `INSERT INTO hosts (id, full_name, date_of_birth, contact_info)
		 VALUES ($1, $2, $3, $4)`
	insertProperty = `INSERT INTO properties (id, address, price, status, owner, property_type,
		 bedrooms, has_garden, pet_friendly, business_type, parking_spaces, square_footage)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	insertAgreement = `INSERT INTO rental_agreements (id, tenant_id, property_id, period, contract_date, renting_fee, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`
	insertSubTenant = `INSERT INTO rental_sub_tenants (agreement_id, tenant_id, position)
		 VALUES ($1, $2, $3)`
	insertPayment = `INSERT INTO payments (id, amount, payment_date, method, agreement_id, attached)
		 VALUES ($1, $2, $3, $4, $5, $6)`
	insertRun = `INSERT INTO mirror_runs (id, data_dir, synced_at, records)
		 VALUES ($1, $2, $3, $4)`
)

// queueSnapshot queues one insert per entity, parents before children, and
// returns the per-kind row counts.
func queueSnapshot(b *pgx.Batch, snap *store.Snapshot) map[domain.Kind]int {
	counts := make(map[domain.Kind]int, len(domain.Kinds()))

	for _, t := range snap.Tenants.All() {
		b.Queue(insertTenant, t.ID, t.FullName, t.DateOfBirth, t.ContactInfo)
		counts[domain.KindTenant]++
	}
	for _, h := range snap.Hosts.All() {
		b.Queue(insertHost, h.ID, h.FullName, h.DateOfBirth, h.ContactInfo)
		counts[domain.KindHost]++
	}
	for _, p := range snap.Properties.All() {
		b.Queue(insertProperty, propertyArgs(p)...)
		counts[domain.KindProperty]++
	}
	for _, a := range snap.Agreements.All() {
		b.Queue(insertAgreement, a.ID, a.TenantID, a.PropertyID, string(a.Period), a.ContractDate, a.RentingFee, string(a.Status))
		for i, sub := range a.SubTenantIDs {
			b.Queue(insertSubTenant, a.ID, sub, i)
		}
		counts[domain.KindAgreement]++
	}
	for _, p := range snap.AllPayments() {
		b.Queue(insertPayment, p.ID, p.Amount, p.PaymentDate, p.Method, p.AgreementID, snap.Payments.Has(p.ID))
		counts[domain.KindPayment]++
	}

	return counts
}

// propertyArgs flattens the variant into nullable subtype columns.
func propertyArgs(p *domain.Property) []any {
	args := []any{p.ID, p.Address, p.Price, string(p.Status), p.Owner, string(p.Type()),
		nil, nil, nil, nil, nil, nil}

	switch d := p.Details.(type) {
	case domain.Residential:
		args[6], args[7], args[8] = d.Bedrooms, d.HasGarden, d.PetFriendly
	case domain.Commercial:
		args[9], args[10], args[11] = d.BusinessType, d.ParkingSpaces, d.SquareFootage
	}
	return args
}

func queueRun(b *pgx.Batch, id uuid.UUID, dataDir string, at time.Time, counts map[domain.Kind]int) {
	total := 0
	for _, n := range counts {
		total += n
	}
	b.Queue(insertRun, id, dataDir, at, total)
}
