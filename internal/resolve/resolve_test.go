package resolve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/resolve"
	"github.com/gosuda/rentals/internal/store"
)

func fixture() (*store.Store[*domain.Tenant], *store.Store[*domain.Property]) {
	tenants := store.New[*domain.Tenant](domain.KindTenant)
	for _, id := range []string{"T1", "T2"} {
		tenants.Upsert(&domain.Tenant{Person: domain.Person{ID: id, FullName: id}})
	}

	properties := store.New[*domain.Property](domain.KindProperty)
	properties.Upsert(&domain.Property{ID: "R1", Owner: "H1", Status: domain.PropertyRented, Details: domain.Residential{Bedrooms: 2}})
	properties.Upsert(&domain.Property{ID: "C1", Owner: "H2", Status: domain.PropertyAvailable, Details: domain.Commercial{}})
	return tenants, properties
}

func agreement(id, tenantID, propertyID string, subTenants ...string) *domain.RentalAgreement {
	return &domain.RentalAgreement{
		ID: id, TenantID: tenantID, PropertyID: propertyID, SubTenantIDs: subTenants,
		Period: domain.PeriodMonthly, ContractDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RentingFee: 1000, Status: domain.AgreementActive,
	}
}

func agreementIDs(items []*domain.RentalAgreement) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

// ---------------------------------------------------------------------------
// Agreements
// ---------------------------------------------------------------------------

func TestAgreements_ResolvesValidReferences(t *testing.T) {
	t.Parallel()

	tenants, properties := fixture()
	res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{
		agreement("A1", "T1", "R1"),
		agreement("A2", "T1", "C1"),
	})

	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, []string{"A1", "A2"}, agreementIDs(res.Resolved))

	t1, _ := tenants.Get("T1")
	assert.Equal(t, []string{"A1", "A2"}, t1.AgreementIDs)
}

func TestAgreements_OneWarningPerExcludedAgreement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     *domain.RentalAgreement
		refKind domain.Kind
		refID   string
	}{
		{"missing tenant", agreement("A9", "T99", "R1"), domain.KindTenant, "T99"},
		{"missing property", agreement("A9", "T1", "R99"), domain.KindProperty, "R99"},
		{"both missing reports tenant", agreement("A9", "T99", "R99"), domain.KindTenant, "T99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tenants, properties := fixture()
			res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{
				agreement("A1", "T1", "R1"),
				tt.raw,
			})

			assert.Equal(t, []string{"A1"}, agreementIDs(res.Resolved))
			assert.Equal(t, []string{"A9"}, res.Dropped)
			require.Len(t, res.Warnings, 1)

			var unresolved *domain.UnresolvedReferenceError
			require.ErrorAs(t, res.Warnings[0], &unresolved)
			assert.Equal(t, domain.KindAgreement, unresolved.Kind)
			assert.Equal(t, "A9", unresolved.ID)
			assert.Equal(t, tt.refKind, unresolved.RefKind)
			assert.Equal(t, tt.refID, unresolved.RefID)
			assert.ErrorIs(t, res.Warnings[0], domain.ErrUnresolvedReference)
		})
	}
}

func TestAgreements_DropsUnknownSubTenantsOnly(t *testing.T) {
	t.Parallel()

	tenants, properties := fixture()
	raw := agreement("A1", "T1", "R1", "T2", "T77")
	res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{raw})

	require.Len(t, res.Resolved, 1)
	assert.Equal(t, []string{"T2"}, res.Resolved[0].SubTenantIDs)
	assert.Empty(t, res.Dropped)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], domain.ErrUnresolvedReference)

	assert.Equal(t, []string{"T2", "T77"}, raw.SubTenantIDs, "raw record is not mutated")
}

func TestAgreements_CollapsesRepeatedSubTenants(t *testing.T) {
	t.Parallel()

	tenants, properties := fixture()
	raw := agreement("A1", "T1", "R1", "T2", "T2", "T77", "T77", "T2")
	res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{raw})

	require.Len(t, res.Resolved, 1)
	assert.Equal(t, []string{"T2"}, res.Resolved[0].SubTenantIDs)

	require.Len(t, res.Warnings, 4)
	assert.ErrorIs(t, res.Warnings[0], domain.ErrConflict)
	assert.ErrorIs(t, res.Warnings[1], domain.ErrUnresolvedReference)
	assert.ErrorIs(t, res.Warnings[2], domain.ErrUnresolvedReference)
	assert.ErrorIs(t, res.Warnings[3], domain.ErrConflict)
	assert.Contains(t, res.Warnings[0].Error(), `sub-tenant "T2"`)
}

func TestAgreements_IndependentOfInputOrder(t *testing.T) {
	t.Parallel()

	tenants, properties := fixture()
	res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{
		agreement("A2", "T2", "C1"),
		agreement("A1", "T1", "R1"),
	})

	assert.Equal(t, []string{"A2", "A1"}, agreementIDs(res.Resolved))
	assert.Empty(t, res.Warnings)
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

func resolvedAgreements(t *testing.T) (*store.Store[*domain.RentalAgreement], *store.Store[*domain.Tenant]) {
	t.Helper()

	tenants, properties := fixture()
	res := resolve.Agreements(tenants, properties, []*domain.RentalAgreement{
		agreement("A1", "T1", "R1"),
		agreement("A2", "T2", "C1"),
	})
	require.Empty(t, res.Warnings)

	agreements := store.New[*domain.RentalAgreement](domain.KindAgreement)
	for _, a := range res.Resolved {
		agreements.Upsert(a)
	}
	return agreements, tenants
}

func TestPayments_AttachesToAgreementAndTenant(t *testing.T) {
	t.Parallel()

	agreements, tenants := resolvedAgreements(t)
	res := resolve.Payments(agreements, tenants, []*domain.Payment{
		{ID: "P1", Amount: 1000, AgreementID: "A1"},
		{ID: "P2", Amount: 1000, AgreementID: "A1"},
		{ID: "P3", Amount: 500, AgreementID: "A2"},
	})

	assert.Empty(t, res.Orphans)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Attached, 3)

	a1, _ := agreements.Get("A1")
	assert.Equal(t, []string{"P1", "P2"}, a1.PaymentIDs)
	t1, _ := tenants.Get("T1")
	assert.Equal(t, []string{"P1", "P2"}, t1.PaymentIDs)
	t2, _ := tenants.Get("T2")
	assert.Equal(t, []string{"P3"}, t2.PaymentIDs)
}

func TestPayments_AttachesExactlyOnce(t *testing.T) {
	t.Parallel()

	agreements, tenants := resolvedAgreements(t)
	p := &domain.Payment{ID: "P1", AgreementID: "A1"}

	resolve.Payments(agreements, tenants, []*domain.Payment{p})
	resolve.Payments(agreements, tenants, []*domain.Payment{p})

	a1, _ := agreements.Get("A1")
	assert.Equal(t, []string{"P1"}, a1.PaymentIDs)
	t1, _ := tenants.Get("T1")
	assert.Equal(t, []string{"P1"}, t1.PaymentIDs)
}

func TestPayments_OrphansDoNotMutateAgreements(t *testing.T) {
	t.Parallel()

	agreements, tenants := resolvedAgreements(t)
	orphan := &domain.Payment{ID: "P9", AgreementID: "A99"}
	res := resolve.Payments(agreements, tenants, []*domain.Payment{orphan})

	require.Equal(t, []*domain.Payment{orphan}, res.Orphans)
	assert.Empty(t, res.Attached)
	require.Len(t, res.Warnings, 1)

	var unresolved *domain.UnresolvedReferenceError
	require.ErrorAs(t, res.Warnings[0], &unresolved)
	assert.Equal(t, domain.KindPayment, unresolved.Kind)
	assert.Equal(t, "A99", unresolved.RefID)

	for _, a := range agreements.All() {
		assert.Empty(t, a.PaymentIDs, "agreement %s must be untouched", a.ID)
	}
	for _, tn := range tenants.All() {
		assert.Empty(t, tn.PaymentIDs)
	}
}

func TestPayments_TenantMissingStillAttachesToAgreement(t *testing.T) {
	t.Parallel()

	agreements := store.New[*domain.RentalAgreement](domain.KindAgreement)
	agreements.Upsert(agreement("A1", "T404", "R1"))
	tenants := store.New[*domain.Tenant](domain.KindTenant)

	res := resolve.Payments(agreements, tenants, []*domain.Payment{{ID: "P1", AgreementID: "A1"}})
	assert.Len(t, res.Attached, 1)
	assert.Empty(t, res.Warnings)

	a1, _ := agreements.Get("A1")
	assert.Equal(t, []string{"P1"}, a1.PaymentIDs)
}

// ---------------------------------------------------------------------------
// Hosts
// ---------------------------------------------------------------------------

func TestHosts_DerivesManagedPropertiesAndAgreements(t *testing.T) {
	t.Parallel()

	h1 := &domain.Host{Person: domain.Person{ID: "H1"}, PropertyIDs: []string{"stale"}}
	h2 := &domain.Host{Person: domain.Person{ID: "H2"}}
	h3 := &domain.Host{Person: domain.Person{ID: "H3"}}

	properties := []*domain.Property{
		{ID: "R1", Owner: "H1"},
		{ID: "R2", Owner: "H1"},
		{ID: "C1", Owner: "H2"},
		{ID: "C2", Owner: "Somebody Else"},
	}
	agreements := []*domain.RentalAgreement{
		{ID: "A1", PropertyID: "R2"},
		{ID: "A2", PropertyID: "C2"},
		{ID: "A3", PropertyID: "R1"},
	}

	resolve.Hosts([]*domain.Host{h1, h2, h3}, properties, agreements)

	assert.Equal(t, []string{"R1", "R2"}, h1.PropertyIDs)
	assert.Equal(t, []string{"A1", "A3"}, h1.AgreementIDs)
	assert.Equal(t, []string{"C1"}, h2.PropertyIDs)
	assert.Empty(t, h2.AgreementIDs)
	assert.Empty(t, h3.PropertyIDs)
}
