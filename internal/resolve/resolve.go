// Package resolve turns raw agreement and payment records into linked ones.
//
// Resolution runs only after every file was decoded, so it never depends on
// the order files were read in. Dangling references drop or orphan the one
// dependent record and are reported as warnings, never as failures.
package resolve

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/rentals/internal/domain"
)

// Lookup finds an already-loaded entity by ID. *store.Store satisfies it.
type Lookup[T any] interface {
	Get(id string) (T, bool)
}

// AgreementResult is the outcome of Agreements.
type AgreementResult struct {
	Resolved []*domain.RentalAgreement
	// Dropped holds the IDs of agreements excluded from Resolved.
	Dropped  []string
	Warnings []error
}

// Agreements keeps every raw agreement whose main tenant and property both
// exist. Each excluded agreement yields exactly one warning, naming the first
// missing reference. Unknown and repeated sub-tenants are removed from an
// otherwise valid agreement with one warning each.
//
// Resolved agreements are fresh copies with no payments attached, and each is
// linked from its main tenant.
func Agreements(
	tenants Lookup[*domain.Tenant],
	properties Lookup[*domain.Property],
	raw []*domain.RentalAgreement,
) AgreementResult {
	var res AgreementResult

	for _, r := range raw {
		tenant, ok := tenants.Get(r.TenantID)
		if !ok {
			res.drop(r, domain.KindTenant, r.TenantID)
			continue
		}
		if _, ok := properties.Get(r.PropertyID); !ok {
			res.drop(r, domain.KindProperty, r.PropertyID)
			continue
		}

		a := *r
		a.PaymentIDs = nil
		a.SubTenantIDs = nil
		for _, id := range r.SubTenantIDs {
			if slices.Contains(a.SubTenantIDs, id) {
				err := fmt.Errorf("%s %s: sub-tenant %q listed more than once: %w", domain.KindAgreement, r.ID, id, domain.ErrConflict)
				log.Warn().Err(err).Str("agreement_id", r.ID).Msg("resolve.Agreements: dropping repeated sub-tenant")
				res.Warnings = append(res.Warnings, err)
				continue
			}
			if _, ok := tenants.Get(id); !ok {
				res.warn(&domain.UnresolvedReferenceError{
					Kind: domain.KindAgreement, ID: r.ID, RefKind: domain.KindTenant, RefID: id,
				}, "resolve.Agreements: dropping unknown sub-tenant")
				continue
			}
			a.SubTenantIDs = append(a.SubTenantIDs, id)
		}

		tenant.LinkAgreement(a.ID)
		res.Resolved = append(res.Resolved, &a)
	}

	return res
}

func (res *AgreementResult) drop(r *domain.RentalAgreement, refKind domain.Kind, refID string) {
	res.Dropped = append(res.Dropped, r.ID)
	res.warn(&domain.UnresolvedReferenceError{
		Kind: domain.KindAgreement, ID: r.ID, RefKind: refKind, RefID: refID,
	}, "resolve.Agreements: dropping agreement")
}

func (res *AgreementResult) warn(err *domain.UnresolvedReferenceError, msg string) {
	log.Warn().
		Str("agreement_id", err.ID).
		Str("ref_kind", string(err.RefKind)).
		Str("ref_id", err.RefID).
		Msg(msg)
	res.Warnings = append(res.Warnings, err)
}

// PaymentResult is the outcome of Payments.
type PaymentResult struct {
	Attached []*domain.Payment
	Orphans  []*domain.Payment
	Warnings []error
}

// Payments attaches each payment to its agreement's payment list and to the
// payment list of that agreement's main tenant when the tenant resolves.
// Payments whose agreement is unknown become orphans and touch nothing.
// Attaching is idempotent per payment ID.
func Payments(
	agreements Lookup[*domain.RentalAgreement],
	tenants Lookup[*domain.Tenant],
	raw []*domain.Payment,
) PaymentResult {
	var res PaymentResult

	for _, p := range raw {
		agreement, ok := agreements.Get(p.AgreementID)
		if !ok {
			err := &domain.UnresolvedReferenceError{
				Kind: domain.KindPayment, ID: p.ID, RefKind: domain.KindAgreement, RefID: p.AgreementID,
			}
			log.Warn().
				Str("payment_id", p.ID).
				Str("agreement_id", p.AgreementID).
				Msg("resolve.Payments: orphan payment")
			res.Orphans = append(res.Orphans, p)
			res.Warnings = append(res.Warnings, err)
			continue
		}

		agreement.LinkPayment(p.ID)
		if tenant, ok := tenants.Get(agreement.TenantID); ok {
			tenant.LinkPayment(p.ID)
		}
		res.Attached = append(res.Attached, p)
	}

	return res
}

// Hosts rebuilds the derived host collections: a host manages every property
// whose owner is the host's ID, and is linked to every agreement on those
// properties.
func Hosts(hosts []*domain.Host, properties []*domain.Property, agreements []*domain.RentalAgreement) {
	byID := make(map[string]*domain.Host, len(hosts))
	for _, h := range hosts {
		h.ResetLinks()
		byID[h.ID] = h
	}

	managedBy := make(map[string]*domain.Host)
	for _, p := range properties {
		if h, ok := byID[p.Owner]; ok {
			h.LinkProperty(p.ID)
			managedBy[p.ID] = h
		}
	}

	for _, a := range agreements {
		if h, ok := managedBy[a.PropertyID]; ok {
			h.LinkAgreement(a.ID)
		}
	}
}
