package record

import (
	"fmt"
	"strings"

	"github.com/gosuda/rentals/internal/domain"
)

const (
	agreementFields         = 7
	agreementWithSubTenants = 8
	paymentFields           = 5
)

// EncodeAgreement writes id,tenantId,propertyId,period,contractDate,fee,status
// and, only when there are sub-tenants, an eighth field of ";"-separated IDs.
func EncodeAgreement(a *domain.RentalAgreement) (string, error) {
	e := newEncoder(domain.KindAgreement, a.ID)
	e.text("id", a.ID)
	e.text("tenantId", a.TenantID)
	e.text("propertyId", a.PropertyID)
	_, periodErr := domain.ParsePeriod(string(a.Period))
	e.enum("period", string(a.Period), periodErr)
	e.date(a.ContractDate)
	e.amount("rentingFee", a.RentingFee)
	_, statusErr := domain.ParseAgreementStatus(string(a.Status))
	e.enum("status", string(a.Status), statusErr)

	if len(a.SubTenantIDs) > 0 {
		for _, id := range a.SubTenantIDs {
			if e.err == nil && (id == "" || strings.ContainsAny(id, ListDelimiter+Delimiter+"\r\n")) {
				e.err = fmt.Errorf("%s %s: sub-tenant id %q: %w", domain.KindAgreement, a.ID, id, ErrUnencodable)
			}
		}
		e.raw(strings.Join(a.SubTenantIDs, ListDelimiter))
	}

	return e.line()
}

// DecodeAgreement leaves tenant, property and sub-tenant references as raw
// IDs; the resolver checks them.
func DecodeAgreement(line string) (*domain.RentalAgreement, error) {
	f, err := fields(domain.KindAgreement, line, agreementFields, agreementWithSubTenants)
	if err != nil {
		return nil, err
	}

	d := &decoder{kind: domain.KindAgreement, raw: line}
	a := &domain.RentalAgreement{
		ID:           d.id("id", f[0]),
		TenantID:     d.id("tenantId", f[1]),
		PropertyID:   d.id("propertyId", f[2]),
		ContractDate: d.date("contractDate", f[4]),
		RentingFee:   d.amount("rentingFee", f[5]),
	}
	if a.Period, err = domain.ParsePeriod(f[3]); err != nil {
		d.fail("period", err)
	}
	if a.Status, err = domain.ParseAgreementStatus(f[6]); err != nil {
		d.fail("status", err)
	}
	if len(f) == agreementWithSubTenants {
		for _, id := range strings.Split(f[7], ListDelimiter) {
			if id != "" {
				a.SubTenantIDs = append(a.SubTenantIDs, id)
			}
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	return a, nil
}

// EncodePayment writes id,amount,paymentDate,paymentMethod,rentalAgreementId.
func EncodePayment(p *domain.Payment) (string, error) {
	e := newEncoder(domain.KindPayment, p.ID)
	e.text("id", p.ID)
	e.amount("amount", p.Amount)
	e.date(p.PaymentDate)
	e.text("paymentMethod", p.Method)
	e.text("rentalAgreementId", p.AgreementID)
	return e.line()
}

func DecodePayment(line string) (*domain.Payment, error) {
	f, err := fields(domain.KindPayment, line, paymentFields)
	if err != nil {
		return nil, err
	}

	d := &decoder{kind: domain.KindPayment, raw: line}
	p := &domain.Payment{
		ID:          d.id("id", f[0]),
		Amount:      d.amount("amount", f[1]),
		PaymentDate: d.date("paymentDate", f[2]),
		Method:      f[3],
		AgreementID: d.id("rentalAgreementId", f[4]),
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}
