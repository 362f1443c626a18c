package domain

import "time"

type Period string

const (
	PeriodDaily       Period = "DAILY"
	PeriodWeekly      Period = "WEEKLY"
	PeriodFortnightly Period = "FORTNIGHTLY"
	PeriodMonthly     Period = "MONTHLY"
)

func ParsePeriod(s string) (Period, error) {
	return parseEnum("rental period", s, PeriodDaily, PeriodWeekly, PeriodFortnightly, PeriodMonthly)
}

type AgreementStatus string

const (
	AgreementNew       AgreementStatus = "NEW"
	AgreementActive    AgreementStatus = "ACTIVE"
	AgreementCompleted AgreementStatus = "COMPLETED"
)

func ParseAgreementStatus(s string) (AgreementStatus, error) {
	return parseEnum("agreement status", s, AgreementNew, AgreementActive, AgreementCompleted)
}

// RentalAgreement references its tenants and property by ID. A loaded
// agreement is only present in a snapshot once those IDs resolved.
type RentalAgreement struct {
	ID           string
	TenantID     string
	PropertyID   string
	SubTenantIDs []string
	Period       Period
	ContractDate time.Time
	RentingFee   float64
	Status       AgreementStatus

	// PaymentIDs is derived on load, in payments.txt order.
	PaymentIDs []string
}

func (a *RentalAgreement) EntityID() string { return a.ID }

func (a *RentalAgreement) LinkPayment(id string) { a.PaymentIDs = appendOnce(a.PaymentIDs, id) }

type Payment struct {
	ID          string
	Amount      float64
	PaymentDate time.Time
	Method      string
	AgreementID string
}

func (p *Payment) EntityID() string { return p.ID }

func parseEnum[T ~string](field, s string, valid ...T) (T, error) {
	for _, v := range valid {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, &InvalidEnumValueError{Field: field, Value: s}
}
