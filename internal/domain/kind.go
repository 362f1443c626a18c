package domain

import (
	"fmt"
	"slices"
)

// Kind names one of the persisted entity collections.
type Kind string

const (
	KindTenant    Kind = "tenant"
	KindHost      Kind = "host"
	KindProperty  Kind = "property"
	KindAgreement Kind = "rental_agreement"
	KindPayment   Kind = "payment"
)

// Entity is anything stored in an identity map.
type Entity interface {
	EntityID() string
}

// Kinds lists every entity kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindTenant, KindHost, KindProperty, KindAgreement, KindPayment}
}

// DependsOn returns the kinds whose records must be loaded before records of
// kind k can be resolved.
func (k Kind) DependsOn() []Kind {
	switch k {
	case KindAgreement:
		return []Kind{KindTenant, KindProperty}
	case KindPayment:
		return []Kind{KindAgreement, KindTenant}
	default:
		return nil
	}
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds(), k)
}

// ParseKind accepts the canonical kind names plus "agreement" as a short form.
func ParseKind(s string) (Kind, error) {
	if s == "agreement" {
		return KindAgreement, nil
	}
	k := Kind(s)
	if !k.Valid() {
		return "", &InvalidEnumValueError{Field: "entity kind", Value: s}
	}
	return k, nil
}

// LoadOrder returns every kind ordered so that each kind comes after all of
// its dependencies. Ties keep declaration order.
func LoadOrder() []Kind {
	order := make([]Kind, 0, len(Kinds()))
	done := make(map[Kind]bool, len(Kinds()))

	var visit func(k Kind, path []Kind)
	visit = func(k Kind, path []Kind) {
		if done[k] {
			return
		}
		if slices.Contains(path, k) {
			panic(fmt.Sprintf("domain.LoadOrder: dependency cycle through %s", k))
		}
		for _, dep := range k.DependsOn() {
			visit(dep, append(path, k))
		}
		done[k] = true
		order = append(order, k)
	}

	for _, k := range Kinds() {
		visit(k, nil)
	}
	return order
}
