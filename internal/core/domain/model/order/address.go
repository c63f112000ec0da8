package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Address is the delivery destination copied onto the Order at checkout, so later edits
// to the customer's address book never move an order in flight.
type Address struct {
	Street   string
	Commune  string
	District string
	City     string
	Point    kernel.GeoPoint
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return errs.NewValueIsRequiredError("street")
	}
	if strings.TrimSpace(a.City) == "" {
		return errs.NewValueIsRequiredError("city")
	}
	return nil
}

// Line renders the address the way a geocoder expects it.
func (a Address) Line() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.Commune, a.District, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// WithPoint returns a copy of a located at p.
func (a Address) WithPoint(p kernel.GeoPoint) Address {
	a.Point = p
	return a
}

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCOD, PaymentOnline:
		return m, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%q is not cod or online", s))
}
