package domain

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Default roster used by the shop front-end.
var (
	DefaultSellers        = []string{"Vendedora 1", "Vendedora 2", "Vendedora 3", "Vendedora 4", "Vendedora 5"}
	DefaultPaymentMethods = []string{"dinheiro", "cartao", "pix"}
)

// Roster is the externally configured list of sellers and payment methods.
type Roster struct {
	Sellers        []string
	PaymentMethods []string
}

// Policy controls the optional checks applied on top of required-field validation.
// The zero value accepts any non-empty seller and payment method and any non-zero amount.
type Policy struct {
	Roster                  Roster
	EnforceRoster           bool
	RejectNonPositiveAmount bool
}

// ValidateSale checks a sale's fields and returns the amount as it will be stored.
// A nil or zero amount counts as missing.
func (p Policy) ValidateSale(seller string, amount *decimal.Decimal, paymentMethod string) (decimal.Decimal, error) {
	if seller == "" || amount == nil || amount.IsZero() || paymentMethod == "" {
		return decimal.Zero, ErrMissingFields
	}

	normalized, err := CheckAmount(*amount)
	if err != nil {
		return decimal.Zero, err
	}

	if p.RejectNonPositiveAmount && !normalized.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	if p.EnforceRoster {
		if !slices.Contains(p.Roster.Sellers, seller) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSeller, seller)
		}
		if !slices.Contains(p.Roster.PaymentMethods, paymentMethod) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, paymentMethod)
		}
	}

	return normalized, nil
}
