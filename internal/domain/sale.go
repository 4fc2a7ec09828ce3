package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxListSize bounds the number of sales returned by a single listing.
const MaxListSize = 1000

// AmountPlaces is the number of fractional digits stored for an amount.
const AmountPlaces = 2

// Accepted amount bounds. Stored amounts are NUMERIC(12,2).
const (
	MaxAmountIntegerDigits  = 10
	MaxAmountFractionDigits = 32
)

// Sale represents a single recorded sale. Sales are immutable once stored.
type Sale struct {
	CreatedAt     time.Time
	ID            int64
	Seller        string
	PaymentMethod string
	Amount        decimal.Decimal
}

// SellerTotal is the aggregate of one seller's sales.
type SellerTotal struct {
	Seller string
	Total  decimal.Decimal
	Count  int64
}

// Summary aggregates sales per seller and overall.
type Summary struct {
	PerSeller []SellerTotal
	Total     decimal.Decimal
}

// EmptySummary returns a summary with no sellers and a zero total.
func EmptySummary() *Summary {
	return &Summary{
		PerSeller: []SellerTotal{},
		Total:     decimal.Zero,
	}
}

// NormalizeAmount rounds an amount to two decimal places, half away from zero.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountPlaces)
}

// CheckAmount normalizes amount and fails with ErrAmountOutOfRange when it does
// not fit the stored precision. The exponent is bounded before rounding, which
// would otherwise scale the coefficient by an arbitrary power of ten.
func CheckAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	exp := int64(amount.Exponent())
	if exp < -MaxAmountFractionDigits || exp > MaxAmountIntegerDigits {
		return decimal.Zero, ErrAmountOutOfRange
	}

	normalized := NormalizeAmount(amount)
	if !normalized.IsZero() && int64(normalized.NumDigits())+int64(normalized.Exponent()) > MaxAmountIntegerDigits {
		return decimal.Zero, ErrAmountOutOfRange
	}

	return normalized, nil
}
