package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPolicyValidateSale_RequiredFields(t *testing.T) {
	t.Parallel()

	var p Policy

	tests := []struct {
		name    string
		seller  string
		amount  *decimal.Decimal
		method  string
		wantErr error
	}{
		{"valid", "Vendedora 1", amountPtr("10.5"), "pix", nil},
		{"missing seller", "", amountPtr("10"), "pix", ErrMissingFields},
		{"missing amount", "Vendedora 1", nil, "pix", ErrMissingFields},
		{"zero amount counts as missing", "Vendedora 1", amountPtr("0"), "pix", ErrMissingFields},
		{"missing payment method", "Vendedora 1", amountPtr("10"), "", ErrMissingFields},
		{"negative amount accepted by default", "Vendedora 1", amountPtr("-5"), "pix", nil},
		{"unknown seller accepted by default", "Someone Else", amountPtr("5"), "cheque", nil},
		{"huge exponent rejected", "Vendedora 1", amountPtr("1e20000000"), "pix", ErrAmountOutOfRange},
		{"tiny exponent rejected", "Vendedora 1", amountPtr("1e-20000000"), "pix", ErrAmountOutOfRange},
		{"too many integer digits", "Vendedora 1", amountPtr("12345678901"), "pix", ErrAmountOutOfRange},
		{"rounding overflows column", "Vendedora 1", amountPtr("9999999999.999"), "pix", ErrAmountOutOfRange},
		{"largest storable amount", "Vendedora 1", amountPtr("9999999999.99"), "pix", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ValidateSale(tt.seller, tt.amount, tt.method)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPolicyValidateSale_Tightened(t *testing.T) {
	t.Parallel()

	p := Policy{
		Roster:                  Roster{Sellers: DefaultSellers, PaymentMethods: DefaultPaymentMethods},
		EnforceRoster:           true,
		RejectNonPositiveAmount: true,
	}

	if _, err := p.ValidateSale("Vendedora 2", amountPtr("-1"), "pix"); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}

	if _, err := p.ValidateSale("Vendedora 2", amountPtr("0.004"), "pix"); !errors.Is(err, ErrNonPositiveAmount) {
		t.Fatalf("expected amount rounding to zero to be rejected, got %v", err)
	}

	if _, err := p.ValidateSale("Vendedora 9", amountPtr("1"), "pix"); !errors.Is(err, ErrUnknownSeller) {
		t.Fatalf("expected ErrUnknownSeller, got %v", err)
	}

	if _, err := p.ValidateSale("Vendedora 2", amountPtr("1"), "cheque"); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Fatalf("expected ErrUnknownPaymentMethod, got %v", err)
	}

	got, err := p.ValidateSale("Vendedora 2", amountPtr("0.005"), "cartao")
	if err != nil {
		t.Fatalf("expected roster sale to pass, got %v", err)
	}
	if got.StringFixed(2) != "0.01" {
		t.Fatalf("expected normalized amount 0.01, got %s", got)
	}
}

func TestNormalizeAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"10", "10"},
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"-2.345", "-2.35"},
		{"99.999", "100"},
	}

	for _, tt := range tests {
		got := NormalizeAmount(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("NormalizeAmount(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if s := EmptySummary(); s.PerSeller == nil || !s.Total.IsZero() {
		t.Fatalf("expected empty non-nil summary, got %+v", s)
	}
}
