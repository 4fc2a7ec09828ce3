package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/domain"
)

// Money is a decimal rendered as a JSON number with exactly two fractional digits.
type Money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(domain.AmountPlaces)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}

// Decimal returns the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID            int64     `json:"id"`
	Seller        string    `json:"seller"`
	Amount        Money     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaleFromDomain converts a domain sale to a response.
func SaleFromDomain(s *domain.Sale) SaleResponse {
	return SaleResponse{
		ID:            s.ID,
		Seller:        s.Seller,
		Amount:        Money(s.Amount),
		PaymentMethod: s.PaymentMethod,
		CreatedAt:     s.CreatedAt,
	}
}

// SalesFromDomain converts domain sales to responses. The result is never nil.
func SalesFromDomain(sales []*domain.Sale) []SaleResponse {
	result := make([]SaleResponse, len(sales))
	for i, s := range sales {
		result[i] = SaleFromDomain(s)
	}
	return result
}

// RecordSaleResponse acknowledges a recorded sale.
type RecordSaleResponse struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

// SellerTotalResponse is one seller's aggregate.
type SellerTotalResponse struct {
	Seller string `json:"seller"`
	Total  Money  `json:"total"`
	Count  int64  `json:"count"`
}

// SummaryResponse represents per-seller and overall totals.
type SummaryResponse struct {
	PerSeller []SellerTotalResponse `json:"perSeller"`
	Total     Money                 `json:"total"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s *domain.Summary) SummaryResponse {
	resp := SummaryResponse{
		PerSeller: make([]SellerTotalResponse, len(s.PerSeller)),
		Total:     Money(s.Total),
	}
	for i, st := range s.PerSeller {
		resp.PerSeller[i] = SellerTotalResponse{
			Seller: st.Seller,
			Total:  Money(st.Total),
			Count:  st.Count,
		}
	}
	return resp
}

// RosterResponse lists the sellers and payment methods offered to clients.
type RosterResponse struct {
	Sellers        []string `json:"sellers"`
	PaymentMethods []string `json:"payment_methods"`
}

// RosterFromDomain converts a roster to a response.
func RosterFromDomain(r domain.Roster) RosterResponse {
	resp := RosterResponse{
		Sellers:        r.Sellers,
		PaymentMethods: r.PaymentMethods,
	}
	if resp.Sellers == nil {
		resp.Sellers = []string{}
	}
	if resp.PaymentMethods == nil {
		resp.PaymentMethods = []string{}
	}
	return resp
}

// StatusResponse is returned by health probes.
type StatusResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
