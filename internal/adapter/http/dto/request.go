package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/usecase"
)

// RecordSaleRequest represents a request to record a sale.
// Amount accepts a JSON number or a numeric string; nil means absent.
type RecordSaleRequest struct {
	Seller        string           `json:"seller"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordSaleRequest) ToUseCaseInput() usecase.RecordSaleInput {
	return usecase.RecordSaleInput{
		Seller:        r.Seller,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
	}
}
