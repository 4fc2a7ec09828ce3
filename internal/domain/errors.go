package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the root of every client-input error.
	ErrValidation = errors.New("validation failed")

	ErrMissingFields        = fmt.Errorf("%w: missing fields", ErrValidation)
	ErrNonPositiveAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrAmountOutOfRange     = fmt.Errorf("%w: amount out of range", ErrValidation)
	ErrUnknownSeller        = fmt.Errorf("%w: unknown seller", ErrValidation)
	ErrUnknownPaymentMethod = fmt.Errorf("%w: unknown payment method", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrValidation)

	// Store errors
	ErrStorage      = errors.New("storage failure")
	ErrBackpressure = errors.New("storage busy: no connection available")

	// ErrInternal is returned by the service when the store fails.
	ErrInternal = errors.New("internal error")
)
