package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/domain"
)

// SaleRepository is the ledger store: append-only sales plus the queries needed
// for listing and aggregation. Failures wrap domain.ErrStorage.
type SaleRepository interface {
	Insert(ctx context.Context, seller string, amount decimal.Decimal, paymentMethod string) (int64, error)
	List(ctx context.Context, r domain.DateRange) ([]*domain.Sale, error)
	AggregateBySeller(ctx context.Context, r domain.DateRange) ([]domain.SellerTotal, error)
	AggregateTotal(ctx context.Context, r domain.DateRange) (decimal.Decimal, error)
}

// SummaryCache caches computed summaries keyed by date range.
type SummaryCache interface {
	// Get returns a nil summary on a miss. The generation identifies the cache
	// state the lookup saw and must be handed back to Set when filling the miss.
	Get(ctx context.Context, key string) (*domain.Summary, int64, error)
	Set(ctx context.Context, key string, generation int64, summary *domain.Summary) error
	// Invalidate drops every cached summary.
	Invalidate(ctx context.Context) error
}

// Metrics receives business events from the use cases.
type Metrics interface {
	SaleRecorded(amount decimal.Decimal)
	SummaryCacheResult(result string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}
