package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/domain"
)

// SaleRepository is an in-memory implementation of usecase.SaleRepository.
// It is safe for concurrent use.
type SaleRepository struct {
	mu     sync.RWMutex
	sales  []domain.Sale
	nextID int64
	now    func() time.Time
}

// NewSaleRepository creates an empty SaleRepository.
func NewSaleRepository() *SaleRepository {
	return &SaleRepository{now: time.Now}
}

// WithClock replaces the clock used to stamp CreatedAt.
func (r *SaleRepository) WithClock(now func() time.Time) *SaleRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// Insert appends a sale and returns its id.
func (r *SaleRepository) Insert(ctx context.Context, seller string, amount decimal.Decimal, paymentMethod string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.sales = append(r.sales, domain.Sale{
		ID:            r.nextID,
		Seller:        seller,
		Amount:        amount.Round(domain.AmountPlaces),
		PaymentMethod: paymentMethod,
		CreatedAt:     r.now(),
	})

	return r.nextID, nil
}

// List returns matching sales newest first, capped at domain.MaxListSize.
func (r *SaleRepository) List(ctx context.Context, rng domain.DateRange) ([]*domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError(err)
	}

	r.mu.RLock()
	matches := make([]*domain.Sale, 0)
	for i := range r.sales {
		if rng.Contains(r.sales[i].CreatedAt) {
			sale := r.sales[i]
			matches = append(matches, &sale)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if len(matches) > domain.MaxListSize {
		matches = matches[:domain.MaxListSize]
	}

	return matches, nil
}

// AggregateBySeller sums and counts matching sales per seller, ordered by seller.
func (r *SaleRepository) AggregateBySeller(ctx context.Context, rng domain.DateRange) ([]domain.SellerTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError(err)
	}

	r.mu.RLock()
	bySeller := make(map[string]*domain.SellerTotal)
	for _, s := range r.sales {
		if !rng.Contains(s.CreatedAt) {
			continue
		}
		agg, ok := bySeller[s.Seller]
		if !ok {
			agg = &domain.SellerTotal{Seller: s.Seller, Total: decimal.Zero}
			bySeller[s.Seller] = agg
		}
		agg.Total = agg.Total.Add(s.Amount)
		agg.Count++
	}
	r.mu.RUnlock()

	totals := make([]domain.SellerTotal, 0, len(bySeller))
	for _, agg := range bySeller {
		totals = append(totals, *agg)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Seller < totals[j].Seller })

	return totals, nil
}

// AggregateTotal sums matching sales; zero when none match.
func (r *SaleRepository) AggregateTotal(ctx context.Context, rng domain.DateRange) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, storageError(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, s := range r.sales {
		if rng.Contains(s.CreatedAt) {
			total = total.Add(s.Amount)
		}
	}

	return total, nil
}

// Count returns the number of stored sales.
func (r *SaleRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sales)
}

// Ping always succeeds.
func (r *SaleRepository) Ping(ctx context.Context) error {
	return nil
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}
