package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/domain"
)

// Summary cache results reported to Metrics.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// SalesUseCase records sales and answers listing and summary queries.
type SalesUseCase struct {
	saleRepo SaleRepository
	policy   domain.Policy
	cache    SummaryCache
	metrics  Metrics
	logger   zerolog.Logger
}

// SalesOption configures optional collaborators of SalesUseCase.
type SalesOption func(*SalesUseCase)

// WithSummaryCache enables read-through caching of summaries.
func WithSummaryCache(cache SummaryCache) SalesOption {
	return func(uc *SalesUseCase) { uc.cache = cache }
}

// WithMetrics reports business events to m.
func WithMetrics(m Metrics) SalesOption {
	return func(uc *SalesUseCase) { uc.metrics = m }
}

// WithLogger sets the logger used for storage and cache failures.
func WithLogger(logger zerolog.Logger) SalesOption {
	return func(uc *SalesUseCase) { uc.logger = logger }
}

// NewSalesUseCase creates a new SalesUseCase.
func NewSalesUseCase(saleRepo SaleRepository, policy domain.Policy, opts ...SalesOption) *SalesUseCase {
	uc := &SalesUseCase{
		saleRepo: saleRepo,
		policy:   policy,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RecordSaleInput represents input for recording a sale.
// A nil Amount means the field was absent from the request.
type RecordSaleInput struct {
	Amount        *decimal.Decimal
	Seller        string
	PaymentMethod string
}

// RecordSale validates and stores a sale, returning the store-assigned id.
func (uc *SalesUseCase) RecordSale(ctx context.Context, input RecordSaleInput) (int64, error) {
	amount, err := uc.policy.ValidateSale(input.Seller, input.Amount, input.PaymentMethod)
	if err != nil {
		return 0, err
	}

	id, err := uc.saleRepo.Insert(ctx, input.Seller, amount, input.PaymentMethod)
	if err != nil {
		uc.logger.Error().Err(err).
			Str("seller", input.Seller).
			Str("amount", amount.StringFixed(domain.AmountPlaces)).
			Msg("failed to record sale")
		return 0, fmt.Errorf("%w: record sale: %w", domain.ErrInternal, err)
	}

	if uc.metrics != nil {
		uc.metrics.SaleRecorded(amount)
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.logger.Warn().Err(err).Msg("failed to invalidate summary cache")
		}
	}

	uc.logger.Debug().Int64("sale_id", id).Str("seller", input.Seller).Msg("sale recorded")

	return id, nil
}

// GetSales lists sales inside the range, newest first.
func (uc *SalesUseCase) GetSales(ctx context.Context, r domain.DateRange) ([]*domain.Sale, error) {
	sales, err := uc.saleRepo.List(ctx, r)
	if err != nil {
		uc.logger.Error().Err(err).Str("range", r.Key()).Msg("failed to list sales")
		return nil, fmt.Errorf("%w: list sales: %w", domain.ErrInternal, err)
	}

	return sales, nil
}

// GetSummary returns per-seller totals and the overall total inside the range.
func (uc *SalesUseCase) GetSummary(ctx context.Context, r domain.DateRange) (*domain.Summary, error) {
	key := r.Key()

	cached, gen, cacheable := uc.cachedSummary(ctx, key)
	if cached != nil {
		return cached, nil
	}

	perSeller, err := uc.saleRepo.AggregateBySeller(ctx, r)
	if err != nil {
		uc.logger.Error().Err(err).Str("range", key).Msg("failed to aggregate sales by seller")
		return nil, fmt.Errorf("%w: aggregate by seller: %w", domain.ErrInternal, err)
	}

	total, err := uc.saleRepo.AggregateTotal(ctx, r)
	if err != nil {
		uc.logger.Error().Err(err).Str("range", key).Msg("failed to aggregate sales total")
		return nil, fmt.Errorf("%w: aggregate total: %w", domain.ErrInternal, err)
	}

	summary := domain.EmptySummary()
	summary.PerSeller = append(summary.PerSeller, perSeller...)
	summary.Total = total

	// Stored under the generation seen before the reads: a sale recorded in
	// between has already moved readers to a newer generation.
	if cacheable {
		if err := uc.cache.Set(ctx, key, gen, summary); err != nil {
			uc.logger.Warn().Err(err).Str("range", key).Msg("failed to cache summary")
		}
	}

	return summary, nil
}

// Roster returns the configured sellers and payment methods.
func (uc *SalesUseCase) Roster() domain.Roster {
	return domain.Roster{
		Sellers:        slices.Clone(uc.policy.Roster.Sellers),
		PaymentMethods: slices.Clone(uc.policy.Roster.PaymentMethods),
	}
}

// cachedSummary looks key up. On a miss it reports whether the result may be
// stored afterwards and under which generation.
func (uc *SalesUseCase) cachedSummary(ctx context.Context, key string) (*domain.Summary, int64, bool) {
	if uc.cache == nil {
		return nil, 0, false
	}

	summary, gen, err := uc.cache.Get(ctx, key)
	switch {
	case err != nil:
		uc.logger.Warn().Err(err).Str("range", key).Msg("summary cache lookup failed")
		uc.reportCache(CacheError)
		return nil, 0, false
	case summary == nil:
		uc.reportCache(CacheMiss)
		return nil, gen, true
	}

	uc.reportCache(CacheHit)
	if summary.PerSeller == nil {
		summary.PerSeller = []domain.SellerTotal{}
	}
	return summary, gen, false
}

func (uc *SalesUseCase) reportCache(result string) {
	if uc.metrics != nil {
		uc.metrics.SummaryCacheResult(result)
	}
}
