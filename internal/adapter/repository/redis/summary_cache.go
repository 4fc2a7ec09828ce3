package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/salesledger/internal/domain"
)

// DefaultSummaryTTL bounds how long a summary may be served from cache.
const DefaultSummaryTTL = 30 * time.Second

// SummaryCache implements usecase.SummaryCache using Redis.
//
// Entries are namespaced by a generation counter; Invalidate bumps the
// counter so every earlier entry becomes unreachable and expires on its own.
type SummaryCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSummaryCache creates a new SummaryCache. A non-positive ttl uses DefaultSummaryTTL.
func NewSummaryCache(client redis.UniversalClient, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{
		client: client,
		prefix: "salesledger:summary:",
		ttl:    ttl,
	}
}

type sellerTotalPayload struct {
	Seller string          `json:"seller"`
	Total  decimal.Decimal `json:"total"`
	Count  int64           `json:"count"`
}

type summaryPayload struct {
	PerSeller []sellerTotalPayload `json:"perSeller"`
	Total     decimal.Decimal      `json:"total"`
}

// Get returns the cached summary for key, or nil on a miss, together with the
// generation it was looked up in. Callers that fill a miss pass that generation
// to Set, so a summary computed before an Invalidate never lands in a newer one.
func (c *SummaryCache) Get(ctx context.Context, key string) (*domain.Summary, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, err
	}

	var payload summaryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, gen, fmt.Errorf("decode cached summary: %w", err)
	}

	summary := domain.EmptySummary()
	summary.Total = payload.Total
	for _, st := range payload.PerSeller {
		summary.PerSeller = append(summary.PerSeller, domain.SellerTotal{
			Seller: st.Seller,
			Total:  st.Total,
			Count:  st.Count,
		})
	}

	return summary, gen, nil
}

// Set stores summary under key in generation gen.
func (c *SummaryCache) Set(ctx context.Context, key string, gen int64, summary *domain.Summary) error {
	payload := summaryPayload{
		PerSeller: make([]sellerTotalPayload, 0, len(summary.PerSeller)),
		Total:     summary.Total,
	}
	for _, st := range summary.PerSeller {
		payload.PerSeller = append(payload.PerSeller, sellerTotalPayload(st))
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return c.client.Set(ctx, c.entryKey(gen, key), raw, c.ttl).Err()
}

// Invalidate makes every cached summary unreachable.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *SummaryCache) generationKey() string {
	return c.prefix + "generation"
}

func (c *SummaryCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *SummaryCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s%d:%s", c.prefix, gen, key)
}
