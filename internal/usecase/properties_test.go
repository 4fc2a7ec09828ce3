package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/salesledger/internal/adapter/repository/memory"
	"github.com/iho/salesledger/internal/domain"
	"github.com/iho/salesledger/internal/usecase"
)

type fixedClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *fixedClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func newMemoryUseCase() (*usecase.SalesUseCase, *memory.SaleRepository, *fixedClock) {
	clock := &fixedClock{at: time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewSaleRepository().WithClock(clock.Now)
	return usecase.NewSalesUseCase(repo, domain.Policy{}), repo, clock
}

func record(t *testing.T, uc *usecase.SalesUseCase, seller, value string) int64 {
	t.Helper()
	id, err := uc.RecordSale(context.Background(), usecase.RecordSaleInput{
		Seller:        seller,
		Amount:        amount(value),
		PaymentMethod: "pix",
	})
	require.NoError(t, err)
	return id
}

func TestProperty_FreshIDs(t *testing.T) {
	uc, _, _ := newMemoryUseCase()

	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		id := record(t, uc, "A", "10.00")
		require.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
}

func TestProperty_MissingFieldDoesNotInsert(t *testing.T) {
	uc, repo, _ := newMemoryUseCase()
	record(t, uc, "A", "1")

	_, err := uc.RecordSale(context.Background(), usecase.RecordSaleInput{Seller: "A", PaymentMethod: "pix"})
	require.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 1, repo.Count())
}

func TestProperty_EmptySummary(t *testing.T) {
	uc, _, _ := newMemoryUseCase()

	summary, err := uc.GetSummary(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, summary.PerSeller)
	assert.Empty(t, summary.PerSeller)
	assert.True(t, summary.Total.IsZero())
}

func TestProperty_ReadsAreIdempotent(t *testing.T) {
	uc, _, clock := newMemoryUseCase()
	record(t, uc, "A", "1")
	clock.set(clock.Now().Add(time.Minute))
	record(t, uc, "B", "2")
	record(t, uc, "C", "3")

	first, err := uc.GetSales(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	second, err := uc.GetSales(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProperty_AggregationCorrectness(t *testing.T) {
	uc, _, _ := newMemoryUseCase()
	record(t, uc, "A", "10.00")
	record(t, uc, "A", "5.00")
	record(t, uc, "B", "20.00")

	summary, err := uc.GetSummary(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, summary.PerSeller, 2)

	assert.Equal(t, "A", summary.PerSeller[0].Seller)
	assert.Equal(t, "15.00", summary.PerSeller[0].Total.StringFixed(2))
	assert.Equal(t, int64(2), summary.PerSeller[0].Count)
	assert.Equal(t, "B", summary.PerSeller[1].Seller)
	assert.Equal(t, "20.00", summary.PerSeller[1].Total.StringFixed(2))
	assert.Equal(t, int64(1), summary.PerSeller[1].Count)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(35)))
}

func TestProperty_DateFilteringInclusiveUpperBound(t *testing.T) {
	uc, _, clock := newMemoryUseCase()

	clock.set(time.Date(2025, 11, 19, 23, 59, 59, 0, time.UTC))
	record(t, uc, "before", "1")
	clock.set(time.Date(2025, 11, 24, 23, 59, 59, 0, time.UTC))
	atUpper := record(t, uc, "edge", "2")
	clock.set(time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC))
	record(t, uc, "after", "4")

	rng, err := domain.ParseDateRange("2025-11-20", "2025-11-24", time.UTC)
	require.NoError(t, err)

	sales, err := uc.GetSales(context.Background(), rng)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, atUpper, sales[0].ID)

	summary, err := uc.GetSummary(context.Background(), rng)
	require.NoError(t, err)
	require.Len(t, summary.PerSeller, 1)
	assert.Equal(t, "edge", summary.PerSeller[0].Seller)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(2)))
}

func TestProperty_ListNeverExceedsCap(t *testing.T) {
	uc, _, _ := newMemoryUseCase()
	for i := 0; i < domain.MaxListSize+1; i++ {
		record(t, uc, "A", "1")
	}

	sales, err := uc.GetSales(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, sales, domain.MaxListSize)
}
