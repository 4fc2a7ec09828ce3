package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/salesledger/internal/domain"
	infrapg "github.com/iho/salesledger/internal/infrastructure/postgres"
)

// newIntegrationPool connects to SALESLEDGER_TEST_DATABASE_URL, applies
// migrations and empties the sales table. The test is skipped when unset.
func newIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("SALESLEDGER_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("SALESLEDGER_TEST_DATABASE_URL not set")
	}

	require.NoError(t, infrapg.RunMigrations(dbURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapg.NewPool(ctx, dbURL, 10, 0)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE sales RESTART IDENTITY`)
	require.NoError(t, err)

	return pool
}

func insertAt(t *testing.T, pool *pgxpool.Pool, seller, amount, method string, at time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO sales (seller, amount, payment_method, created_at) VALUES ($1, $2, $3, $4)`,
		seller, amount, method, at)
	require.NoError(t, err)
}

func TestIntegrationSaleRepositoryDateRangeIsInclusive(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSaleRepository(pool)
	ctx := context.Background()

	insertAt(t, pool, "A", "1.00", "pix", time.Date(2025, 11, 19, 23, 59, 59, 0, time.UTC))
	insertAt(t, pool, "A", "2.00", "pix", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC))
	insertAt(t, pool, "B", "3.00", "pix", time.Date(2025, 11, 24, 23, 59, 59, 0, time.UTC))
	insertAt(t, pool, "B", "4.00", "pix", time.Date(2025, 11, 24, 23, 59, 59, 500_000_000, time.UTC))
	insertAt(t, pool, "C", "5.00", "pix", time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC))

	rng, err := domain.ParseDateRange("2025-11-20", "2025-11-24", time.UTC)
	require.NoError(t, err)

	sales, err := repo.List(ctx, rng)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "4.00", sales[0].Amount.StringFixed(2))
	assert.Equal(t, "2.00", sales[2].Amount.StringFixed(2))

	totals, err := repo.AggregateBySeller(ctx, rng)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "A", totals[0].Seller)
	assert.Equal(t, int64(1), totals[0].Count)
	assert.Equal(t, "B", totals[1].Seller)
	assert.Equal(t, "7.00", totals[1].Total.StringFixed(2))

	total, err := repo.AggregateTotal(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, "9.00", total.StringFixed(2))
}

func TestIntegrationSaleRepositoryListIsCapped(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSaleRepository(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO sales (seller, amount, payment_method)
		SELECT 'Vendedora 1', 1.00, 'pix' FROM generate_series(1, $1)`, domain.MaxListSize+5)
	require.NoError(t, err)

	sales, err := repo.List(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, sales, domain.MaxListSize)

	total, err := repo.AggregateTotal(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(domain.MaxListSize+5)))
}

func TestIntegrationSaleRepositoryConcurrentInserts(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSaleRepository(pool, WithMaxInFlight(4), WithAcquireTimeout(10*time.Second))
	ctx := context.Background()

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.Insert(ctx, "Vendedora 2", decimal.RequireFromString("10.005"), "cartao")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	totals, err := repo.AggregateBySeller(ctx, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(n), totals[0].Count)
	assert.Equal(t, "500.50", totals[0].Total.StringFixed(2))
}

func TestIntegrationSaleRepositoryEmpty(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewSaleRepository(pool)
	ctx := context.Background()

	sales, err := repo.List(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, sales)

	totals, err := repo.AggregateBySeller(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, totals)
	assert.Empty(t, totals)

	total, err := repo.AggregateTotal(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	require.NoError(t, repo.Ping(ctx))
}
