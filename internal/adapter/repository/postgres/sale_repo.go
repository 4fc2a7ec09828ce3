package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/iho/salesledger/internal/domain"
)

const (
	insertSaleSQL = `INSERT INTO sales (seller, amount, payment_method)
VALUES ($1, $2, $3)
RETURNING id`

	listSalesSQL = `SELECT id, seller, amount, payment_method, created_at
FROM sales
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`

	aggregateBySellerSQL = `SELECT seller, SUM(amount) AS total, COUNT(*) AS count
FROM sales
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
GROUP BY seller
ORDER BY seller`

	aggregateTotalSQL = `SELECT COALESCE(SUM(amount), 0) AS total
FROM sales
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)`
)

// DefaultMaxInFlight matches the pool size of a default deployment.
const DefaultMaxInFlight = 10

// dbtx is the subset of *pgxpool.Pool used by the store.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// QueryObserver receives per-query timings and backpressure events.
type QueryObserver interface {
	ObserveQuery(operation string, start time.Time, err error)
	Backpressure()
}

// SaleRepository implements usecase.SaleRepository on PostgreSQL.
//
// At most maxInFlight operations run at once. Callers beyond that wait up to
// acquireTimeout for a slot and then fail with domain.ErrBackpressure.
type SaleRepository struct {
	db             dbtx
	gate           *semaphore.Weighted
	acquireTimeout time.Duration
	observer       QueryObserver
	retrier        *Retrier
}

// Option configures a SaleRepository.
type Option func(*SaleRepository)

// WithMaxInFlight bounds concurrent operations. Values below 1 are ignored.
func WithMaxInFlight(n int) Option {
	return func(r *SaleRepository) {
		if n > 0 {
			r.gate = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithAcquireTimeout bounds the wait for a free slot. Zero waits until the
// caller's context is done.
func WithAcquireTimeout(d time.Duration) Option {
	return func(r *SaleRepository) { r.acquireTimeout = d }
}

// WithObserver reports query metrics to o.
func WithObserver(o QueryObserver) Option {
	return func(r *SaleRepository) { r.observer = o }
}

// WithRetrier retries read statements failing with transient PostgreSQL errors.
// Inserts are never retried.
func WithRetrier(retrier *Retrier) Option {
	return func(r *SaleRepository) { r.retrier = retrier }
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(pool *pgxpool.Pool, opts ...Option) *SaleRepository {
	return newSaleRepositoryWithDB(pool, opts...)
}

func newSaleRepositoryWithDB(db dbtx, opts ...Option) *SaleRepository {
	r := &SaleRepository{
		db:   db,
		gate: semaphore.NewWeighted(DefaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Insert stores a sale and returns the id assigned by the database.
func (r *SaleRepository) Insert(ctx context.Context, seller string, amount decimal.Decimal, paymentMethod string) (int64, error) {
	var id int64

	err := r.run(ctx, "insert_sale", false, func() error {
		return r.db.QueryRow(ctx, insertSaleSQL,
			seller,
			decimalToNumeric(amount.Round(domain.AmountPlaces)),
			paymentMethod,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// List returns sales inside the range, newest first, capped at domain.MaxListSize.
func (r *SaleRepository) List(ctx context.Context, rng domain.DateRange) ([]*domain.Sale, error) {
	var sales []*domain.Sale

	err := r.run(ctx, "list_sales", true, func() error {
		rows, err := r.db.Query(ctx, listSalesSQL,
			timestamptz(rng.Start()), timestamptz(rng.End()), domain.MaxListSize)
		if err != nil {
			return err
		}
		defer rows.Close()

		sales = make([]*domain.Sale, 0)
		for rows.Next() {
			var (
				s      domain.Sale
				amount pgtype.Numeric
			)
			if err := rows.Scan(&s.ID, &s.Seller, &amount, &s.PaymentMethod, &s.CreatedAt); err != nil {
				return err
			}
			s.Amount = numericToDecimal(amount)
			sales = append(sales, &s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return sales, nil
}

// AggregateBySeller returns one total per seller, ordered by seller.
func (r *SaleRepository) AggregateBySeller(ctx context.Context, rng domain.DateRange) ([]domain.SellerTotal, error) {
	var totals []domain.SellerTotal

	err := r.run(ctx, "aggregate_by_seller", true, func() error {
		rows, err := r.db.Query(ctx, aggregateBySellerSQL, timestamptz(rng.Start()), timestamptz(rng.End()))
		if err != nil {
			return err
		}
		defer rows.Close()

		totals = make([]domain.SellerTotal, 0)
		for rows.Next() {
			var (
				st    domain.SellerTotal
				total pgtype.Numeric
			)
			if err := rows.Scan(&st.Seller, &total, &st.Count); err != nil {
				return err
			}
			st.Total = numericToDecimal(total)
			totals = append(totals, st)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return totals, nil
}

// AggregateTotal returns the sum of all amounts inside the range, zero when empty.
func (r *SaleRepository) AggregateTotal(ctx context.Context, rng domain.DateRange) (decimal.Decimal, error) {
	var total pgtype.Numeric

	err := r.run(ctx, "aggregate_total", true, func() error {
		return r.db.QueryRow(ctx, aggregateTotalSQL, timestamptz(rng.Start()), timestamptz(rng.End())).Scan(&total)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// Ping checks that the database answers.
func (r *SaleRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *SaleRepository) run(ctx context.Context, operation string, idempotent bool, fn func() error) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.gate.Release(1)

	start := time.Now()
	var err error
	if idempotent && r.retrier != nil {
		err = r.retrier.Retry(ctx, fn)
	} else {
		err = fn()
	}
	if r.observer != nil {
		r.observer.ObserveQuery(operation, start, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStorage, operation, err)
	}
	return nil
}

func (r *SaleRepository) acquire(ctx context.Context) error {
	waitCtx := ctx
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}

	if err := r.gate.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorage, ctx.Err())
		}
		if r.observer != nil {
			r.observer.Backpressure()
		}
		return fmt.Errorf("%w: no connection available after %s", domain.ErrBackpressure, r.acquireTimeout)
	}
	return nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
