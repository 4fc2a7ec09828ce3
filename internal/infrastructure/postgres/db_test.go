package postgres

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

func TestNewPoolWithConfigDefaults(t *testing.T) {
	ctx := context.Background()

	// using invalid URL should return error
	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := PoolConfig{
		DatabaseURL: "postgres://invalid:5432/db?connect_timeout=1",
		MaxConns:    1,
		MinConns:    0,
	}

	_, err := NewPoolWithConfig(ctx, cfg)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithBackoffRetriesUntilReady(t *testing.T) {
	p := &flakyPinger{failures: 2}

	if err := pingWithBackoff(context.Background(), p, 5*time.Second); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 ping attempts, got %d", p.calls)
	}
}

func TestPingWithBackoffSingleAttemptWithoutTimeout(t *testing.T) {
	p := &flakyPinger{failures: 1}

	if err := pingWithBackoff(context.Background(), p, 0); err == nil {
		t.Fatalf("expected failure on single attempt")
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", p.calls)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}

	if up == 0 || up != down {
		t.Fatalf("expected matching up/down migrations, got up=%d down=%d", up, down)
	}

	body, err := fs.ReadFile(migrationsFS, "migrations/000001_create_sales.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration: %v", err)
	}
	if !strings.Contains(string(body), "NUMERIC(12, 2)") {
		t.Fatalf("expected amount column to be fixed-point with 2 decimals")
	}
}
