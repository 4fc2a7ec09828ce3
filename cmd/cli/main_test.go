package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/iho/salesledger/internal/adapter/http"
	"github.com/iho/salesledger/internal/adapter/http/handler"
	"github.com/iho/salesledger/internal/adapter/repository/memory"
	"github.com/iho/salesledger/internal/domain"
	"github.com/iho/salesledger/internal/usecase"
)

func newTestAPI(t *testing.T) (*httptest.Server, *memory.SaleRepository) {
	t.Helper()

	created := time.Date(2025, 11, 24, 18, 30, 0, 0, time.UTC)
	repo := memory.NewSaleRepository().WithClock(func() time.Time { return created })
	policy := domain.Policy{Roster: domain.Roster{
		Sellers:        domain.DefaultSellers,
		PaymentMethods: domain.DefaultPaymentMethods,
	}}
	salesUC := usecase.NewSalesUseCase(repo, policy)

	srv := httptest.NewServer(httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SalesHandler:  handler.NewSalesHandler(salesUC, time.UTC),
		HealthHandler: handler.NewHealthHandler(nil),
		Logger:        zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)

	return srv, repo
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10.50", want: "10.5"},
		{in: "10,50", want: "10.5"},
		{in: "1.005", want: "1.01"},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "1e20000000", wantErr: true},
		{in: "0.004", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, errInvalidAmount, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestRecordAndSummary(t *testing.T) {
	srv, repo := newTestAPI(t)

	out, err := execute(t, "--url", srv.URL, "record", "--seller", "Vendedora 1", "--amount", "10,00", "--payment-method", "pix")
	require.NoError(t, err)
	assert.Equal(t, "Venda registrada (id 1)\n", out)

	_, err = execute(t, "--url", srv.URL, "record", "--seller", "Vendedora 1", "--amount", "5", "--payment-method", "dinheiro")
	require.NoError(t, err)
	_, err = execute(t, "--url", srv.URL, "record", "--seller", "Vendedora 2", "--amount", "20", "--payment-method", "cartao")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.Count())

	out, err = execute(t, "--url", srv.URL, "summary", "--json")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"perSeller":[{"seller":"Vendedora 1","total":15.00,"count":2},{"seller":"Vendedora 2","total":20.00,"count":1}],"total":35.00}`,
		out)

	out, err = execute(t, "--url", srv.URL, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Vendedora 1")
	assert.Contains(t, out, "35.00")
}

func TestRecordRejectsInvalidAmountWithoutCallingAPI(t *testing.T) {
	srv, repo := newTestAPI(t)

	_, err := execute(t, "--url", srv.URL, "record", "--seller", "Vendedora 1", "--amount", "0", "--payment-method", "pix")
	require.ErrorIs(t, err, errInvalidAmount)
	assert.Equal(t, 0, repo.Count())
}

func TestRecordReportsAPIError(t *testing.T) {
	srv, _ := newTestAPI(t)

	_, err := execute(t, "--url", srv.URL, "record", "--seller", "Vendedora 1", "--amount", "3", "--payment-method", "")
	require.Error(t, err)
	assert.Equal(t, "Dados incompletos", err.Error())
}

func TestConnectionFailure(t *testing.T) {
	srv, _ := newTestAPI(t)
	url := srv.URL
	srv.Close()

	_, err := execute(t, "--url", url, "--timeout", "1s", "health")
	require.ErrorIs(t, err, errConnect)
	assert.True(t, strings.HasPrefix(err.Error(), "Erro ao conectar com a API"))
}

func TestListAndExport(t *testing.T) {
	srv, _ := newTestAPI(t)

	_, err := execute(t, "--url", srv.URL, "record", "--seller", `Ana "Caixa"`, "--amount", "7.5", "--payment-method", "pix")
	require.NoError(t, err)

	out, err := execute(t, "--url", srv.URL, "list", "--from", "2025-11-24", "--to", "2025-11-24")
	require.NoError(t, err)
	assert.Contains(t, out, "7.50")
	assert.Contains(t, out, "2025-11-24 18:30:00")

	out, err = execute(t, "--url", srv.URL, "export")
	require.NoError(t, err)
	assert.Equal(t,
		"id,seller,amount,payment_method,created_at\n1,\"Ana \"\"Caixa\"\"\",7.50,pix,2025-11-24T18:30:00Z\n",
		out)

	path := filepath.Join(t.TempDir(), "vendas.csv")
	_, err = execute(t, "--url", srv.URL, "export", "-o", path, "--from", "2025-11-25")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, csvHeader+"\n", string(data))
}

func TestRosterAndHealth(t *testing.T) {
	srv, _ := newTestAPI(t)

	out, err := execute(t, "--url", srv.URL, "roster")
	require.NoError(t, err)
	assert.Contains(t, out, `"Vendedora 5"`)
	assert.Contains(t, out, `"pix"`)

	out, err = execute(t, "--url", srv.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
