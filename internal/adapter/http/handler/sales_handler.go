package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/iho/salesledger/internal/adapter/http/dto"
	"github.com/iho/salesledger/internal/domain"
	"github.com/iho/salesledger/internal/usecase"
)

// maxRequestBody bounds the size of a recorded sale payload.
const maxRequestBody = 1 << 16

// SalesService defines the behavior needed by SalesHandler.
type SalesService interface {
	RecordSale(ctx context.Context, input usecase.RecordSaleInput) (int64, error)
	GetSales(ctx context.Context, r domain.DateRange) ([]*domain.Sale, error)
	GetSummary(ctx context.Context, r domain.DateRange) (*domain.Summary, error)
	Roster() domain.Roster
}

// SalesHandler handles sale-related HTTP requests.
type SalesHandler struct {
	salesUC  SalesService
	location *time.Location
}

// NewSalesHandler creates a new SalesHandler. Date filters are interpreted in loc;
// nil means UTC.
func NewSalesHandler(salesUC SalesService, loc *time.Location) *SalesHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesHandler{salesUC: salesUC, location: loc}
}

// Record records a sale.
func (h *SalesHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordSaleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	id, err := h.salesUC.RecordSale(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordSaleResponse{OK: true, ID: id})
}

// List lists sales, newest first, optionally filtered by ?from and ?to.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sales, err := h.salesUC.GetSales(r.Context(), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SalesFromDomain(sales))
}

// Summary returns per-seller and overall totals, optionally filtered by ?from and ?to.
func (h *SalesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := h.dateRange(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary, err := h.salesUC.GetSummary(r.Context(), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}

// Roster returns the configured sellers and payment methods.
func (h *SalesHandler) Roster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.RosterFromDomain(h.salesUC.Roster()))
}

func (h *SalesHandler) dateRange(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	return domain.ParseDateRange(q.Get("from"), q.Get("to"), h.location)
}
