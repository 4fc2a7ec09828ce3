package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/salesledger/internal/adapter/http/dto"
	"github.com/iho/salesledger/internal/domain"
)

// User-facing error messages.
const (
	MsgMissingFields = "Dados incompletos"
	MsgInvalidData   = "Dados inválidos"
	MsgInvalidDates  = "Datas inválidas"
	MsgUnavailable   = "Serviço indisponível"
	MsgInternal      = "Erro interno"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// writeDomainError maps err to a status and a message safe to show to users.
func writeDomainError(w http.ResponseWriter, err error) {
	status, message := mapDomainError(err)
	writeError(w, status, message)
}

// mapDomainError maps domain errors to HTTP status codes and messages.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, MsgMissingFields
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, MsgInvalidDates
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, MsgInvalidData
	case errors.Is(err, domain.ErrBackpressure):
		return http.StatusServiceUnavailable, MsgUnavailable
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
