package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iho/salesledger/internal/adapter/http/dto"
)

// errConnect is reported when the API cannot be reached.
var errConnect = errors.New("Erro ao conectar com a API")

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API respondeu %d", e.Status)
	}
	return e.Message
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) RecordSale(ctx context.Context, req dto.RecordSaleRequest) (*dto.RecordSaleResponse, error) {
	var resp dto.RecordSaleResponse
	if err := c.do(ctx, http.MethodPost, "/api/sales", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) ListSales(ctx context.Context, from, to string) ([]dto.SaleResponse, error) {
	var resp []dto.SaleResponse
	if err := c.do(ctx, http.MethodGet, "/api/sales", rangeQuery(from, to), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *apiClient) Summary(ctx context.Context, from, to string) (*dto.SummaryResponse, error) {
	var resp dto.SummaryResponse
	if err := c.do(ctx, http.MethodGet, "/api/summary", rangeQuery(from, to), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Roster(ctx context.Context) (*dto.RosterResponse, error) {
	var resp dto.RosterResponse
	if err := c.do(ctx, http.MethodGet, "/api/roster", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Health(ctx context.Context) (*dto.StatusResponse, error) {
	var resp dto.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func rangeQuery(from, to string) url.Values {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errConnect, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", errConnect, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return &apiError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
