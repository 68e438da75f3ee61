// Package api - API types for premium quotes
// These types define the contract for the quote, predict and explain endpoints.
package api

import (
	"premium-estimator/adapters/storage"
	"premium-estimator/core/estimator"
	"premium-estimator/core/types"
)

// QuoteResponse is returned by the quote and single-record predict endpoints
type QuoteResponse struct {
	RequestID  string       `json:"request_id"`
	Quote      *types.Quote `json:"quote"`
	DurationMs int64        `json:"duration_ms"`
}

// BatchRequest is the body of POST /predict when pricing several records
type BatchRequest struct {
	Records []types.Record `json:"records"`
}

// BatchResponse is returned for a batch prediction
type BatchResponse struct {
	RequestID  string         `json:"request_id"`
	Quotes     []*types.Quote `json:"quotes"`
	DurationMs int64          `json:"duration_ms"`
}

// ExplainResponse lists model feature importances, largest first
type ExplainResponse struct {
	ModelKind     string                   `json:"model_kind"`
	Checksum      string                   `json:"checksum,omitempty"`
	Contributions []estimator.Contribution `json:"contributions"`
}

// QuoteListResponse is returned by GET /quotes
type QuoteListResponse struct {
	Quotes []*storage.StoredQuote `json:"quotes"`
	Count  int                    `json:"count"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
