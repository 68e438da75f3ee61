// Package storage provides the quote journal: a record of every issued
// premium with the attributes it was priced from.
// Supports multiple backends: memory, file and sqlite.
package storage

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Store is the quote journal interface
type Store interface {
	// Save stores a quote, assigning an ID and timestamp when missing
	Save(ctx context.Context, quote *StoredQuote) error

	// Get retrieves a quote by ID
	Get(ctx context.Context, id string) (*StoredQuote, error)

	// List lists quotes newest first
	List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error)

	// Delete removes a quote
	Delete(ctx context.Context, id string) error

	// Close closes the store
	Close() error
}

// StoredQuote is a journaled quote
type StoredQuote struct {
	// ID is the quote ID
	ID string `json:"id"`

	// Domain is the insurance line
	Domain types.Domain `json:"domain"`

	// Strategy is the estimator that produced the amount
	Strategy types.Strategy `json:"strategy"`

	// Amount is the premium
	Amount decimal.Decimal `json:"amount"`

	// Currency is the premium currency
	Currency types.Currency `json:"currency"`

	// RiskIndex is set for rule-based quotes
	RiskIndex *float64 `json:"risk_index,omitempty"`

	// Formula describes the calculation
	Formula string `json:"formula,omitempty"`

	// Input is the attribute record that was priced
	Input types.Record `json:"input,omitempty"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`

	// Metadata
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FromQuote journals a quote together with its input record
func FromQuote(q *types.Quote, input types.Record) *StoredQuote {
	return &StoredQuote{
		ID:        q.ID,
		Domain:    q.Domain,
		Strategy:  q.Strategy,
		Amount:    q.Amount,
		Currency:  q.Currency,
		RiskIndex: q.RiskIndex,
		Formula:   q.Formula,
		Input:     input,
		CreatedAt: q.IssuedAt,
	}
}

// ListFilter filters quote listing
type ListFilter struct {
	Domain    types.Domain
	Strategy  types.Strategy
	Since     time.Time
	Until     time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Limit     int
	Offset    int
}

// Match reports whether a quote passes the filter
func (f *ListFilter) Match(q *StoredQuote) bool {
	if f == nil {
		return true
	}
	if f.Domain != "" && q.Domain != f.Domain {
		return false
	}
	if f.Strategy != "" && q.Strategy != f.Strategy {
		return false
	}
	if !f.Since.IsZero() && q.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && q.CreatedAt.After(f.Until) {
		return false
	}
	if f.MinAmount.IsPositive() && q.Amount.LessThan(f.MinAmount) {
		return false
	}
	if f.MaxAmount.IsPositive() && q.Amount.GreaterThan(f.MaxAmount) {
		return false
	}
	return true
}

// page orders quotes newest first and applies offset and limit
func (f *ListFilter) page(quotes []*StoredQuote) []*StoredQuote {
	sort.SliceStable(quotes, func(i, j int) bool {
		if !quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].CreatedAt.After(quotes[j].CreatedAt)
		}
		return quotes[i].ID < quotes[j].ID
	})
	if f == nil {
		return quotes
	}
	if f.Offset > 0 {
		if f.Offset >= len(quotes) {
			return nil
		}
		quotes = quotes[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(quotes) {
		quotes = quotes[:f.Limit]
	}
	return quotes
}

// prepare fills the ID and timestamp of a quote about to be saved
func prepare(q *StoredQuote) error {
	if q == nil {
		return errors.InvalidInput("quote", "is required")
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	} else if _, err := uuid.Parse(q.ID); err != nil {
		return errors.InvalidInput("id", "quote id must be a UUID")
	}
	if !q.Domain.IsValid() {
		return errors.InvalidInput("domain", "unknown domain: "+q.Domain.String())
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id string) error {
	return errors.NotFound("quote", id)
}

// CompareResult is a comparison between two quotes
type CompareResult struct {
	OldID        string          `json:"old_id"`
	NewID        string          `json:"new_id"`
	OldAmount    decimal.Decimal `json:"old_amount"`
	NewAmount    decimal.Decimal `json:"new_amount"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent float64         `json:"delta_percent"`
}

// Compare reports how the premium changed between two journaled quotes
func Compare(ctx context.Context, s Store, oldID, newID string) (*CompareResult, error) {
	oldQuote, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newQuote, err := s.Get(ctx, newID)
	if err != nil {
		return nil, err
	}

	delta := newQuote.Amount.Sub(oldQuote.Amount)
	deltaPercent := 0.0
	if oldQuote.Amount.IsPositive() {
		deltaPercent = delta.Div(oldQuote.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return &CompareResult{
		OldID:        oldID,
		NewID:        newID,
		OldAmount:    oldQuote.Amount,
		NewAmount:    newQuote.Amount,
		Delta:        delta,
		DeltaPercent: deltaPercent,
	}, nil
}

// Latest returns the newest quote of a domain
func Latest(ctx context.Context, s Store, domain types.Domain) (*StoredQuote, error) {
	quotes, err := s.List(ctx, &ListFilter{Domain: domain, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, errors.NotFound("quote", "latest "+domain.String())
	}
	return quotes[0], nil
}
