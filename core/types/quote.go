// Package types - Premium quote types
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"premium-estimator/internal/errors"
)

// Strategy names the estimator that produced a quote
type Strategy string

const (
	StrategyRule  Strategy = "rule"
	StrategyModel Strategy = "model"
)

// Quote is the final non-negative premium, rounded to two decimal places
type Quote struct {
	// ID uniquely identifies this quote
	ID string `json:"id"`

	// Domain is the insurance line
	Domain Domain `json:"domain"`

	// Strategy is the estimator that produced the amount
	Strategy Strategy `json:"strategy"`

	// Amount is the premium
	Amount decimal.Decimal `json:"amount"`

	// Currency is the premium currency
	Currency Currency `json:"currency"`

	// RiskIndex is the combined index used by rule-based quotes
	RiskIndex *float64 `json:"risk_index,omitempty"`

	// Formula describes how the amount was calculated
	Formula string `json:"formula"`

	// IssuedAt is when the quote was produced
	IssuedAt time.Time `json:"issued_at"`
}

// NewQuote rounds amount to two places and stamps an ID.
// A negative amount is a programming error and is returned as such.
func NewQuote(domain Domain, strategy Strategy, amount decimal.Decimal, formula string) (*Quote, error) {
	rounded := amount.Round(2)
	if rounded.IsNegative() {
		return nil, errors.InvalidInput("premium", "final premium cannot be negative: "+rounded.String())
	}
	return &Quote{
		ID:       uuid.New().String(),
		Domain:   domain,
		Strategy: strategy,
		Amount:   rounded,
		Currency: CurrencyUSD,
		Formula:  formula,
		IssuedAt: time.Now().UTC(),
	}, nil
}

// Float64 returns the amount as a float
func (q *Quote) Float64() float64 {
	return q.Amount.InexactFloat64()
}

// String returns a display form such as "USD 442.22"
func (q *Quote) String() string {
	return fmt.Sprintf("%s %s", q.Currency, q.Amount.StringFixed(2))
}
