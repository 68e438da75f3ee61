package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"premium-estimator/core/types"
	"premium-estimator/core/validate"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// RuleBased prices a record as round(base_cost * risk_index, 2)
type RuleBased struct {
	base     decimal.Decimal
	strategy RiskStrategy
	currency types.Currency
}

// NewRuleBased composes a positive base cost with a risk strategy
func NewRuleBased(baseCost float64, strategy RiskStrategy) (*RuleBased, error) {
	if err := validate.PositiveAmount("base_cost", baseCost); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, errors.InvalidInput("strategy", "is required")
	}
	return &RuleBased{
		base:     decimal.NewFromFloat(baseCost),
		strategy: strategy,
		currency: types.CurrencyUSD,
	}, nil
}

// WithCurrency sets the quote currency
func (r *RuleBased) WithCurrency(c types.Currency) *RuleBased {
	r.currency = c
	return r
}

// BaseCost returns the premium before risk adjustment
func (r *RuleBased) BaseCost() decimal.Decimal {
	return r.base
}

// Strategy returns the risk strategy
func (r *RuleBased) Strategy() RiskStrategy {
	return r.strategy
}

// Estimate implements Estimator
func (r *RuleBased) Estimate(rec types.Record) (*types.Quote, error) {
	index, err := r.strategy.RiskIndex(rec)
	if err != nil {
		return nil, err
	}

	premium := r.base.Mul(decimal.NewFromFloat(index))
	formula := fmt.Sprintf("%s base * %.6f %s risk index", r.base.String(), index, r.strategy.Domain())
	q, err := types.NewQuote(r.strategy.Domain(), types.StrategyRule, premium, formula)
	if err != nil {
		return nil, err
	}
	q.Currency = r.currency
	q.RiskIndex = &index

	logging.Debug("rule-based quote",
		zap.String("domain", r.strategy.Domain().String()),
		zap.Float64("risk_index", index),
		zap.String("premium", q.Amount.StringFixed(2)))
	return q, nil
}
