package estimator

import (
	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

// HomeFeatures adds the weighted rule-based risk index to a home record so a
// model trained on [property_value, num_past_claims, risk_index] can use it.
type HomeFeatures struct {
	RiskWeight float64
}

// Prepare implements Preparer. The input record is left untouched.
func (h HomeFeatures) Prepare(rec types.Record) (types.Record, error) {
	if h.RiskWeight < 0 {
		return nil, errors.InvalidInput("risk_weight", "risk weight cannot be negative")
	}
	index, err := HomeStrategy{}.RiskIndex(rec)
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	out[FieldRiskIndex] = index * h.RiskWeight
	return out, nil
}
