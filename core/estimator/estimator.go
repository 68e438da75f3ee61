// Package estimator turns attribute records into premium quotes.
//
// Two strategies sit behind one Estimator contract: a closed-form rule-based
// estimator (base cost times combined risk index) and a learned-model
// estimator (encoded, aligned feature vector fed to a fitted regressor).
// Callers pick one through configuration; see FromConfig.
package estimator

import (
	"premium-estimator/core/types"
)

// Estimator produces a premium quote from one attribute record
type Estimator interface {
	Estimate(rec types.Record) (*types.Quote, error)
}

// RiskStrategy computes a domain's combined risk index in [0,1]
type RiskStrategy interface {
	// Domain is the insurance line the strategy prices
	Domain() types.Domain

	// RiskIndex reads the record's raw attributes and combines them
	RiskIndex(rec types.Record) (float64, error)
}

// Preparer derives model inputs from raw attributes before encoding
type Preparer interface {
	Prepare(rec types.Record) (types.Record, error)
}
