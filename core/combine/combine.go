// Package combine composes risk factor library outputs into one risk index
// per domain.
//
// Home risk is an additive weighted sum. Vehicle risk is multiplicative
// against the class multiplier. The two rules are business decisions and
// stay per-domain. Every index is clamped to [0,1] as the last step.
package combine

import (
	"go.uber.org/zap"

	"premium-estimator/core/risk"
	"premium-estimator/core/types"
	"premium-estimator/internal/logging"
)

// Environmental weights: flood, wildfire, crime
const (
	FloodWeight    = 0.5
	WildfireWeight = 0.3
	CrimeWeight    = 0.2
)

// Home weights: structural, environmental
const (
	StructuralWeight    = 0.6
	EnvironmentalWeight = 0.4
)

// WeightSet is one additive combination site
type WeightSet struct {
	Name    string
	Weights map[string]float64
}

// Sum returns the total of the declared weights
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, v := range w.Weights {
		total += v
	}
	return total
}

// Weights lists every additive combination site with its declared weights
func Weights() []WeightSet {
	return []WeightSet{
		{
			Name: "environmental",
			Weights: map[string]float64{
				types.EnvFloodZoneLevel: FloodWeight,
				types.EnvWildfireRisk:   WildfireWeight,
				types.EnvCrimeRateIndex: CrimeWeight,
			},
		},
		{
			Name: "home",
			Weights: map[string]float64{
				"structural":    StructuralWeight,
				"environmental": EnvironmentalWeight,
			},
		},
	}
}

// StructuralIndex sums the property factors and clamps the result
func StructuralIndex(f risk.PropertyFeatures) float64 {
	score := risk.PropertyAge(f.PropertyAge) +
		risk.Material(f.ConstructionMaterial) +
		risk.Renovation(f.RenovationYear, f.PropertyAge) +
		risk.Security(f.HasSecuritySystem) +
		risk.Floors(f.NumFloors)
	return risk.Clamp(score)
}

// EnvironmentalIndex is the weighted flood/wildfire/crime score
func EnvironmentalIndex(env types.EnvironmentalContext) float64 {
	score := float64(FloodWeight*risk.Flood(env.Value(types.EnvFloodZoneLevel))) +
		float64(WildfireWeight*risk.Wildfire(env.Value(types.EnvWildfireRisk))) +
		float64(CrimeWeight*risk.Crime(env.Value(types.EnvCrimeRateIndex)))
	return risk.Clamp(score)
}

// HomeIndex combines structural and environmental risk
func HomeIndex(f risk.PropertyFeatures, env types.EnvironmentalContext) float64 {
	structural := StructuralIndex(f)
	environmental := EnvironmentalIndex(env)
	// explicit conversions keep the result free of fused multiply-add
	index := risk.Clamp(float64(StructuralWeight*structural) + float64(EnvironmentalWeight*environmental))

	logging.Debug("home risk index",
		zap.Float64("structural", structural),
		zap.Float64("environmental", environmental),
		zap.Float64("index", index))
	return index
}

// VehicleSubScores returns the per-attribute vehicle risk scores
func VehicleSubScores(p risk.VehicleProfile) map[string]float64 {
	return map[string]float64{
		"age":        risk.DriverAge(p.Age),
		"mileage":    risk.Mileage(p.AnnualKm),
		"car_age":    risk.VehicleAge(p.CarAge),
		"experience": risk.Experience(p.ExperienceYears),
		"accidents":  risk.Accidents(p.Accidents),
	}
}

// VehicleBaseRisk treats the sub-scores as independent hazards:
// 1 - product(1 - s) over all sub-scores.
func VehicleBaseRisk(p risk.VehicleProfile) float64 {
	survival := float64((1 - risk.DriverAge(p.Age)) *
		(1 - risk.Mileage(p.AnnualKm)) *
		(1 - risk.VehicleAge(p.CarAge)) *
		(1 - risk.Experience(p.ExperienceYears)) *
		(1 - risk.Accidents(p.Accidents)))
	return risk.Clamp(1 - survival)
}

// VehicleIndex multiplies the base risk by the class multiplier and clamps
func VehicleIndex(p risk.VehicleProfile) float64 {
	base := VehicleBaseRisk(p)
	multiplier := risk.VehicleClass(p.VehicleType)
	index := risk.Clamp(multiplier * base)

	logging.Debug("vehicle risk index",
		zap.Float64("base", base),
		zap.Float64("class_multiplier", multiplier),
		zap.Float64("index", index))
	return index
}
