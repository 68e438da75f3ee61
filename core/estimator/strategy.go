package estimator

import (
	stderrors "errors"

	"premium-estimator/core/combine"
	"premium-estimator/core/risk"
	"premium-estimator/core/types"
	"premium-estimator/core/validate"
	"premium-estimator/internal/errors"
)

// Vehicle record fields
const (
	FieldAge          = "age"
	FieldAnnualKm     = "annual_km"
	FieldCarAge       = "car_age"
	FieldExpYears     = "exp_years"
	FieldNumAccidents = "num_accidents"
	FieldVehicleType  = "vehicle_type"
)

// Home record fields
const (
	FieldPropertyAge          = "property_age"
	FieldConstructionMaterial = "construction_material"
	FieldRenovationYear       = "renovation_year"
	FieldHasSecuritySystem    = "has_security_system"
	FieldNumFloors            = "num_floors"
	FieldPropertyValue        = "property_value"
	FieldNumPastClaims        = "num_past_claims"
	FieldRiskIndex            = "risk_index"
)

// cannotCompute wraps a validation failure, keeping the offending field
func cannotCompute(err error) error {
	wrapped := errors.Wrap(errors.TypeInvalidInput, "cannot compute risk", err)
	var de *errors.Error
	if stderrors.As(err, &de) && de.Field() != "" {
		wrapped.WithContext("field", de.Field())
	}
	return wrapped
}

// VehicleStrategy prices the vehicle domain
type VehicleStrategy struct{}

// Domain implements RiskStrategy
func (VehicleStrategy) Domain() types.Domain { return types.DomainVehicle }

// RiskIndex implements RiskStrategy
func (s VehicleStrategy) RiskIndex(rec types.Record) (float64, error) {
	p, err := s.Profile(rec)
	if err != nil {
		return 0, cannotCompute(err)
	}
	return combine.VehicleIndex(p), nil
}

// Profile reads a vehicle profile from a record. vehicle_type may be absent
// or nil, but any non-string value is rejected.
func (VehicleStrategy) Profile(rec types.Record) (risk.VehicleProfile, error) {
	var p risk.VehicleProfile
	var err error

	if p.Age, err = validate.RequiredNumber(rec, FieldAge); err != nil {
		return p, err
	}
	if p.AnnualKm, err = validate.RequiredNumber(rec, FieldAnnualKm); err != nil {
		return p, err
	}
	if p.CarAge, err = validate.RequiredNumber(rec, FieldCarAge); err != nil {
		return p, err
	}
	if p.ExperienceYears, err = validate.RequiredNumber(rec, FieldExpYears); err != nil {
		return p, err
	}
	accidents, err := validate.RequiredNumber(rec, FieldNumAccidents)
	if err != nil {
		return p, err
	}
	p.Accidents = risk.Count(accidents, risk.MaxAccidents)

	raw, _ := rec.Get(FieldVehicleType)
	if p.VehicleType, _, err = validate.OptionalString(FieldVehicleType, raw); err != nil {
		return p, err
	}
	return p, nil
}

// HomeStrategy prices the home domain from property features and the
// flood_zone_level, wildfire_risk and crime_rate_index environmental keys
type HomeStrategy struct{}

// Domain implements RiskStrategy
func (HomeStrategy) Domain() types.Domain { return types.DomainHome }

// RiskIndex implements RiskStrategy
func (s HomeStrategy) RiskIndex(rec types.Record) (float64, error) {
	features, env, err := s.Split(rec)
	if err != nil {
		return 0, cannotCompute(err)
	}
	return combine.HomeIndex(features, env), nil
}

// Split separates a home record into property features and environment
func (HomeStrategy) Split(rec types.Record) (risk.PropertyFeatures, types.EnvironmentalContext, error) {
	var f risk.PropertyFeatures
	var err error

	if f.PropertyAge, err = validate.RequiredNumber(rec, FieldPropertyAge); err != nil {
		return f, nil, err
	}

	raw, _ := rec.Get(FieldConstructionMaterial)
	if f.ConstructionMaterial, _, err = validate.OptionalString(FieldConstructionMaterial, raw); err != nil {
		return f, nil, err
	}

	year, renovated, err := validate.OptionalNumber(rec, FieldRenovationYear)
	if err != nil {
		return f, nil, err
	}
	if renovated {
		y := risk.Count(year, risk.MaxRenovationYear)
		f.RenovationYear = &y
	}

	raw, _ = rec.Get(FieldHasSecuritySystem)
	if f.HasSecuritySystem, err = validate.OptionalBool(FieldHasSecuritySystem, raw); err != nil {
		return f, nil, err
	}

	floors, ok, err := validate.OptionalNumber(rec, FieldNumFloors)
	if err != nil {
		return f, nil, err
	}
	f.NumFloors = 1
	if ok {
		f.NumFloors = risk.Count(floors, risk.MaxFloors)
	}

	env := types.EnvironmentalContext{}
	for _, key := range []string{types.EnvFloodZoneLevel, types.EnvWildfireRisk, types.EnvCrimeRateIndex} {
		v, ok, err := validate.OptionalNumber(rec, key)
		if err != nil {
			return f, nil, err
		}
		if ok {
			env[key] = v
		}
	}
	return f, env, nil
}

// HomeRecord builds the flat record HomeStrategy reads
func HomeRecord(f risk.PropertyFeatures, env types.EnvironmentalContext) types.Record {
	rec := types.Record{
		FieldPropertyAge:          f.PropertyAge,
		FieldConstructionMaterial: f.ConstructionMaterial,
		FieldHasSecuritySystem:    f.HasSecuritySystem,
		FieldNumFloors:            f.NumFloors,
	}
	if f.RenovationYear != nil {
		rec[FieldRenovationYear] = *f.RenovationYear
	}
	for k, v := range env {
		rec[k] = v
	}
	return rec
}

// StrategyFor returns the rule-based strategy of a domain
func StrategyFor(d types.Domain) (RiskStrategy, error) {
	switch d {
	case types.DomainVehicle:
		return VehicleStrategy{}, nil
	case types.DomainHome:
		return HomeStrategy{}, nil
	default:
		return nil, errors.Newf(errors.TypeInvalidInput, "no rule-based strategy for domain %q", d).
			WithContext("field", "domain")
	}
}
