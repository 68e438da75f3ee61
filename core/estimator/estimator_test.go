package estimator

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premium-estimator/core/artifact"
	"premium-estimator/core/encoding"
	"premium-estimator/core/model"
	"premium-estimator/core/risk"
	"premium-estimator/core/schema"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
	"premium-estimator/internal/errors"
)

func vehicleRecord(accidents any) types.Record {
	return types.Record{
		"age":           35,
		"annual_km":     15000,
		"car_age":       5,
		"exp_years":     10,
		"num_accidents": accidents,
		"vehicle_type":  "suv",
	}
}

func homeManifest() schema.Manifest {
	return schema.Manifest{
		"Claim_3_Years", "Owner_Employment_Status", "Accidental_Damage", "Owner_Sex",
		"Alarm_Present", "Locks_Present", "Bedrooms", "Flooding",
		"Safe_Installed", "YearBuilt", "Owner",
	}
}

func TestVehicleGoldenPremium(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	q, err := est.Estimate(vehicleRecord(1))
	require.NoError(t, err)
	assert.Equal(t, "442.22", q.Amount.StringFixed(2))
	assert.Equal(t, types.DomainVehicle, q.Domain)
	assert.Equal(t, types.StrategyRule, q.Strategy)
	require.NotNil(t, q.RiskIndex)
	assert.InDelta(t, 0.89565, *q.RiskIndex, 1e-9)
}

func TestVehiclePremiumRisesWithAccidents(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	want := []string{"409.56", "442.22", "469.44", "491.21", "493.74"}
	prev := -1.0
	for n, expected := range want {
		q, err := est.Estimate(vehicleRecord(n))
		require.NoError(t, err)
		assert.Equal(t, expected, q.Amount.StringFixed(2), "accidents=%d", n)
		assert.GreaterOrEqual(t, q.Float64(), prev)
		prev = q.Float64()
	}
}

func TestVehiclePremiumSaturatesForHugeAccidentCounts(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	prev := -1.0
	for _, n := range []float64{4, 4.5, 1e6, 1e18, 1e19, 1e30, math.MaxFloat64} {
		q, err := est.Estimate(vehicleRecord(n))
		require.NoError(t, err)
		assert.Equal(t, "493.74", q.Amount.StringFixed(2), "accidents=%g", n)
		assert.GreaterOrEqual(t, q.Float64(), prev, "accidents=%g", n)
		prev = q.Float64()
	}
}

func TestHomeRiskDoesNotFallForHugeFloorCounts(t *testing.T) {
	s := HomeStrategy{}
	prev := -1.0
	for _, floors := range []float64{1, 2, 10, 1e6, 1e19, 1e300} {
		rec := HomeRecord(riskFeatures(5, "brick", nil, true, 1), nil)
		rec[FieldNumFloors] = floors
		index, err := s.RiskIndex(rec)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, index, prev, "floors=%g", floors)
		prev = index
	}

	f, _, err := s.Split(types.Record{FieldPropertyAge: 50, FieldNumFloors: 1e19, FieldRenovationYear: 1e30})
	require.NoError(t, err)
	assert.Equal(t, risk.MaxFloors, f.NumFloors)
	require.NotNil(t, f.RenovationYear)
	assert.Equal(t, risk.MaxRenovationYear, *f.RenovationYear)
}

func TestVehiclePremiumNeverExceedsBase(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	rec := types.Record{
		"age": 19, "annual_km": 90000, "car_age": 30, "exp_years": 0,
		"num_accidents": 9, "vehicle_type": "sports",
	}
	q, err := est.Estimate(rec)
	require.NoError(t, err)
	assert.Equal(t, "493.74", q.Amount.StringFixed(2))
}

func TestNewRuleBasedRejectsNonPositiveBase(t *testing.T) {
	for _, base := range []float64{0, -10} {
		_, err := NewRuleBased(base, VehicleStrategy{})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidInput), "base=%v", base)
	}
	_, err := NewRuleBased(100, nil)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestVehicleTypeMustBeString(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	rec := vehicleRecord(0)
	rec["vehicle_type"] = 7
	_, err = est.Estimate(rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))

	var de *errors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "vehicle_type", de.Field())
}

func TestVehicleTypeMayBeAbsent(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	rec := vehicleRecord(1)
	delete(rec, "vehicle_type")
	q, err := est.Estimate(rec)
	require.NoError(t, err)
	// sedan-equivalent multiplier of 1.0
	assert.Equal(t, "421.16", q.Amount.StringFixed(2))
}

func TestVehicleMissingRequiredField(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	rec := vehicleRecord(0)
	delete(rec, "annual_km")
	_, err = est.Estimate(rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestHomeRuleBasedPremium(t *testing.T) {
	est, err := NewRuleBased(1000, HomeStrategy{})
	require.NoError(t, err)

	rec := types.Record{
		"property_age":          30,
		"construction_material": "brick",
		"renovation_year":       2015,
		"has_security_system":   true,
		"num_floors":            2,
		"flood_zone_level":      0.5,
		"wildfire_risk":         0.2,
		"crime_rate_index":      0.4,
	}
	q, err := est.Estimate(rec)
	require.NoError(t, err)
	require.NotNil(t, q.RiskIndex)
	assert.GreaterOrEqual(t, *q.RiskIndex, 0.0)
	assert.LessOrEqual(t, *q.RiskIndex, 1.0)
	assert.True(t, q.Amount.LessThanOrEqual(est.BaseCost()))
}

func TestHomeStrategySplit(t *testing.T) {
	f, env, err := HomeStrategy{}.Split(types.Record{"property_age": 12})
	require.NoError(t, err)
	assert.Equal(t, 12.0, f.PropertyAge)
	assert.Equal(t, 1, f.NumFloors)
	assert.Nil(t, f.RenovationYear)
	assert.Equal(t, 0.0, env.Value(types.EnvFloodZoneLevel))

	_, _, err = HomeStrategy{}.Split(types.Record{"property_age": 12, "has_security_system": "yes"})
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestHomeRecordRoundTripsThroughSplit(t *testing.T) {
	year := 2001
	rec := HomeRecord(
		riskFeatures(40, "wood", &year, false, 3),
		types.EnvironmentalContext{types.EnvWildfireRisk: 0.7},
	)
	f, env, err := HomeStrategy{}.Split(rec)
	require.NoError(t, err)
	assert.Equal(t, 40.0, f.PropertyAge)
	require.NotNil(t, f.RenovationYear)
	assert.Equal(t, 2001, *f.RenovationYear)
	assert.Equal(t, 3, f.NumFloors)
	assert.Equal(t, 0.7, env.Value(types.EnvWildfireRisk))
}

func meanArtifact(t *testing.T) *artifact.Artifact {
	t.Helper()
	a, err := artifact.New(&model.Mean{Features: 11, Value: 123.456}, homeManifest())
	require.NoError(t, err)
	return a
}

func TestLearnedMeanModel(t *testing.T) {
	est, err := NewLearned(meanArtifact(t), encoding.HomeRules(), WithDomain(types.DomainHome))
	require.NoError(t, err)

	full := types.Record{
		"Claim_3_Years": "N", "Owner_Employment_Status": "Y", "Accidental_Damage": "N",
		"Owner_Sex": "M", "Alarm_Present": "Y", "Locks_Present": "Y", "Bedrooms": 3,
		"Flooding": "N", "Safe_Installed": "N", "YearBuilt": 1990, "Owner": 1,
	}
	q, err := est.Estimate(full)
	require.NoError(t, err)
	assert.Equal(t, "123.46", q.Amount.StringFixed(2))
	assert.Equal(t, types.StrategyModel, q.Strategy)
	assert.Nil(t, q.RiskIndex)

	partial := types.Record{"Bedrooms": 2, "Alarm_Present": "N"}
	q, err = est.Estimate(partial)
	require.NoError(t, err)
	assert.Equal(t, "123.46", q.Amount.StringFixed(2))
}

func TestLearnedPartialRecordMatchesExplicitZeros(t *testing.T) {
	manifest := homeManifest()
	coef := make([]float64, len(manifest))
	coef[manifest.Index("Bedrooms")] = 25
	coef[manifest.Index("YearBuilt")] = 0.01
	coef[manifest.Index("Owner")] = 40
	a, err := artifact.New(&model.Linear{Intercept: 100, Coefficients: coef}, manifest)
	require.NoError(t, err)

	est, err := NewLearned(a, encoding.HomeRules(), WithDomain(types.DomainHome))
	require.NoError(t, err)

	partial, err := est.Estimate(types.Record{"Bedrooms": 3})
	require.NoError(t, err)
	explicit, err := est.Estimate(types.Record{"Bedrooms": 3, "YearBuilt": 0, "Owner": 0})
	require.NoError(t, err)
	assert.Equal(t, "175.00", partial.Amount.StringFixed(2))
	assert.True(t, partial.Amount.Equal(explicit.Amount))
}

func TestLearnedClampsNegativePrediction(t *testing.T) {
	a, err := artifact.New(&model.Linear{Intercept: -50, Coefficients: []float64{1}}, schema.Manifest{"x"})
	require.NoError(t, err)
	est, err := NewLearned(a, nil, WithDomain(types.DomainHome))
	require.NoError(t, err)

	q, err := est.Estimate(types.Record{"x": 10})
	require.NoError(t, err)
	assert.True(t, q.Amount.IsZero())
}

func TestLearnedDoesNotMutateInput(t *testing.T) {
	est, err := NewLearned(meanArtifact(t), encoding.HomeRules(), WithDomain(types.DomainHome))
	require.NoError(t, err)

	rec := types.Record{"Flooding": "yes", "Extra": "ignored"}
	before := rec.Clone()
	_, err = est.Estimate(rec)
	require.NoError(t, err)
	assert.Equal(t, before, rec)
}

func writeArtifact(t *testing.T, m model.Regressor, manifest schema.Manifest) (string, string) {
	t.Helper()
	modelPath, featurePath, err := artifact.Save(t.TempDir(), "home", m, manifest)
	require.NoError(t, err)
	return modelPath, featurePath
}

func TestNewLearnedRequiresDomain(t *testing.T) {
	for _, opts := range [][]LearnedOption{nil, {WithDomain("marine")}} {
		_, err := NewLearned(meanArtifact(t), encoding.HomeRules(), opts...)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidInput))

		var de *errors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "domain", de.Field())
	}
}

func TestLoadLearnedMissingFiles(t *testing.T) {
	modelPath, featurePath := writeArtifact(t, &model.Mean{Features: 11, Value: 123.456}, homeManifest())

	_, err := LoadLearned(filepath.Join(t.TempDir(), "none.json"), featurePath, encoding.HomeRules())
	assert.True(t, errors.IsType(err, errors.TypeModelFileNotFound))

	_, err = LoadLearned(modelPath, filepath.Join(t.TempDir(), "none.json"), encoding.HomeRules())
	assert.True(t, errors.IsType(err, errors.TypeFeatureFileNotFound))

	est, err := LoadLearned(modelPath, featurePath, encoding.HomeRules())
	require.NoError(t, err)
	q, err := est.Estimate(types.Record{})
	require.NoError(t, err)
	assert.Equal(t, "123.46", q.Amount.StringFixed(2))
}

func TestInterpret(t *testing.T) {
	_, err := Interpret(meanArtifact(t))
	assert.True(t, errors.IsType(err, errors.TypeInterpretationUnavailable))

	forest := &model.Forest{
		Features:    2,
		Trees:       []model.Tree{{Nodes: []model.Node{{Feature: -1, Value: 10}}}},
		Importances: []float64{0.25, 0.75},
	}
	a, err := artifact.New(forest, schema.Manifest{"property_value", "risk_index"})
	require.NoError(t, err)

	imp, err := Interpret(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"property_value": 0.25, "risk_index": 0.75}, imp)

	ranked := Ranked(imp)
	require.Len(t, ranked, 2)
	assert.Equal(t, "risk_index", ranked[0].Feature)
}

func TestHomeFeaturesAddsWeightedRiskIndex(t *testing.T) {
	rec := types.Record{"property_age": 10, "property_value": 250000, "num_past_claims": 1}
	out, err := HomeFeatures{RiskWeight: 2}.Prepare(rec)
	require.NoError(t, err)

	index, err := HomeStrategy{}.RiskIndex(rec)
	require.NoError(t, err)
	assert.InDelta(t, 2*index, out[FieldRiskIndex], 1e-12)
	assert.False(t, rec.Has(FieldRiskIndex))
}

func TestEstimateBatchKeepsOrder(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	recs := make([]types.Record, 0, 5)
	for n := 0; n < 5; n++ {
		recs = append(recs, vehicleRecord(n))
	}
	quotes, err := EstimateBatch(context.Background(), est, recs, 2)
	require.NoError(t, err)
	require.Len(t, quotes, 5)
	assert.Equal(t, "409.56", quotes[0].Amount.StringFixed(2))
	assert.Equal(t, "493.74", quotes[4].Amount.StringFixed(2))
}

func TestEstimateBatchFailsOnBadRecord(t *testing.T) {
	est, err := NewRuleBased(config.DefaultBaseCost, VehicleStrategy{})
	require.NoError(t, err)

	bad := vehicleRecord(0)
	bad["vehicle_type"] = true
	_, err = EstimateBatch(context.Background(), est, []types.Record{vehicleRecord(1), bad}, 0)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestLearnedBatchFillsNumericGapsWithMedian(t *testing.T) {
	a, err := artifact.New(&model.Linear{Coefficients: []float64{1}}, schema.Manifest{"bmi"})
	require.NoError(t, err)
	est, err := NewLearned(a, encoding.HealthRules(), WithDomain(types.DomainHealth))
	require.NoError(t, err)

	quotes, err := EstimateBatch(context.Background(), est, []types.Record{
		{"bmi": 20}, {"bmi": 30}, {},
	}, 2)
	require.NoError(t, err)
	assert.Equal(t, "25.00", quotes[2].Amount.StringFixed(2))
	assert.Equal(t, types.DomainHealth, quotes[2].Domain)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	est, err := FromConfig(cfg, VehicleStrategy{})
	require.NoError(t, err)
	assert.IsType(t, &RuleBased{}, est)

	modelPath, featurePath := writeArtifact(t, &model.Mean{Features: 11, Value: 123.456}, homeManifest())
	cfg.Pricing.Strategy = types.StrategyModel
	cfg.Model.Path = modelPath
	cfg.Model.FeaturesPath = featurePath
	est, err = FromConfig(cfg, nil)
	require.NoError(t, err)
	q, err := est.Estimate(types.Record{"Bedrooms": 4})
	require.NoError(t, err)
	assert.Equal(t, "123.46", q.Amount.StringFixed(2))
	assert.Equal(t, types.DomainHome, q.Domain)

	require.NoError(t, os.Remove(modelPath))
	_, err = FromConfig(cfg, nil)
	assert.True(t, errors.IsType(err, errors.TypeModelFileNotFound))
}

func TestFromConfigAddsHomeFeaturesForRiskIndexManifest(t *testing.T) {
	manifest := schema.Manifest{"property_value", "num_past_claims", "risk_index"}
	modelPath, featurePath := writeArtifact(t,
		&model.Linear{Coefficients: []float64{0, 0, 1000}}, manifest)

	cfg := config.Default()
	cfg.Pricing.Strategy = types.StrategyModel
	cfg.Model.Path = modelPath
	cfg.Model.FeaturesPath = featurePath

	est, err := LearnedFromConfig(cfg)
	require.NoError(t, err)

	rec := types.Record{"property_age": 10, "property_value": 250000, "num_past_claims": 1}
	index, err := HomeStrategy{}.RiskIndex(rec)
	require.NoError(t, err)

	vec, err := est.Features(rec)
	require.NoError(t, err)
	assert.InDelta(t, index, vec.Values[2], 1e-12)
}
