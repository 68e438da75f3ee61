package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premium-estimator/adapters/storage"
	"premium-estimator/core/artifact"
	"premium-estimator/core/encoding"
	"premium-estimator/core/estimator"
	"premium-estimator/core/model"
	"premium-estimator/core/schema"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
)

func newTestServer(t *testing.T, learned *estimator.Learned) (*Server, storage.Store) {
	t.Helper()
	vehicle, err := estimator.NewRuleBased(config.DefaultBaseCost, estimator.VehicleStrategy{})
	require.NoError(t, err)
	home, err := estimator.NewRuleBased(config.DefaultBaseCost, estimator.HomeStrategy{})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	opts := []Option{
		WithRuleEstimator(types.DomainVehicle, vehicle),
		WithRuleEstimator(types.DomainHome, home),
		WithStore(store),
		WithWorkers(2),
	}
	if learned != nil {
		opts = append(opts, WithLearned(learned))
	}
	return NewServer("test", opts...), store
}

func learnedFrom(t *testing.T, m model.Regressor, manifest schema.Manifest) *estimator.Learned {
	t.Helper()
	a, err := artifact.New(m, manifest)
	require.NoError(t, err)
	l, err := estimator.NewLearned(a, encoding.HomeRules(), estimator.WithDomain(types.DomainHome))
	require.NoError(t, err)
	return l
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

const vehicleBody = `{"age":35,"annual_km":15000,"car_age":5,"exp_years":10,"num_accidents":1,"vehicle_type":"suv"}`

func TestQuoteVehicle(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/quote/vehicle", vehicleBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "442.22", resp.Quote.Amount.StringFixed(2))
	assert.Equal(t, types.StrategyRule, resp.Quote.Strategy)

	stored, err := store.Get(t.Context(), resp.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "442.22", stored.Amount.StringFixed(2))
}

func TestQuoteVehicleRejectsNonStringType(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := strings.Replace(vehicleBody, `"suv"`, `42`, 1)
	rec := do(t, s, http.MethodPost, "/quote/vehicle", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	detail := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", detail.Code)
	assert.Equal(t, "vehicle_type", detail.Field)
}

func TestQuoteRejectsMalformedJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/quote/home", `{"property_age":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PARSING_ERROR", decodeError(t, rec).Code)
}

func TestOversizedBodyRejected(t *testing.T) {
	s, store := newTestServer(t, learnedFrom(t, &model.Mean{Features: 1, Value: 100}, schema.Manifest{"Bedrooms"}))

	record := `{"Bedrooms":3},`
	batch := `{"records":[` + strings.Repeat(record, MaxBodyBytes/len(record)+1) + `{"Bedrooms":3}]}`
	rec := do(t, s, http.MethodPost, "/predict", batch)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", detail.Code)
	assert.Equal(t, "body", detail.Field)

	padded := strings.Replace(vehicleBody, `{`, `{"note":"`+strings.Repeat("x", MaxBodyBytes)+`",`, 1)
	rec = do(t, s, http.MethodPost, "/quote/vehicle", padded)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "body", decodeError(t, rec).Field)

	quotes, err := store.List(t.Context(), &storage.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuoteHome(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := `{"property_age":30,"construction_material":"brick","renovation_year":2015,
		"has_security_system":true,"num_floors":2,"flood_zone_level":0.5}`
	rec := do(t, s, http.MethodPost, "/quote/home", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.DomainHome, resp.Quote.Domain)
	require.NotNil(t, resp.Quote.RiskIndex)
}

func TestPredictWithoutModel(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/predict", `{}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeModelNotLoaded, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/explain", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPredictSingleAndBatch(t *testing.T) {
	manifest := schema.Manifest{"Bedrooms", "Alarm_Present"}
	s, _ := newTestServer(t, learnedFrom(t, &model.Linear{Intercept: 100, Coefficients: []float64{10, -5}}, manifest))

	rec := do(t, s, http.MethodPost, "/predict", `{"Bedrooms":3,"Alarm_Present":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var single QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, "125.00", single.Quote.Amount.StringFixed(2))
	assert.Equal(t, types.StrategyModel, single.Quote.Strategy)

	rec = do(t, s, http.MethodPost, "/predict", `{"records":[{"Bedrooms":2},{"Bedrooms":4},{}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var batch BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Quotes, 3)
	assert.Equal(t, "120.00", batch.Quotes[0].Amount.StringFixed(2))
	assert.Equal(t, "140.00", batch.Quotes[1].Amount.StringFixed(2))
	// missing Bedrooms takes the batch median of 3
	assert.Equal(t, "130.00", batch.Quotes[2].Amount.StringFixed(2))

	rec = do(t, s, http.MethodPost, "/predict", `{"records":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExplain(t *testing.T) {
	mean := learnedFrom(t, &model.Mean{Features: 1, Value: 123.456}, schema.Manifest{"Bedrooms"})
	s, _ := newTestServer(t, mean)

	rec := do(t, s, http.MethodGet, "/explain", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INTERPRETATION_UNAVAILABLE", decodeError(t, rec).Code)

	forest := &model.Forest{
		Features:    2,
		Trees:       []model.Tree{{Nodes: []model.Node{{Feature: -1, Value: 1}}}},
		Importances: []float64{0.9, 0.1},
	}
	s, _ = newTestServer(t, learnedFrom(t, forest, schema.Manifest{"Bedrooms", "YearBuilt"}))
	rec = do(t, s, http.MethodGet, "/explain", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ExplainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "forest", resp.ModelKind)
	require.Len(t, resp.Contributions, 2)
	assert.Equal(t, "Bedrooms", resp.Contributions[0].Feature)
}

func TestQuoteJournalEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/quote/vehicle", vehicleBody).Code)
	}

	rec := do(t, s, http.MethodGet, "/quotes?domain=vehicle&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list QuoteListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	rec = do(t, s, http.MethodGet, "/quotes/"+list.Quotes[0].ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/quotes/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/quotes?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthVersionMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/quote/vehicle", vehicleBody).Code)

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, false, health["model_loaded"])

	rec = do(t, s, http.MethodGet, "/version", "")
	assert.Contains(t, rec.Body.String(), `"version":"test"`)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "premium_api_quotes_issued_total")
	assert.Contains(t, rec.Body.String(), "premium_api_request_duration_seconds")
}
