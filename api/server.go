// Package api - Thin HTTP layer over the estimators
// The API is ONLY responsible for: input ingestion, estimator dispatch, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"premium-estimator/adapters/storage"
	"premium-estimator/core/estimator"
	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// CodeModelNotLoaded is returned by model endpoints when no artifact is loaded
const CodeModelNotLoaded = "MODEL_NOT_LOADED"

// MaxBodyBytes bounds quote and predict request bodies, batches included
const MaxBodyBytes = 1 << 20

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	version string
	rules   map[types.Domain]estimator.Estimator
	learned *estimator.Learned
	store   storage.Store
	workers int
	log     *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithRuleEstimator serves POST /quote/{domain} with est
func WithRuleEstimator(domain types.Domain, est estimator.Estimator) Option {
	return func(s *Server) { s.rules[domain] = est }
}

// WithLearned serves POST /predict and GET /explain with l
func WithLearned(l *estimator.Learned) Option {
	return func(s *Server) { s.learned = l }
}

// WithStore journals issued quotes in store
func WithStore(store storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithWorkers bounds batch prediction parallelism
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

// NewServer creates a new API server. Without a store, quotes are journaled in memory.
func NewServer(version string, opts ...Option) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		version: version,
		rules:   make(map[types.Domain]estimator.Estimator),
		workers: estimator.DefaultWorkers,
		log:     logging.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = storage.NewMemoryStore()
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /quote/vehicle", s.instrument("quote_vehicle", s.handleQuote(types.DomainVehicle)))
	s.mux.HandleFunc("POST /quote/home", s.instrument("quote_home", s.handleQuote(types.DomainHome)))
	s.mux.HandleFunc("POST /predict", s.instrument("predict", s.handlePredict))
	s.mux.HandleFunc("GET /explain", s.instrument("explain", s.handleExplain))

	// Journal
	s.mux.HandleFunc("GET /quotes", s.instrument("list_quotes", s.handleListQuotes))
	s.mux.HandleFunc("GET /quotes/{id}", s.instrument("get_quote", s.handleGetQuote))

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

type routeHandler func(w http.ResponseWriter, r *http.Request) error

// instrument times a handler and writes its error, if any, as the envelope
func (s *Server) instrument(route string, h routeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := h(w, r); err != nil {
			s.writeError(w, route, err)
		}
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// handleQuote handles POST /quote/{domain}
func (s *Server) handleQuote(domain types.Domain) routeHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		start := time.Now()
		est, ok := s.rules[domain]
		if !ok {
			return errors.Newf(errors.TypeNotFound, "no estimator configured for %s", domain)
		}

		rec, err := decodeRecord(w, r)
		if err != nil {
			return err
		}
		q, err := est.Estimate(rec)
		if err != nil {
			return err
		}
		s.journal(r.Context(), q, rec)

		s.writeJSON(w, &QuoteResponse{
			RequestID:  generateRequestID(),
			Quote:      q,
			DurationMs: time.Since(start).Milliseconds(),
		}, http.StatusOK)
		return nil
	}
}

// handlePredict handles POST /predict. The body is either one record or
// {"records": [...]}.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) error {
	start := time.Now()
	if s.learned == nil {
		return errModelNotLoaded
	}

	body, err := decodeRecord(w, r)
	if err != nil {
		return err
	}

	if raw, ok := body["records"]; ok && len(body) == 1 {
		recs, err := toRecords(raw)
		if err != nil {
			return err
		}
		quotes, err := estimator.EstimateBatch(r.Context(), s.learned, recs, s.workers)
		if err != nil {
			return err
		}
		for i, q := range quotes {
			s.journal(r.Context(), q, recs[i])
		}
		s.writeJSON(w, &BatchResponse{
			RequestID:  generateRequestID(),
			Quotes:     quotes,
			DurationMs: time.Since(start).Milliseconds(),
		}, http.StatusOK)
		return nil
	}

	q, err := s.learned.Estimate(body)
	if err != nil {
		return err
	}
	s.journal(r.Context(), q, body)
	s.writeJSON(w, &QuoteResponse{
		RequestID:  generateRequestID(),
		Quote:      q,
		DurationMs: time.Since(start).Milliseconds(),
	}, http.StatusOK)
	return nil
}

// handleExplain handles GET /explain
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) error {
	if s.learned == nil {
		return errModelNotLoaded
	}
	a := s.learned.Artifact()
	importances, err := estimator.Interpret(a)
	if err != nil {
		return err
	}
	s.writeJSON(w, &ExplainResponse{
		ModelKind:     a.Model().Kind(),
		Checksum:      a.Checksum,
		Contributions: estimator.Ranked(importances),
	}, http.StatusOK)
	return nil
}

// handleListQuotes handles GET /quotes
func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := &storage.ListFilter{
		Domain:   types.Domain(q.Get("domain")),
		Strategy: types.Strategy(q.Get("strategy")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return errors.InvalidInput("limit", err.Error())
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		return errors.InvalidInput("offset", err.Error())
	}

	quotes, err := s.store.List(r.Context(), filter)
	if err != nil {
		return err
	}
	if quotes == nil {
		quotes = []*storage.StoredQuote{}
	}
	s.writeJSON(w, &QuoteListResponse{Quotes: quotes, Count: len(quotes)}, http.StatusOK)
	return nil
}

// handleGetQuote handles GET /quotes/{id}
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) error {
	quote, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	s.writeJSON(w, quote, http.StatusOK)
	return nil
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	domains := make([]string, 0, len(s.rules))
	for _, d := range []types.Domain{types.DomainVehicle, types.DomainHome} {
		if _, ok := s.rules[d]; ok {
			domains = append(domains, d.String())
		}
	}
	s.writeJSON(w, map[string]any{
		"status":       "healthy",
		"version":      s.version,
		"rule_domains": domains,
		"model_loaded": s.learned != nil,
		"time":         time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "premium-estimator",
		"api_version": "v1",
	}, http.StatusOK)
}

// journal records an issued quote. Journal failures are logged, not returned.
func (s *Server) journal(ctx context.Context, q *types.Quote, rec types.Record) {
	quotesIssued.WithLabelValues(q.Domain.String(), string(q.Strategy)).Inc()
	if err := s.store.Save(ctx, storage.FromQuote(q, rec)); err != nil {
		s.log.Warn("failed to journal quote", zap.String("id", q.ID), zap.Error(err))
	}
}

var errModelNotLoaded = stderrors.New("no model artifact is loaded")

// statusFor maps an error to its HTTP status and envelope code
func statusFor(err error) (int, string) {
	if stderrors.Is(err, errModelNotLoaded) {
		return http.StatusServiceUnavailable, CodeModelNotLoaded
	}
	switch t := errors.TypeOf(err); t {
	case errors.TypeInvalidInput, errors.TypeParsing:
		return http.StatusBadRequest, string(t)
	case errors.TypeNotFound:
		return http.StatusNotFound, string(t)
	case errors.TypeInterpretationUnavailable:
		return http.StatusConflict, string(t)
	case errors.TypeModelFileNotFound, errors.TypeFeatureFileNotFound:
		return http.StatusServiceUnavailable, string(t)
	default:
		return http.StatusInternalServerError, string(errors.TypeInternal)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, route string, err error) {
	status, code := statusFor(err)
	requestErrors.WithLabelValues(route, code).Inc()

	detail := ErrorDetail{Code: code, Message: err.Error()}
	var de *errors.Error
	if stderrors.As(err, &de) {
		detail.Field = de.Field()
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("route", route), zap.Error(err))
	}
	s.writeJSON(w, &ErrorResponse{Error: detail}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server as an http.Handler
func (s *Server) Handler() http.Handler {
	return s
}

// Helper functions

// decodeRecord reads a JSON object of at most MaxBodyBytes, keeping numbers
// as json.Number
func decodeRecord(w http.ResponseWriter, r *http.Request) (types.Record, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, MaxBodyBytes)); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.InvalidInput("body", fmt.Sprintf("exceeds %d bytes", MaxBodyBytes))
		}
		return nil, errors.Parsing("failed to read request body", err)
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()

	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Parsing("invalid JSON body", err)
	}
	if rec == nil {
		return nil, errors.InvalidInput("body", "must be a JSON object")
	}
	return rec, nil
}

func toRecords(raw any) ([]types.Record, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.InvalidInput("records", "must be an array of objects")
	}
	recs := make([]types.Record, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.InvalidInput("records", fmt.Sprintf("item %d is not an object", i))
		}
		recs[i] = types.Record(obj)
	}
	return recs, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return n, nil
}

func generateRequestID() string {
	return fmt.Sprintf("qt-%d", time.Now().UnixNano())
}
