package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"premium-estimator/core/artifact"
	"premium-estimator/core/encoding"
	"premium-estimator/core/schema"
	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// Learned prices records with a fitted regression model
type Learned struct {
	artifact *artifact.Artifact
	encoder  *encoding.Encoder
	domain   types.Domain
	currency types.Currency
	preparer Preparer
	log      *zap.Logger
}

// LearnedOption configures a Learned estimator
type LearnedOption func(*Learned)

// WithDomain tags quotes with an insurance line
func WithDomain(d types.Domain) LearnedOption {
	return func(l *Learned) { l.domain = d }
}

// WithPreparer derives extra model inputs before encoding
func WithPreparer(p Preparer) LearnedOption {
	return func(l *Learned) { l.preparer = p }
}

// WithQuoteCurrency sets the quote currency
func WithQuoteCurrency(c types.Currency) LearnedOption {
	return func(l *Learned) { l.currency = c }
}

// NewLearned wraps a loaded artifact and the rules used to encode records.
// WithDomain is required: quotes are journaled by domain.
func NewLearned(a *artifact.Artifact, rules encoding.RuleSet, opts ...LearnedOption) (*Learned, error) {
	if a == nil {
		return nil, errors.InvalidInput("artifact", "is required")
	}
	l := &Learned{
		artifact: a,
		encoder:  encoding.NewEncoder(rules),
		currency: types.CurrencyUSD,
		log:      logging.Named("estimator"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if !l.domain.IsValid() {
		return nil, errors.InvalidInput("domain", "learned estimator needs a known domain, got "+l.domain.String())
	}
	return l, nil
}

// LoadLearned loads the model and manifest eagerly. A missing or unreadable
// file fails here rather than on the first request.
func LoadLearned(modelPath, featurePath string, rules encoding.RuleSet, opts ...LearnedOption) (*Learned, error) {
	a, err := artifact.Load(modelPath, featurePath)
	if err != nil {
		return nil, err
	}
	return NewLearned(a, rules, opts...)
}

// Artifact returns the loaded model bundle
func (l *Learned) Artifact() *artifact.Artifact {
	return l.artifact
}

// Estimate implements Estimator
func (l *Learned) Estimate(rec types.Record) (*types.Quote, error) {
	prepared, err := l.prepare(rec)
	if err != nil {
		return nil, err
	}
	return l.quote(l.encoder.Encode(prepared))
}

// Features returns the aligned vector a record is priced from
func (l *Learned) Features(rec types.Record) (schema.Vector, error) {
	prepared, err := l.prepare(rec)
	if err != nil {
		return schema.Vector{}, err
	}
	return schema.Align(l.encoder.Encode(prepared), l.artifact.Manifest()), nil
}

func (l *Learned) prepare(rec types.Record) (types.Record, error) {
	if l.preparer == nil {
		return rec, nil
	}
	return l.preparer.Prepare(rec)
}

// quote aligns an encoded row, predicts and rounds. Negative predictions
// are clamped to zero.
func (l *Learned) quote(row types.Row) (*types.Quote, error) {
	manifest := l.artifact.Manifest()
	if dropped := schema.Dropped(row, manifest); len(dropped) > 0 {
		l.log.Debug("columns outside manifest dropped", zap.Strings("columns", dropped))
	}
	vec := schema.Align(row, manifest)

	m := l.artifact.Model()
	raw, err := m.Predict(vec.Values)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "prediction failed", err)
	}
	if raw < 0 {
		l.log.Debug("negative prediction clamped to zero", zap.Float64("prediction", raw))
		raw = 0
	}

	formula := fmt.Sprintf("%s model over %d features", m.Kind(), len(manifest))
	q, err := types.NewQuote(l.domain, types.StrategyModel, decimal.NewFromFloat(raw), formula)
	if err != nil {
		return nil, err
	}
	q.Currency = l.currency
	return q, nil
}
