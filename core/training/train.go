package training

import (
	"context"
	"time"

	"go.uber.org/zap"

	"premium-estimator/core/artifact"
	"premium-estimator/core/encoding"
	"premium-estimator/core/model"
	"premium-estimator/core/schema"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// Model kinds Train can fit
const (
	KindMean   = "mean"
	KindLinear = "linear"
	KindForest = "forest"
)

// Options describes one training run
type Options struct {
	DataPath string
	Target   string
	Drop     []string
	Kind     string
	Holdout  float64
	Seed     uint64
	Forest   ForestParams
	Rules    encoding.RuleSet
	OutDir   string
	Name     string
}

// Report is the outcome of a training run
type Report struct {
	Kind        string          `json:"kind"`
	Manifest    schema.Manifest `json:"manifest"`
	Train       Metrics         `json:"train"`
	Test        *Metrics        `json:"test,omitempty"`
	ModelPath   string          `json:"model_path"`
	FeaturePath string          `json:"feature_path"`
	Duration    time.Duration   `json:"duration"`
}

// Fit fits the named model kind on t
func Fit(ctx context.Context, kind string, t *Table, params ForestParams) (model.Regressor, error) {
	switch kind {
	case KindMean:
		return FitMean(t)
	case KindLinear, "":
		return FitLinear(t)
	case KindForest:
		return FitForest(ctx, t, params)
	default:
		return nil, errors.InvalidInput("kind", "unknown model kind "+kind)
	}
}

// Train reads, fits, evaluates and saves a model artifact
func Train(ctx context.Context, opts Options) (*Report, error) {
	log := logging.Named("training")
	start := time.Now()

	if opts.Holdout < 0 || opts.Holdout >= 1 {
		return nil, errors.InvalidInput("holdout", "must be in [0,1)")
	}
	if opts.Name == "" {
		opts.Name = "model"
	}
	if opts.OutDir == "" {
		opts.OutDir = "models"
	}
	if opts.Forest.Seed == 0 {
		opts.Forest.Seed = opts.Seed
	}

	table, err := ReadCSV(opts.DataPath, opts.Target, opts.Rules, opts.Drop...)
	if err != nil {
		return nil, err
	}
	train, test := table, (*Table)(nil)
	if opts.Holdout > 0 {
		train, test = table.Split(opts.Holdout, opts.Seed)
	}
	log.Info("training data loaded",
		zap.String("path", opts.DataPath),
		zap.Int("rows", table.Len()),
		zap.Int("features", table.Width()),
		zap.Int("holdout", test.lenOrZero()))

	m, err := Fit(ctx, opts.Kind, train, opts.Forest)
	if err != nil {
		return nil, err
	}

	report := &Report{Kind: m.Kind(), Manifest: table.Manifest}
	if report.Train, err = Evaluate(m, train); err != nil {
		return nil, err
	}
	if test.lenOrZero() > 0 {
		metrics, err := Evaluate(m, test)
		if err != nil {
			return nil, err
		}
		report.Test = &metrics
	}

	report.ModelPath, report.FeaturePath, err = artifact.Save(opts.OutDir, opts.Name, m, table.Manifest)
	if err != nil {
		return nil, err
	}
	report.Duration = time.Since(start)

	log.Info("model trained",
		zap.String("kind", report.Kind),
		zap.Float64("train_rmse", report.Train.RMSE),
		zap.String("model_path", report.ModelPath),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (t *Table) lenOrZero() int {
	if t == nil {
		return 0
	}
	return t.Len()
}
