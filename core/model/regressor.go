// Package model provides the fitted regression objects consumed by the
// learned-model estimator, and their JSON persistence format.
//
// Models are immutable once decoded and safe for concurrent Predict calls.
package model

import "fmt"

// Regressor produces a scalar prediction from an aligned feature vector
type Regressor interface {
	// Kind names the model family
	Kind() string

	// NumFeatures is the input width the model was fitted on
	NumFeatures() int

	// Predict returns the prediction for one feature vector
	Predict(x []float64) (float64, error)
}

// Importancer is implemented by models that expose per-feature importances
type Importancer interface {
	FeatureImportances() []float64
}

func checkWidth(r Regressor, x []float64) error {
	if len(x) != r.NumFeatures() {
		return fmt.Errorf("%s model expects %d features, got %d", r.Kind(), r.NumFeatures(), len(x))
	}
	return nil
}

// Mean always predicts the training target mean
type Mean struct {
	Features int     `json:"features"`
	Value    float64 `json:"value"`
}

// Kind implements Regressor
func (m *Mean) Kind() string { return "mean" }

// NumFeatures implements Regressor
func (m *Mean) NumFeatures() int { return m.Features }

// Predict implements Regressor
func (m *Mean) Predict(x []float64) (float64, error) {
	if err := checkWidth(m, x); err != nil {
		return 0, err
	}
	return m.Value, nil
}

// Linear is an intercept plus one coefficient per feature
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Kind implements Regressor
func (l *Linear) Kind() string { return "linear" }

// NumFeatures implements Regressor
func (l *Linear) NumFeatures() int { return len(l.Coefficients) }

// Predict implements Regressor
func (l *Linear) Predict(x []float64) (float64, error) {
	if err := checkWidth(l, x); err != nil {
		return 0, err
	}
	y := l.Intercept
	for i, c := range l.Coefficients {
		y += c * x[i]
	}
	return y, nil
}
