package estimator

import (
	"sort"

	"premium-estimator/core/artifact"
	"premium-estimator/core/model"
	"premium-estimator/internal/errors"
)

// Contribution is one feature's share of a model's importance
type Contribution struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Interpret maps each manifest column to the model's importance for it.
// Models without importances return an INTERPRETATION_UNAVAILABLE error.
func Interpret(a *artifact.Artifact) (map[string]float64, error) {
	if a == nil {
		return nil, errors.InvalidInput("artifact", "is required")
	}
	imp, ok := a.Model().(model.Importancer)
	if !ok {
		return nil, errors.InterpretationUnavailable(a.Model().Kind())
	}
	values := imp.FeatureImportances()
	if values == nil {
		return nil, errors.InterpretationUnavailable(a.Model().Kind())
	}
	manifest := a.Manifest()
	if len(values) != len(manifest) {
		return nil, errors.SchemaMismatch(len(manifest), len(values))
	}

	out := make(map[string]float64, len(manifest))
	for i, name := range manifest {
		out[name] = values[i]
	}
	return out, nil
}

// Ranked orders importances from largest to smallest, ties by name
func Ranked(importances map[string]float64) []Contribution {
	out := make([]Contribution, 0, len(importances))
	for name, v := range importances {
		out = append(out, Contribution{Feature: name, Importance: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
