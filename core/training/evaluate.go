package training

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"premium-estimator/core/model"
	"premium-estimator/internal/errors"
)

// Metrics summarizes a model's fit on a table
type Metrics struct {
	Rows int     `json:"rows"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Evaluate scores m against t. R2 is 0 when the target is constant.
func Evaluate(m model.Regressor, t *Table) (Metrics, error) {
	if err := checkTable(t); err != nil {
		return Metrics{}, err
	}
	preds := make([]float64, t.Len())
	for i, x := range t.X {
		p, err := m.Predict(x)
		if err != nil {
			return Metrics{}, errors.Wrap(errors.TypeSchemaMismatch, "model does not fit table", err)
		}
		preds[i] = p
	}

	var sse, sae float64
	for i, y := range t.Y {
		d := preds[i] - y
		sse += d * d
		sae += math.Abs(d)
	}
	n := float64(t.Len())
	metrics := Metrics{Rows: t.Len(), RMSE: math.Sqrt(sse / n), MAE: sae / n}

	mean := stat.Mean(t.Y, nil)
	var sst float64
	for _, y := range t.Y {
		sst += (y - mean) * (y - mean)
	}
	if sst > 0 {
		metrics.R2 = 1 - sse/sst
	}
	return metrics, nil
}
