package training

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"premium-estimator/core/model"
	"premium-estimator/internal/errors"
)

// ridge is added to the normal equations when QR cannot solve the system
const ridge = 1e-6

func checkTable(t *Table) error {
	if t == nil || t.Len() == 0 {
		return errors.InvalidInput("data", "no rows to fit")
	}
	return nil
}

// FitMean fits the constant model that predicts the target mean
func FitMean(t *Table) (*model.Mean, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	return &model.Mean{Features: t.Width(), Value: stat.Mean(t.Y, nil)}, nil
}

// FitLinear fits ordinary least squares with an intercept. Rank-deficient
// designs fall back to a lightly regularized solve.
func FitLinear(t *Table) (*model.Linear, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	n, p := t.Len(), t.Width()+1

	x := mat.NewDense(n, p, nil)
	for i, row := range t.X {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewDense(n, 1, append([]float64(nil), t.Y...))

	var beta mat.Dense
	solved := false
	if n >= p {
		var qr mat.QR
		qr.Factorize(x)
		solved = qr.SolveTo(&beta, false, y) == nil
	}
	if !solved {
		var xtx, xty mat.Dense
		xtx.Mul(x.T(), x)
		for i := 0; i < p; i++ {
			xtx.Set(i, i, xtx.At(i, i)+ridge)
		}
		xty.Mul(x.T(), y)
		if err := beta.Solve(&xtx, &xty); err != nil {
			return nil, errors.Wrap(errors.TypeInternal, "least squares solve failed", err)
		}
	}

	coef := make([]float64, t.Width())
	for j := range coef {
		coef[j] = beta.At(j+1, 0)
	}
	return &model.Linear{Intercept: beta.At(0, 0), Coefficients: coef}, nil
}
