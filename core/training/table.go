// Package training fits the regression models the learned estimator loads.
//
// A training run reads a labelled CSV, encodes it with the same categorical
// rules used at prediction time, fits a model and writes the model and its
// feature manifest side by side.
package training

import (
	"encoding/csv"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"

	"premium-estimator/core/encoding"
	"premium-estimator/core/schema"
	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

// Table is an encoded design matrix with its target column
type Table struct {
	Manifest schema.Manifest
	X        [][]float64
	Y        []float64
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Y)
}

// Width returns the number of features
func (t *Table) Width() int {
	return len(t.Manifest)
}

// Subset returns the rows at idx
func (t *Table) Subset(idx []int) *Table {
	out := &Table{
		Manifest: t.Manifest,
		X:        make([][]float64, len(idx)),
		Y:        make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = t.X[j]
		out.Y[i] = t.Y[j]
	}
	return out
}

// Split shuffles rows with seed and holds out the given fraction for testing
func (t *Table) Split(holdout float64, seed uint64) (train, test *Table) {
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	n := int(float64(len(idx)) * holdout)
	if holdout > 0 && n == 0 && len(idx) > 1 {
		n = 1
	}
	return t.Subset(idx[n:]), t.Subset(idx[:n])
}

// ReadCSV loads a labelled CSV file. See ParseCSV.
func ReadCSV(path, target string, rules encoding.RuleSet, drop ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.TypeNotFound, "training data not found: %s", path).
				WithContext("path", path)
		}
		return nil, errors.Wrapf(errors.TypeInternal, err, "failed to open %s", path)
	}
	defer f.Close()
	return ParseCSV(f, target, rules, drop...)
}

// ParseCSV reads a header row and data rows, encodes them as one batch and
// returns the table. Columns follow header order; the target and any
// dropped columns are excluded from the manifest.
func ParseCSV(r io.Reader, target string, rules encoding.RuleSet, drop ...string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Parsing("failed to read CSV header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	targetIdx := slices.Index(header, target)
	if targetIdx < 0 {
		return nil, errors.InvalidInput("target", "column "+target+" not in header")
	}

	var manifest schema.Manifest
	for i, name := range header {
		if i == targetIdx || slices.Contains(drop, name) {
			continue
		}
		manifest = append(manifest, name)
	}
	if err := manifest.Validate(); err != nil {
		return nil, errors.InvalidInput("header", err.Error())
	}

	var (
		records []types.Record
		ys      []float64
	)
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Parsing("failed to read CSV row", err)
		}

		y, err := strconv.ParseFloat(strings.TrimSpace(fields[targetIdx]), 64)
		if err != nil {
			return nil, errors.Parsing("invalid target on line "+strconv.Itoa(line), err)
		}

		rec := make(types.Record, len(manifest))
		for i, name := range header {
			if i == targetIdx {
				continue
			}
			v := strings.TrimSpace(fields[i])
			if v == "" {
				continue
			}
			rec[name] = v
		}
		records = append(records, rec)
		ys = append(ys, y)
	}
	if len(records) == 0 {
		return nil, errors.InvalidInput("data", "no rows")
	}

	rows := encoding.NewEncoder(rules).EncodeBatch(records)
	table := &Table{Manifest: manifest, X: make([][]float64, len(rows)), Y: ys}
	for i, row := range rows {
		table.X[i] = schema.Align(row, manifest).Values
	}
	return table, nil
}
