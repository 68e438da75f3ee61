package model

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stump splits on feature 1 at 0.5
func stumpForest() *Forest {
	return &Forest{
		Features: 2,
		Trees: []Tree{
			{Nodes: []Node{
				{Feature: 1, Threshold: 0.5, Left: 1, Right: 2},
				{Feature: -1, Value: 100},
				{Feature: -1, Value: 300},
			}},
			{Nodes: []Node{{Feature: -1, Value: 200}}},
		},
		Importances: []float64{0.25, 0.75},
	}
}

func TestMeanPredict(t *testing.T) {
	m := &Mean{Features: 3, Value: 123.456}
	y, err := m.Predict([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 123.456, y)

	_, err = m.Predict([]float64{0})
	assert.Error(t, err)
}

func TestLinearPredict(t *testing.T) {
	l := &Linear{Intercept: 10, Coefficients: []float64{2, -1}}
	y, err := l.Predict([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 12.0, y)
	assert.Equal(t, 2, l.NumFeatures())
}

func TestForestPredictAveragesTrees(t *testing.T) {
	f := stumpForest()
	require.NoError(t, f.Validate())

	y, err := f.Predict([]float64{9, 0.2})
	require.NoError(t, err)
	assert.Equal(t, 150.0, y)

	y, err = f.Predict([]float64{9, 0.9})
	require.NoError(t, err)
	assert.Equal(t, 250.0, y)

	imp := f.FeatureImportances()
	imp[0] = 99
	assert.Equal(t, 0.25, f.Importances[0], "importances are returned as a copy")
}

func TestForestValidateRejectsBadTrees(t *testing.T) {
	cyclic := stumpForest()
	cyclic.Trees[0].Nodes[0].Left = 0
	assert.Error(t, cyclic.Validate())

	wide := stumpForest()
	wide.Trees[0].Nodes[0].Feature = 5
	assert.Error(t, wide.Validate())

	short := stumpForest()
	short.Importances = []float64{1}
	assert.Error(t, short.Validate())
}

func TestCodecRoundTrip(t *testing.T) {
	models := []Regressor{
		&Mean{Features: 11, Value: 123.456},
		&Linear{Intercept: 1.5, Coefficients: []float64{0.1, 0.2, 0.3}},
		stumpForest(),
	}
	for _, m := range models {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m))

		decoded, err := Decode(&buf)
		require.NoError(t, err, m.Kind())
		assert.Equal(t, m, decoded)
	}
}

func TestDecodeErrors(t *testing.T) {
	bad := []string{
		`not json`,
		`{"kind":"linear"}`,
		`{"kind":"svm","params":{}}`,
		`{"kind":"linear","params":{"coefficients":[]}}`,
		`{"kind":"mean","params":{"value":1}}`,
		`{"kind":"forest","params":{"features":1,"trees":[],"importances":[1]}}`,
	}
	for _, src := range bad {
		_, err := Decode(strings.NewReader(src))
		assert.Error(t, err, src)
	}
}

func TestOnlyForestExposesImportances(t *testing.T) {
	var r Regressor = &Linear{Coefficients: []float64{1}}
	_, ok := r.(Importancer)
	assert.False(t, ok)

	r = stumpForest()
	_, ok = r.(Importancer)
	assert.True(t, ok)
}
