package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

var homeManifest = Manifest{"property_value", "num_past_claims", "risk_index"}

func TestAlignOrdersDropsAndFills(t *testing.T) {
	row := types.Row{"risk_index": 0.3, "property_value": 550000, "colour": 4}

	v := Align(row, homeManifest)

	assert.Equal(t, []float64{550000, 0, 0.3}, v.Values)
	assert.Len(t, v.Values, len(homeManifest))
	assert.Equal(t, []string{"colour"}, Dropped(row, homeManifest))
}

func TestAlignIsIdempotent(t *testing.T) {
	rows := []types.Row{
		{},
		{"risk_index": 0.3},
		{"property_value": 1, "num_past_claims": 2, "risk_index": 3, "extra": 4},
	}
	for _, row := range rows {
		once := Align(row, homeManifest)
		twice := Align(once.Row(), homeManifest)
		assert.Equal(t, once, twice)
	}
}

func TestAlignMissingEqualsExplicitZero(t *testing.T) {
	partial := Align(types.Row{"property_value": 10}, homeManifest)
	explicit := Align(types.Row{"property_value": 10, "num_past_claims": 0, "risk_index": 0}, homeManifest)
	assert.Equal(t, explicit.Values, partial.Values)
}

func TestManifestValidate(t *testing.T) {
	assert.NoError(t, homeManifest.Validate())
	assert.Error(t, Manifest{}.Validate())
	assert.Error(t, Manifest{"a", " "}.Validate())
	assert.Error(t, Manifest{"a", "b", "a"}.Validate())

	assert.Equal(t, 1, homeManifest.Index("num_past_claims"))
	assert.Equal(t, -1, homeManifest.Index("nope"))
	assert.True(t, homeManifest.Equal(Manifest{"property_value", "num_past_claims", "risk_index"}))
	assert.False(t, homeManifest.Equal(Manifest{"risk_index", "num_past_claims", "property_value"}))
}

func TestManifestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"features.json", "features.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveManifest(path, homeManifest))

		loaded, err := LoadManifest(path)
		require.NoError(t, err, name)
		assert.Equal(t, homeManifest, loaded, name)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadManifest(filepath.Join(dir, "absent.json"))
	assert.True(t, errors.IsType(err, errors.TypeFeatureFileNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"a list"}`), 0644))
	_, err = LoadManifest(bad)
	assert.True(t, errors.IsType(err, errors.TypeParsing))

	dup := filepath.Join(dir, "dup.yml")
	require.NoError(t, os.WriteFile(dup, []byte("- a\n- a\n"), 0644))
	_, err = LoadManifest(dup)
	assert.True(t, errors.IsType(err, errors.TypeParsing))

	assert.Error(t, SaveManifest(filepath.Join(dir, "empty.json"), Manifest{}))
}
