package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseCost, cfg.Pricing.BaseCost)
	assert.Equal(t, types.StrategyRule, cfg.Pricing.Strategy)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premium.yaml")
	body := `
pricing:
  base_cost: 600
  strategy: model
model:
  path: /srv/model.json
  features_path: /srv/features.yaml
  domain: health
storage:
  backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 600.0, cfg.Pricing.BaseCost)
	assert.Equal(t, types.StrategyModel, cfg.Pricing.Strategy)
	assert.Equal(t, types.DomainHealth, cfg.Model.Domain)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1.0, cfg.Pricing.RiskWeight)
}

func TestLoadRejectsNonPositiveBaseCost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premium.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pricing":{"base_cost":0,"strategy":"rule"}}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premium.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pricing":`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cfg.json", "cfg.yml"} {
		cfg := Default()
		cfg.Pricing.BaseCost = 750
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.Save(path))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, 750.0, loaded.Pricing.BaseCost, name)
	}
}

func TestValidateUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Pricing.Strategy = "oracle"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestValidateModelDomain(t *testing.T) {
	for _, d := range []types.Domain{"", "marine"} {
		cfg := Default()
		cfg.Model.Domain = d
		err := cfg.Validate()
		require.Error(t, err, "domain=%q", d)
		assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
	}
}
