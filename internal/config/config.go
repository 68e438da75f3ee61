// Package config provides configuration management.
package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// DefaultBaseCost is the base annual premium before risk adjustment
const DefaultBaseCost = 493.74225

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`

	// Model locates the learned-model artifact
	Model ModelConfig `json:"model" yaml:"model"`

	// Storage selects the quote journal backend
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// BaseCost is the base cost multiplied by the risk index
	BaseCost float64 `json:"base_cost" yaml:"base_cost"`

	// Currency is the quote currency
	Currency types.Currency `json:"currency" yaml:"currency"`

	// Strategy selects the estimator: rule or model
	Strategy types.Strategy `json:"strategy" yaml:"strategy"`

	// RiskWeight scales the home risk index fed to learned models
	RiskWeight float64 `json:"risk_weight" yaml:"risk_weight"`
}

// ModelConfig locates the persisted artifact
type ModelConfig struct {
	// Path is the serialized regression model
	Path string `json:"path" yaml:"path"`

	// FeaturesPath is the ordered feature manifest
	FeaturesPath string `json:"features_path" yaml:"features_path"`

	// RulesPath is an optional HCL file of categorical encoding rules
	RulesPath string `json:"rules_path,omitempty" yaml:"rules_path,omitempty"`

	// Domain selects the built-in rule preset when RulesPath is empty
	Domain types.Domain `json:"domain" yaml:"domain"`
}

// StorageConfig contains quote journal settings
type StorageConfig struct {
	// Backend is memory, file or sqlite
	Backend string `json:"backend" yaml:"backend"`

	// Path is the directory (file) or database file (sqlite)
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// Workers bounds batch prediction parallelism
	Workers int `json:"workers" yaml:"workers"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".premium-estimator")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			BaseCost:   DefaultBaseCost,
			Currency:   types.CurrencyUSD,
			Strategy:   types.StrategyRule,
			RiskWeight: 1.0,
		},
		Model: ModelConfig{
			Path:         filepath.Join("models", "home_model.json"),
			FeaturesPath: filepath.Join("models", "home_features.json"),
			Domain:       types.DomainHome,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    filepath.Join(dataDir, "quotes.db"),
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Workers: 4,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the settings that would otherwise fail deep in a request
func (c *Config) Validate() error {
	if c.Pricing.BaseCost <= 0 || math.IsNaN(c.Pricing.BaseCost) || math.IsInf(c.Pricing.BaseCost, 0) {
		return errors.InvalidInput("pricing.base_cost", "base cost must be positive")
	}
	switch c.Pricing.Strategy {
	case types.StrategyRule, types.StrategyModel:
	default:
		return errors.Config("unknown pricing strategy: " + string(c.Pricing.Strategy))
	}
	if c.Pricing.RiskWeight < 0 {
		return errors.InvalidInput("pricing.risk_weight", "risk weight cannot be negative")
	}
	if !c.Model.Domain.IsValid() {
		return errors.InvalidInput("model.domain", "unknown domain: "+c.Model.Domain.String())
	}
	switch c.Storage.Backend {
	case "memory", "file", "sqlite":
	default:
		return errors.Config("unknown storage backend: " + c.Storage.Backend)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads configuration from a JSON or YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Parsing("failed to parse config "+path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
