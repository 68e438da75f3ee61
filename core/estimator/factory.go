package estimator

import (
	"premium-estimator/core/encoding"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
	"premium-estimator/internal/errors"
)

// RulesFor returns the built-in categorical rule preset of a domain
func RulesFor(d types.Domain) encoding.RuleSet {
	switch d {
	case types.DomainHome:
		return encoding.HomeRules()
	case types.DomainHealth:
		return encoding.HealthRules()
	case types.DomainVehicle:
		return encoding.VehicleRules()
	default:
		return encoding.RuleSet{}
	}
}

// FromConfig builds the estimator selected by cfg.Pricing.Strategy. The
// rule strategy prices with strategy; the model strategy loads the artifact
// named in cfg.Model and ignores strategy.
func FromConfig(cfg *config.Config, strategy RiskStrategy) (Estimator, error) {
	if cfg == nil {
		return nil, errors.Config("configuration is required")
	}

	switch cfg.Pricing.Strategy {
	case types.StrategyRule:
		r, err := NewRuleBased(cfg.Pricing.BaseCost, strategy)
		if err != nil {
			return nil, err
		}
		if cfg.Pricing.Currency != "" {
			r.WithCurrency(cfg.Pricing.Currency)
		}
		return r, nil

	case types.StrategyModel:
		return LearnedFromConfig(cfg)

	default:
		return nil, errors.Config("unknown pricing strategy: " + string(cfg.Pricing.Strategy))
	}
}

// LearnedFromConfig loads the learned estimator described by cfg.Model
func LearnedFromConfig(cfg *config.Config) (*Learned, error) {
	rules := RulesFor(cfg.Model.Domain)
	if cfg.Model.RulesPath != "" {
		loaded, err := encoding.LoadRules(cfg.Model.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	l, err := LoadLearned(cfg.Model.Path, cfg.Model.FeaturesPath, rules, WithDomain(cfg.Model.Domain))
	if err != nil {
		return nil, err
	}
	if cfg.Pricing.Currency != "" {
		l.currency = cfg.Pricing.Currency
	}
	if cfg.Model.Domain == types.DomainHome && l.artifact.Manifest().Index(FieldRiskIndex) >= 0 {
		l.preparer = HomeFeatures{RiskWeight: cfg.Pricing.RiskWeight}
	}
	return l, nil
}
