// Package encoding normalizes dirty categorical and numeric fields into a
// numeric-only row.
//
// The encoder is lenient by default: every value, including unknown, missing
// or malformed categories, maps deterministically to a number. Unmapped
// categories become the rule's default and are logged at warn level, since
// they can hide upstream data-quality problems.
package encoding

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the normalization applied to a column
type Kind string

const (
	// KindYesNo maps YES/NO to 1/0
	KindYesNo Kind = "yes_no"

	// KindSex maps M/F to 1/0
	KindSex Kind = "sex"

	// KindCategory uses an explicit value mapping
	KindCategory Kind = "category"

	// KindNumeric fills missing values with the batch median
	KindNumeric Kind = "numeric"
)

// Rule describes how one column is normalized
type Rule struct {
	// Column is the record key
	Column string

	// Kind selects the normalization
	Kind Kind

	// Mapping is keyed by trimmed, upper-cased category values
	Mapping map[string]float64

	// Default is used for missing and unmapped categorical values
	Default float64
}

// YesNo returns the yes/no rule for a column
func YesNo(column string) Rule {
	return Rule{Column: column, Kind: KindYesNo, Mapping: map[string]float64{"YES": 1, "NO": 0}}
}

// Sex returns the M/F rule for a column
func Sex(column string) Rule {
	return Rule{Column: column, Kind: KindSex, Mapping: map[string]float64{"M": 1, "F": 0}}
}

// Category returns an explicit mapping rule. Keys are normalized on entry.
func Category(column string, values map[string]float64, def float64) Rule {
	mapping := make(map[string]float64, len(values))
	for k, v := range values {
		mapping[normalize(k)] = v
	}
	return Rule{Column: column, Kind: KindCategory, Mapping: mapping, Default: def}
}

// Numeric returns a median-filled numeric rule
func Numeric(column string) Rule {
	return Rule{Column: column, Kind: KindNumeric}
}

// Validate checks the rule is usable
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Column) == "" {
		return fmt.Errorf("rule has no column")
	}
	switch r.Kind {
	case KindYesNo, KindSex, KindCategory:
		if len(r.Mapping) == 0 {
			return fmt.Errorf("column %q: %s rule needs a mapping", r.Column, r.Kind)
		}
	case KindNumeric:
	default:
		return fmt.Errorf("column %q: unknown kind %q", r.Column, r.Kind)
	}
	return nil
}

// RuleSet maps column names to rules. New domains register columns here
// without touching the encoder.
type RuleSet map[string]Rule

// NewRuleSet builds a rule set from rules, rejecting invalid or duplicate ones
func NewRuleSet(rules ...Rule) (RuleSet, error) {
	rs := make(RuleSet, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := rs[r.Column]; dup {
			return nil, fmt.Errorf("column %q declared twice", r.Column)
		}
		rs[r.Column] = r
	}
	return rs, nil
}

func mustRuleSet(rules ...Rule) RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Register adds or replaces a rule
func (rs RuleSet) Register(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	rs[r.Column] = r
	return nil
}

// Columns returns the designated columns in sorted order
func (rs RuleSet) Columns() []string {
	cols := make([]string, 0, len(rs))
	for c := range rs {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// HomeRules covers the home policy columns
func HomeRules() RuleSet {
	return mustRuleSet(
		YesNo("Claim_3_Years"),
		YesNo("Owner_Employment_Status"),
		YesNo("Accidental_Damage"),
		YesNo("Alarm_Present"),
		YesNo("Locks_Present"),
		YesNo("Flooding"),
		YesNo("Safe_Installed"),
		Sex("Owner_Sex"),
		Numeric("Bedrooms"),
		Numeric("YearBuilt"),
	)
}

// HealthRules covers the health policy columns
func HealthRules() RuleSet {
	return mustRuleSet(
		Category("sex", map[string]float64{"male": 1, "female": 0}, 0),
		YesNo("smoker"),
		Category("region", map[string]float64{
			"northeast": 0,
			"northwest": 1,
			"southeast": 2,
			"southwest": 3,
		}, 0),
		Numeric("age"),
		Numeric("bmi"),
		Numeric("children"),
	)
}

// VehicleRules covers the vehicle columns fed to learned models
func VehicleRules() RuleSet {
	return mustRuleSet(
		Category("vehicle_type", map[string]float64{
			"sedan":  0,
			"suv":    1,
			"sports": 2,
			"truck":  3,
		}, 0),
		Numeric("age"),
		Numeric("annual_km"),
		Numeric("car_age"),
		Numeric("exp_years"),
		Numeric("num_accidents"),
	)
}
