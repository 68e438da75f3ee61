package encoding

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"premium-estimator/internal/errors"
)

// ruleFile is the HCL layout of a rule file:
//
//	column "region" {
//	  kind    = "category"
//	  values  = { northeast = 0, northwest = 1 }
//	  default = 0
//	}
type ruleFile struct {
	Columns []columnBlock `hcl:"column,block"`
}

type columnBlock struct {
	Name    string         `hcl:"name,label"`
	Kind    string         `hcl:"kind"`
	Values  hcl.Expression `hcl:"values,optional"`
	Default *float64       `hcl:"default,optional"`
}

// LoadRules reads a rule set from an HCL file
func LoadRules(path string) (RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read encoding rules %s", path)
	}
	return ParseRules(src, path)
}

// ParseRules parses HCL rule source. filename is used in diagnostics.
func ParseRules(src []byte, filename string) (RuleSet, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing("invalid encoding rules", diags)
	}

	var rf ruleFile
	if diags := gohcl.DecodeBody(file.Body, nil, &rf); diags.HasErrors() {
		return nil, errors.Parsing("invalid encoding rules", diags)
	}

	rules := make([]Rule, 0, len(rf.Columns))
	for _, block := range rf.Columns {
		rule, err := block.rule()
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("column %q", block.Name), err)
		}
		rules = append(rules, rule)
	}

	rs, err := NewRuleSet(rules...)
	if err != nil {
		return nil, errors.Parsing("invalid encoding rules", err)
	}
	return rs, nil
}

func (b columnBlock) rule() (Rule, error) {
	values, err := mappingFromExpr(b.Values)
	if err != nil {
		return Rule{}, err
	}

	var rule Rule
	switch Kind(b.Kind) {
	case KindYesNo:
		rule = YesNo(b.Name)
	case KindSex:
		rule = Sex(b.Name)
	case KindNumeric:
		rule = Numeric(b.Name)
	case KindCategory:
		rule = Category(b.Name, values, 0)
	default:
		return Rule{}, fmt.Errorf("unknown kind %q", b.Kind)
	}

	// explicit values replace a preset mapping
	if len(values) > 0 && rule.Kind != KindCategory {
		rule.Mapping = Category(b.Name, values, 0).Mapping
	}
	if b.Default != nil {
		rule.Default = *b.Default
	}
	return rule, rule.Validate()
}

func mappingFromExpr(expr hcl.Expression) (map[string]float64, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("values must be known")
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("values must be a map, got %s", ty.FriendlyName())
	}

	out := make(map[string]float64, val.LengthInt())
	iter := val.ElementIterator()
	for iter.Next() {
		k, v := iter.Element()
		if v.IsNull() || v.Type() != cty.Number {
			return nil, fmt.Errorf("value for %q must be a number", k.AsString())
		}
		f, _ := v.AsBigFloat().Float64()
		out[k.AsString()] = f
	}
	return out, nil
}
