package encoding

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"premium-estimator/core/types"
	"premium-estimator/internal/logging"
)

// Encoder turns attribute records into numeric rows. It never fails.
type Encoder struct {
	rules RuleSet
	log   *zap.Logger
}

// NewEncoder creates an encoder for a rule set. A nil set designates no columns.
func NewEncoder(rules RuleSet) *Encoder {
	if rules == nil {
		rules = RuleSet{}
	}
	return &Encoder{rules: rules, log: logging.Named("encoding")}
}

// Rules returns the encoder's rule set
func (e *Encoder) Rules() RuleSet {
	return e.rules
}

// Encode encodes one record. Numeric medians are taken over that record alone,
// so a missing numeric value becomes 0.
func (e *Encoder) Encode(rec types.Record) types.Row {
	return e.EncodeBatch([]types.Record{rec})[0]
}

// EncodeBatch encodes records together so numeric columns can be filled with
// the median of the values present in the same batch.
func (e *Encoder) EncodeBatch(recs []types.Record) []types.Row {
	medians := e.medians(recs)

	rows := make([]types.Row, len(recs))
	for i, rec := range recs {
		row := make(types.Row, len(rec)+len(e.rules))
		for _, col := range e.rules.Columns() {
			rule := e.rules[col]
			raw, present := rec.Get(col)
			if rule.Kind == KindNumeric {
				if v, ok := toFloat(raw); present && ok {
					row[col] = v
				} else {
					row[col] = medians[col]
				}
				continue
			}
			row[col] = e.categorical(rule, raw, present)
		}

		for _, key := range rec.Keys() {
			if _, designated := e.rules[key]; designated {
				continue
			}
			v, ok := toFloat(rec[key])
			if !ok {
				e.log.Warn("undesignated non-numeric column encoded as 0",
					zap.String("column", key), zap.Any("value", rec[key]))
				v = 0
			}
			row[key] = v
		}
		rows[i] = row
	}
	return rows
}

func (e *Encoder) categorical(rule Rule, raw any, present bool) float64 {
	if !present || raw == nil {
		return rule.Default
	}
	key := normalize(categoryString(raw))
	if v, ok := rule.Mapping[key]; ok {
		return v
	}
	e.log.Warn("unmapped category replaced by default",
		zap.String("column", rule.Column),
		zap.String("value", key),
		zap.Float64("default", rule.Default))
	return rule.Default
}

func (e *Encoder) medians(recs []types.Record) map[string]float64 {
	out := make(map[string]float64)
	for col, rule := range e.rules {
		if rule.Kind != KindNumeric {
			continue
		}
		var present []float64
		for _, rec := range recs {
			if v, ok := toFloat(rec[col]); ok {
				present = append(present, v)
			}
		}
		out[col] = Median(present)
	}
	return out
}

// Median returns the median of values, or 0 for an empty slice
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func categoryString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "YES"
		}
		return "NO"
	default:
		return fmt.Sprint(v)
	}
}

// toFloat reads numbers and numeric strings. NaN and infinities count as missing.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
