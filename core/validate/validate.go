// Package validate enforces preconditions on constructor and request input.
// Every failure is an INVALID_INPUT error naming the offending field.
package validate

import (
	"encoding/json"
	"math"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

// PositiveAmount requires v to be a finite number greater than zero
func PositiveAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidInput(field, "must be a finite number")
	}
	if v <= 0 {
		return errors.InvalidInput(field, "must be positive")
	}
	return nil
}

// NonNegative requires v to be zero or greater
func NonNegative(field string, v float64) error {
	if math.IsNaN(v) || v < 0 {
		return errors.InvalidInput(field, "cannot be negative")
	}
	return nil
}

// Number converts any Go numeric kind or json.Number to float64.
// Strings, booleans and nil are type errors.
func Number(field string, v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, errors.InvalidInput(field, "must be a number")
		}
		f = parsed
	default:
		return 0, errors.Newf(errors.TypeInvalidInput, "%s: must be a number, got %T", field, v).
			WithContext("field", field)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.InvalidInput(field, "must be a finite number")
	}
	return f, nil
}

// OptionalString returns ("", false, nil) for nil and the string for a string.
// Any other type is rejected.
func OptionalString(field string, v any) (string, bool, error) {
	switch s := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return s, true, nil
	default:
		return "", false, errors.Newf(errors.TypeInvalidInput, "%s: must be a string, got %T", field, v).
			WithContext("field", field)
	}
}

// OptionalBool accepts nil (false) or a bool
func OptionalBool(field string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	default:
		return false, errors.Newf(errors.TypeInvalidInput, "%s: must be a boolean, got %T", field, v).
			WithContext("field", field)
	}
}

// RequiredNumber reads a numeric field that must be present
func RequiredNumber(rec types.Record, field string) (float64, error) {
	v, ok := rec.Get(field)
	if !ok || v == nil {
		return 0, errors.InvalidInput(field, "is required")
	}
	return Number(field, v)
}

// OptionalNumber reads a numeric field, reporting whether it was set
func OptionalNumber(rec types.Record, field string) (float64, bool, error) {
	v, ok := rec.Get(field)
	if !ok || v == nil {
		return 0, false, nil
	}
	f, err := Number(field, v)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}
