package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// envelope is the persisted form: {"kind": "...", "params": {...}}
type envelope struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// Encode writes a model in its JSON envelope
func Encode(w io.Writer, r Regressor) error {
	params, err := json.Marshal(r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Kind: r.Kind(), Params: params})
}

// Decode reads a model from its JSON envelope
func Decode(rd io.Reader) (Regressor, error) {
	var env envelope
	if err := json.NewDecoder(rd).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode model envelope: %w", err)
	}
	if len(env.Params) == 0 {
		return nil, fmt.Errorf("model %q has no params", env.Kind)
	}

	switch env.Kind {
	case "mean":
		var m Mean
		if err := json.Unmarshal(env.Params, &m); err != nil {
			return nil, fmt.Errorf("decode mean model: %w", err)
		}
		if m.Features <= 0 {
			return nil, fmt.Errorf("mean model has no features")
		}
		return &m, nil
	case "linear":
		var l Linear
		if err := json.Unmarshal(env.Params, &l); err != nil {
			return nil, fmt.Errorf("decode linear model: %w", err)
		}
		if len(l.Coefficients) == 0 {
			return nil, fmt.Errorf("linear model has no coefficients")
		}
		return &l, nil
	case "forest":
		var f Forest
		if err := json.Unmarshal(env.Params, &f); err != nil {
			return nil, fmt.Errorf("decode forest model: %w", err)
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}
}
