// Package schema aligns encoded rows to the ordered feature manifest a
// trained model expects.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
)

// MissingValue fills manifest columns absent from a row
const MissingValue = 0.0

// Manifest is the ordered list of column names a model expects
type Manifest []string

// Validate rejects empty manifests, blank names and duplicates
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("feature manifest is empty")
	}
	seen := make(map[string]bool, len(m))
	for i, name := range m {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("feature manifest column %d is blank", i)
		}
		if seen[name] {
			return fmt.Errorf("feature manifest column %q is duplicated", name)
		}
		seen[name] = true
	}
	return nil
}

// Index returns the position of a column, or -1
func (m Manifest) Index(name string) int {
	for i, n := range m {
		if n == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two manifests list the same columns in the same order
func (m Manifest) Equal(other Manifest) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Vector is a numeric sequence aligned 1:1 with its manifest
type Vector struct {
	Manifest Manifest
	Values   []float64
}

// Row converts the vector back to a keyed row
func (v Vector) Row() types.Row {
	row := make(types.Row, len(v.Manifest))
	for i, name := range v.Manifest {
		row[name] = v.Values[i]
	}
	return row
}

// Align orders row by manifest. Columns unknown to the manifest are dropped;
// manifest columns missing from the row are filled with MissingValue.
func Align(row types.Row, m Manifest) Vector {
	values := make([]float64, len(m))
	for i, name := range m {
		if v, ok := row[name]; ok {
			values[i] = v
		} else {
			values[i] = MissingValue
		}
	}
	return Vector{Manifest: m, Values: values}
}

// Dropped lists, in sorted order, the row columns the manifest does not know
func Dropped(row types.Row, m Manifest) []string {
	known := make(map[string]bool, len(m))
	for _, name := range m {
		known[name] = true
	}
	var out []string
	for name := range row {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadManifest reads a manifest stored as a JSON array or a YAML list
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FeatureFileNotFound(path)
		}
		return nil, errors.Wrapf(errors.TypeInternal, err, "failed to read feature manifest %s", path)
	}
	return ParseManifest(data, isYAML(path))
}

// ParseManifest decodes manifest bytes
func ParseManifest(data []byte, asYAML bool) (Manifest, error) {
	var m Manifest
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, errors.Parsing("failed to decode feature manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Parsing("invalid feature manifest", err)
	}
	return m, nil
}

// SaveManifest writes a manifest as JSON, or YAML for .yaml/.yml paths
func SaveManifest(path string, m Manifest) error {
	if err := m.Validate(); err != nil {
		return errors.InvalidInput("manifest", err.Error())
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal([]string(m))
	} else {
		data, err = json.MarshalIndent([]string(m), "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
