// Package artifact loads and saves the persisted model bundle: a fitted
// regression model paired with its ordered feature manifest.
//
// Both files are checked for existence before either is deserialized, and
// each missing file is reported as its own error type. A loaded Artifact is
// never reloaded or mutated, so one instance can be shared across goroutines.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"premium-estimator/core/model"
	"premium-estimator/core/schema"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// Artifact is a fitted model paired with its feature manifest
type Artifact struct {
	model    model.Regressor
	manifest schema.Manifest

	// ModelPath is the file the model was read from
	ModelPath string

	// FeaturePath is the file the manifest was read from
	FeaturePath string

	// Checksum is the SHA-256 of the model file
	Checksum string

	// LoadedAt is when the artifact was loaded
	LoadedAt time.Time
}

// New pairs an in-memory model with a manifest
func New(m model.Regressor, manifest schema.Manifest) (*Artifact, error) {
	if m == nil {
		return nil, errors.InvalidInput("model", "is required")
	}
	if err := manifest.Validate(); err != nil {
		return nil, errors.InvalidInput("manifest", err.Error())
	}
	if len(manifest) != m.NumFeatures() {
		return nil, errors.SchemaMismatch(len(manifest), m.NumFeatures())
	}
	return &Artifact{
		model:    m,
		manifest: append(schema.Manifest(nil), manifest...),
		LoadedAt: time.Now().UTC(),
	}, nil
}

// Model returns the regression model
func (a *Artifact) Model() model.Regressor {
	return a.model
}

// Manifest returns a copy of the feature manifest
func (a *Artifact) Manifest() schema.Manifest {
	return append(schema.Manifest(nil), a.manifest...)
}

// Width is the number of features the model expects
func (a *Artifact) Width() int {
	return len(a.manifest)
}

// Load verifies both files exist, then decodes the model and manifest
func Load(modelPath, featurePath string) (*Artifact, error) {
	log := logging.Named("artifact")

	if _, err := os.Stat(modelPath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ModelFileNotFound(modelPath)
		}
		return nil, errors.Wrapf(errors.TypeInternal, err, "cannot stat model file %s", modelPath)
	}
	if _, err := os.Stat(featurePath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FeatureFileNotFound(featurePath)
		}
		return nil, errors.Wrapf(errors.TypeInternal, err, "cannot stat feature file %s", featurePath)
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInternal, err, "failed to read model file %s", modelPath)
	}
	m, err := model.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Parsing("failed to decode model "+modelPath, err)
	}

	manifest, err := schema.LoadManifest(featurePath)
	if err != nil {
		return nil, err
	}

	a, err := New(m, manifest)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	a.Checksum = hex.EncodeToString(sum[:])
	a.ModelPath = modelPath
	a.FeaturePath = featurePath

	log.Info("model artifact loaded",
		zap.String("model", modelPath),
		zap.String("kind", m.Kind()),
		zap.Int("features", len(manifest)),
		zap.String("sha256", a.Checksum))
	return a, nil
}

// Save writes <name>_model.json and <name>_features.json under dir and
// returns their paths
func Save(dir, name string, m model.Regressor, manifest schema.Manifest) (string, string, error) {
	if _, err := New(m, manifest); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	modelPath := filepath.Join(dir, name+"_model.json")
	featurePath := filepath.Join(dir, name+"_features.json")

	var buf bytes.Buffer
	if err := model.Encode(&buf, m); err != nil {
		return "", "", errors.Internal("failed to encode model", err)
	}
	if err := os.WriteFile(modelPath, buf.Bytes(), 0644); err != nil {
		return "", "", err
	}
	if err := schema.SaveManifest(featurePath, manifest); err != nil {
		return "", "", err
	}
	return modelPath, featurePath, nil
}
