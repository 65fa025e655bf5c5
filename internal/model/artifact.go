package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mikey/phishing-url-filter/internal/features"
)

// ErrArtifactLoad is returned when a model artifact is missing or lacks one
// of its three mandatory parts: learned parameters, feature schema, or
// decision threshold. Loading fails loudly rather than limping along.
var ErrArtifactLoad = errors.New("model artifact load failed")

// Kind identifies how an artifact's parameters are interpreted.
type Kind string

const (
	KindLinear Kind = "linear"
	KindForest Kind = "forest"
)

// Artifact is an immutable trained classifier bound to exactly one feature
// schema. Loaded once at startup and shared read-only across requests;
// nothing here is mutated by inference.
type Artifact struct {
	Version      string   `json:"version"`
	Kind         Kind     `json:"kind"`
	FeatureNames []string `json:"feature_names"`
	Threshold    float64  `json:"threshold"`

	// Baseline and Scale hold the training population mean and standard
	// deviation per feature. The linear model standardizes with them when
	// Linear.Standardize is set; the explainability ranker uses them to
	// normalize observed deviations.
	Baseline []float64 `json:"baseline"`
	Scale    []float64 `json:"scale"`

	Linear *LinearModel `json:"linear,omitempty"`
	Forest *ForestModel `json:"forest,omitempty"`
}

// Load reads and validates an artifact from a JSON file.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactLoad, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactLoad, err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the artifact as indented JSON.
func (a *Artifact) Save(path string) error {
	if err := a.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (a *Artifact) validate() error {
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("%w: artifact declares no feature schema", ErrArtifactLoad)
	}
	if a.Threshold <= 0 || a.Threshold >= 1 {
		return fmt.Errorf("%w: artifact threshold %v outside (0,1)", ErrArtifactLoad, a.Threshold)
	}
	n := len(a.FeatureNames)
	switch a.Kind {
	case KindLinear:
		if a.Linear == nil || len(a.Linear.Weights) != n {
			return fmt.Errorf("%w: linear artifact has no coefficient table for %d features", ErrArtifactLoad, n)
		}
	case KindForest:
		if a.Forest == nil || len(a.Forest.Trees) == 0 {
			return fmt.Errorf("%w: forest artifact has no trees", ErrArtifactLoad)
		}
		if len(a.Forest.Importances) != n {
			return fmt.Errorf("%w: forest artifact has no importance table for %d features", ErrArtifactLoad, n)
		}
	default:
		return fmt.Errorf("%w: unknown artifact kind %q", ErrArtifactLoad, a.Kind)
	}
	if len(a.Baseline) != n || len(a.Scale) != n {
		return fmt.Errorf("%w: artifact baseline/scale tables do not cover %d features", ErrArtifactLoad, n)
	}
	return nil
}

// CheckSchema verifies the artifact was trained on exactly the active
// feature schema, name for name and in order. Any skew is a hard error.
func (a *Artifact) CheckSchema(names []string) error {
	if len(a.FeatureNames) != len(names) {
		return fmt.Errorf("%w: artifact trained on %d features, schema has %d",
			features.ErrSchemaMismatch, len(a.FeatureNames), len(names))
	}
	for i, n := range names {
		if a.FeatureNames[i] != n {
			return fmt.Errorf("%w: feature %d is %q in artifact, %q in schema",
				features.ErrSchemaMismatch, i, a.FeatureNames[i], n)
		}
	}
	return nil
}

// Predict returns the phishing probability for v.
func (a *Artifact) Predict(v features.Vector) (float64, error) {
	if len(v) != len(a.FeatureNames) {
		return 0, fmt.Errorf("%w: vector length %d, artifact expects %d",
			features.ErrSchemaMismatch, len(v), len(a.FeatureNames))
	}
	switch a.Kind {
	case KindLinear:
		return a.Linear.predict(v, a.Baseline, a.Scale), nil
	case KindForest:
		return a.Forest.predict(v), nil
	default:
		return 0, fmt.Errorf("%w: unknown artifact kind %q", ErrArtifactLoad, a.Kind)
	}
}
