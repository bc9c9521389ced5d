// Package model loads the trained classifier and label encoder artifacts.
// Both are read once at startup and are read-only afterwards, so a loaded
// Classifier is safe for concurrent PredictProba calls.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrUnknownFormat is returned for an artifact whose "format" is not
	// supported.
	ErrUnknownFormat = errors.New("model: unknown artifact format")

	// ErrInputWidth is returned by PredictProba for a vector whose length
	// differs from NumFeatures.
	ErrInputWidth = errors.New("model: input width mismatch")
)

// Classifier is a trained multi-class model.
type Classifier interface {
	// PredictProba returns one probability per class, summing to 1.
	PredictProba(x []float64) ([]float64, error)

	// NumFeatures is the input width the model was trained on.
	NumFeatures() int

	// NumClasses is the length of every PredictProba result.
	NumClasses() int
}

// Artifact is the on-disk form of a classifier. Exactly one of the model
// sections is used, picked by Format.
type Artifact struct {
	Format     string `json:"format"`
	Version    string `json:"version,omitempty"`
	NumFeature int    `json:"n_features"`
	NumClass   int    `json:"n_classes"`

	// forest
	Trees []Tree `json:"trees,omitempty"`

	// linear
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`
	Mean      []float64   `json:"mean,omitempty"`
	Scale     []float64   `json:"scale,omitempty"`
}

// Load reads a classifier artifact from path.
func Load(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding model artifact %s: %w", path, err)
	}
	c, err := a.Build()
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return c, nil
}

// Build validates the artifact and returns the classifier it describes.
func (a *Artifact) Build() (Classifier, error) {
	if a.NumFeature <= 0 {
		return nil, fmt.Errorf("n_features must be positive, got %d", a.NumFeature)
	}
	if a.NumClass < 2 {
		return nil, fmt.Errorf("n_classes must be at least 2, got %d", a.NumClass)
	}
	switch a.Format {
	case "forest":
		return NewForest(a.NumFeature, a.NumClass, a.Trees)
	case "linear":
		return NewLinear(a.NumFeature, a.NumClass, a.Coef, a.Intercept, a.Mean, a.Scale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, a.Format)
	}
}

func checkWidth(x []float64, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: got %d values, model expects %d", ErrInputWidth, len(x), want)
	}
	return nil
}
