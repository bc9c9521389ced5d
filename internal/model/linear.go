package model

import (
	"fmt"
	"math"
)

// Linear is a multinomial logistic regression: softmax(coef·z + intercept)
// where z is x standardized with Mean and Scale when those are present.
type Linear struct {
	nFeatures int
	coef      [][]float64
	intercept []float64
	mean      []float64
	scale     []float64
}

// NewLinear validates the parameter shapes. mean and scale are optional but
// must come together.
func NewLinear(nFeatures, nClasses int, coef [][]float64, intercept, mean, scale []float64) (*Linear, error) {
	if len(coef) != nClasses {
		return nil, fmt.Errorf("coef has %d rows, want %d", len(coef), nClasses)
	}
	for i, row := range coef {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("coef row %d has %d columns, want %d", i, len(row), nFeatures)
		}
	}
	if len(intercept) != nClasses {
		return nil, fmt.Errorf("intercept has %d values, want %d", len(intercept), nClasses)
	}
	if (mean == nil) != (scale == nil) {
		return nil, fmt.Errorf("mean and scale must be given together")
	}
	if mean != nil {
		if len(mean) != nFeatures || len(scale) != nFeatures {
			return nil, fmt.Errorf("mean/scale must have %d values", nFeatures)
		}
		for i, s := range scale {
			if s == 0 {
				return nil, fmt.Errorf("scale[%d] is zero", i)
			}
		}
	}
	return &Linear{
		nFeatures: nFeatures,
		coef:      coef,
		intercept: intercept,
		mean:      mean,
		scale:     scale,
	}, nil
}

func (l *Linear) PredictProba(x []float64) ([]float64, error) {
	if err := checkWidth(x, l.nFeatures); err != nil {
		return nil, err
	}
	logits := make([]float64, len(l.coef))
	maxLogit := math.Inf(-1)
	for c, row := range l.coef {
		z := l.intercept[c]
		for i, w := range row {
			xi := x[i]
			if l.mean != nil {
				xi = (xi - l.mean[i]) / l.scale[i]
			}
			z += w * xi
		}
		logits[c] = z
		maxLogit = math.Max(maxLogit, z)
	}

	sum := 0.0
	for c, z := range logits {
		logits[c] = math.Exp(z - maxLogit)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits, nil
}

func (l *Linear) NumFeatures() int { return l.nFeatures }
func (l *Linear) NumClasses() int  { return len(l.coef) }
