package model

import (
	"math"

	"github.com/mikey/phishing-url-filter/internal/features"
)

// LinearModel is a logistic-regression classifier. When Standardize is set,
// inputs are transformed to (x-baseline)/scale before the dot product, which
// is how the trainer fits it; hand-tuned models operate on raw values.
type LinearModel struct {
	Weights     []float64 `json:"weights"`
	Bias        float64   `json:"bias"`
	Standardize bool      `json:"standardize"`
}

func (m *LinearModel) predict(v features.Vector, baseline, scale []float64) float64 {
	return sigmoid(m.Bias + dot(m.Weights, m.inputs(v, baseline, scale)))
}

// inputs returns the model-space feature values for v.
func (m *LinearModel) inputs(v features.Vector, baseline, scale []float64) []float64 {
	if !m.Standardize {
		return v
	}
	z := make([]float64, len(v))
	for i, x := range v {
		z[i] = (x - baseline[i]) / scale[i]
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
