package model

import (
	"math"
	"sort"

	"github.com/mikey/phishing-url-filter/internal/features"
)

// DefaultTopK is how many contributing features are reported by default.
const DefaultTopK = 5

// ContributingFeature reports how much one feature moved the decision for a
// specific input, with the raw value for human interpretation.
type ContributingFeature struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// TopContributors ranks per-feature contributions for v against the
// deciding artifact and returns the k largest by absolute contribution.
//
// The contribution rules are fixed once:
//   - linear: coefficient[i] * model-space value of feature i, which is
//     additive and exactly inverts the logit;
//   - forest: importance[i] * (v[i]-baseline[i])/scale[i], the
//     importance-weighted normalized deviation from the training population.
//
// Ties break by schema order, so the ranking is bit-identical across runs.
func (e *Ensemble) TopContributors(v features.Vector, k int) ([]ContributingFeature, error) {
	act := e.active()
	if len(v) != len(act.FeatureNames) {
		return nil, features.ErrSchemaMismatch
	}
	if k <= 0 {
		k = DefaultTopK
	}

	contribs := make([]ContributingFeature, len(v))
	switch act.Kind {
	case KindLinear:
		inputs := act.Linear.inputs(v, act.Baseline, act.Scale)
		for i := range v {
			contribs[i] = ContributingFeature{
				Name:         act.FeatureNames[i],
				Value:        v[i],
				Contribution: act.Linear.Weights[i] * inputs[i],
			}
		}
	case KindForest:
		for i := range v {
			dev := (v[i] - act.Baseline[i]) / act.Scale[i]
			contribs[i] = ContributingFeature{
				Name:         act.FeatureNames[i],
				Value:        v[i],
				Contribution: act.Forest.Importances[i] * dev,
			}
		}
	}

	// Stable sort preserves schema order between equal magnitudes.
	sort.SliceStable(contribs, func(a, b int) bool {
		return math.Abs(contribs[a].Contribution) > math.Abs(contribs[b].Contribution)
	})

	if k > len(contribs) {
		k = len(contribs)
	}
	return contribs[:k], nil
}
