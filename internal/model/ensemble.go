package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/features"
)

// Ensemble holds the primary tree model and the linear baseline, both bound
// to the same feature schema. The primary's probability is authoritative;
// the baseline's is retained as a cross-check and takes over only when no
// primary artifact is loaded.
type Ensemble struct {
	primary  *Artifact
	baseline *Artifact
	logger   *zap.Logger
}

// Prediction is the ensemble output for one vector.
type Prediction struct {
	// Probability is the authoritative phishing probability.
	Probability float64
	// Baseline is the cross-check probability from the secondary model.
	// Present only when both artifacts are loaded.
	Baseline    float64
	HasBaseline bool
	// ModelUsed names the artifact that produced Probability.
	ModelUsed string
}

// NewEnsemble validates both artifacts against the active schema. Either may
// be nil; with a single artifact the ensemble runs in degraded single-model
// mode. Both nil is an error.
func NewEnsemble(primary, baseline *Artifact, logger *zap.Logger) (*Ensemble, error) {
	if primary == nil && baseline == nil {
		return nil, fmt.Errorf("%w: no artifacts supplied", ErrArtifactLoad)
	}
	names := features.Names()
	for _, a := range []*Artifact{primary, baseline} {
		if a == nil {
			continue
		}
		if err := a.CheckSchema(names); err != nil {
			return nil, err
		}
	}
	if primary == nil {
		logger.Warn("Primary model unavailable, running in degraded single-model mode",
			zap.String("model", string(baseline.Kind)))
	}
	return &Ensemble{primary: primary, baseline: baseline, logger: logger}, nil
}

// active returns the artifact whose probability and threshold govern the
// decision.
func (e *Ensemble) active() *Artifact {
	if e.primary != nil {
		return e.primary
	}
	return e.baseline
}

// Threshold returns the decision threshold bound to the deciding artifact.
// It was fixed at training time and is never recomputed at inference.
func (e *Ensemble) Threshold() float64 {
	return e.active().Threshold
}

// Predict scores v with every loaded artifact.
func (e *Ensemble) Predict(v features.Vector) (Prediction, error) {
	act := e.active()
	p, err := act.Predict(v)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Probability: p, ModelUsed: string(act.Kind)}

	if e.primary != nil && e.baseline != nil {
		bp, err := e.baseline.Predict(v)
		if err != nil {
			return Prediction{}, err
		}
		pred.Baseline = bp
		pred.HasBaseline = true
	}
	return pred, nil
}
