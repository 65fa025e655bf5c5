package model

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/features"
)

func TestNewEnsembleRequiresOneArtifact(t *testing.T) {
	t.Parallel()

	if _, err := NewEnsemble(nil, nil, zap.NewNop()); !errors.Is(err, ErrArtifactLoad) {
		t.Fatalf("expected ErrArtifactLoad with no artifacts, got %v", err)
	}
}

func TestEnsembleDegradedSingleModel(t *testing.T) {
	t.Parallel()

	e, err := NewEnsemble(nil, BuiltinLinear(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEnsemble returned error: %v", err)
	}

	pred, err := e.Predict(make(features.Vector, features.Len()))
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if pred.ModelUsed != string(KindLinear) {
		t.Fatalf("ModelUsed = %s, want linear", pred.ModelUsed)
	}
	if pred.HasBaseline {
		t.Fatal("single-model mode must not report a baseline cross-check")
	}
}

func TestEnsemblePrimaryDecides(t *testing.T) {
	t.Parallel()

	e, err := NewEnsemble(BuiltinForest(), BuiltinLinear(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEnsemble returned error: %v", err)
	}

	pred, err := e.Predict(make(features.Vector, features.Len()))
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if pred.ModelUsed != string(KindForest) {
		t.Fatalf("ModelUsed = %s, want forest", pred.ModelUsed)
	}
	if !pred.HasBaseline {
		t.Fatal("expected a baseline cross-check probability")
	}
	if pred.Probability < 0 || pred.Probability > 1 {
		t.Fatalf("probability %v outside [0,1]", pred.Probability)
	}
	if pred.Baseline < 0 || pred.Baseline > 1 {
		t.Fatalf("baseline probability %v outside [0,1]", pred.Baseline)
	}
}

func TestEnsembleRejectsSchemaSkew(t *testing.T) {
	t.Parallel()

	stale := BuiltinForest()
	stale.FeatureNames = stale.FeatureNames[:len(stale.FeatureNames)-1]
	if _, err := NewEnsemble(stale, nil, zap.NewNop()); !errors.Is(err, features.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRiskScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		p    float64
		want int
	}{
		{0, 0},
		{0.004, 0},
		{0.005, 1}, // round half away from zero
		{0.5, 50},
		{0.606, 61},
		{0.994, 99},
		{1, 100},
		{-0.3, 0},  // clamped
		{1.7, 100}, // clamped
	}
	for _, tc := range cases {
		if got := RiskScore(tc.p); got != tc.want {
			t.Fatalf("RiskScore(%v) = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestRiskScoreMonotonic(t *testing.T) {
	t.Parallel()

	prev := -1
	for p := 0.0; p <= 1.0; p += 0.01 {
		s := RiskScore(p)
		if s < prev {
			t.Fatalf("RiskScore not monotonic at p=%v: %d < %d", p, s, prev)
		}
		prev = s
	}
}

func TestLabelUsesThreshold(t *testing.T) {
	t.Parallel()

	if got := Label(0.45, 0.45); got != LabelPhishing {
		t.Fatalf("Label at threshold = %s, want Phishing", got)
	}
	if got := Label(0.4499, 0.45); got != LabelLegitimate {
		t.Fatalf("Label below threshold = %s, want Legitimate", got)
	}
}
