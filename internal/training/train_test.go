package training

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/model"
)

// writeToyDataset produces a cleanly separable corpus: keyword-stuffed http
// URLs labeled phishing, quiet https URLs labeled legitimate.
func writeToyDataset(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toy.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "url,label")
	for i := 0; i < n; i++ {
		fmt.Fprintf(f, "http://verify-login-secure%d.tk/account/update,1\n", i)
		fmt.Fprintf(f, "https://journal%d.example.org/articles/today,0\n", i)
	}
	return path
}

func loadToy(t *testing.T, n int) *Dataset {
	t.Helper()
	ds, err := LoadCSV(writeToyDataset(t, n), zap.NewNop())
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	return ds
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	ds := loadToy(t, 10)
	if len(ds.Examples) != 20 {
		t.Fatalf("loaded %d examples, want 20", len(ds.Examples))
	}
	for _, ex := range ds.Examples {
		if len(ex.Vector) != features.Len() {
			t.Fatalf("example vector length %d, want %d", len(ex.Vector), features.Len())
		}
		if ex.Label != 0 && ex.Label != 1 {
			t.Fatalf("unexpected label %d", ex.Label)
		}
	}
}

func TestLoadCSVSkipsBadRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "messy.csv")
	content := "url,label\n" +
		"https://good.example.com/,0\n" +
		",1\n" +
		"https://also-good.example.com/,notanumber\n" +
		"http://fine.example.net/login,1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	ds, err := LoadCSV(path, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	if len(ds.Examples) != 2 {
		t.Fatalf("loaded %d examples, want 2", len(ds.Examples))
	}
	if ds.SkippedRows != 2 {
		t.Fatalf("skipped %d rows, want 2", ds.SkippedRows)
	}
}

func TestLoadCSVRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("address,tag\nx,1\n"), 0644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if _, err := LoadCSV(path, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing url/label columns")
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	t.Parallel()

	ds := loadToy(t, 25)
	train1, test1 := ds.Split(0.2, 7)
	train2, test2 := ds.Split(0.2, 7)
	if len(train1) != len(train2) || len(test1) != len(test2) {
		t.Fatal("same seed produced different split sizes")
	}
	for i := range test1 {
		if test1[i].URL != test2[i].URL {
			t.Fatalf("same seed produced different test sets at %d", i)
		}
	}
	if len(train1)+len(test1) != len(ds.Examples) {
		t.Fatal("split lost examples")
	}
}

func TestTrainLogisticSeparatesToyData(t *testing.T) {
	t.Parallel()

	ds := loadToy(t, 30)
	train, test := ds.Split(0.2, 42)

	art := TrainLogistic(train, DefaultLogisticOptions(), zap.NewNop())
	if err := art.CheckSchema(features.Names()); err != nil {
		t.Fatalf("trained artifact fails schema check: %v", err)
	}
	if art.Kind != model.KindLinear {
		t.Fatalf("kind = %s, want linear", art.Kind)
	}

	m, err := EvaluateArtifact(art, test)
	if err != nil {
		t.Fatalf("EvaluateArtifact returned error: %v", err)
	}
	if m.Accuracy < 0.9 {
		t.Fatalf("baseline accuracy %v on separable data, want >= 0.9", m.Accuracy)
	}
}

func TestTrainForestSeparatesToyData(t *testing.T) {
	t.Parallel()

	ds := loadToy(t, 30)
	train, test := ds.Split(0.2, 42)

	opts := ForestOptions{Trees: 25, MaxDepth: 4, MinLeaf: 1, Seed: 42}
	art := TrainForest(train, opts, zap.NewNop())
	if err := art.CheckSchema(features.Names()); err != nil {
		t.Fatalf("trained artifact fails schema check: %v", err)
	}

	m, err := TuneThreshold(art, test, zap.NewNop())
	if err != nil {
		t.Fatalf("TuneThreshold returned error: %v", err)
	}
	if m.Recall < 0.9 {
		t.Fatalf("forest recall %v on separable data, want >= 0.9", m.Recall)
	}
	if art.Threshold <= 0 || art.Threshold >= 1 {
		t.Fatalf("tuned threshold %v outside (0,1)", art.Threshold)
	}

	// Importances must be normalized and cover only schema features.
	sum := 0.0
	for _, imp := range art.Forest.Importances {
		if imp < 0 {
			t.Fatalf("negative importance %v", imp)
		}
		sum += imp
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("importances sum to %v, want 1", sum)
	}
}

func TestTrainForestDeterministic(t *testing.T) {
	t.Parallel()

	ds := loadToy(t, 20)
	train, _ := ds.Split(0.2, 42)
	opts := ForestOptions{Trees: 10, MaxDepth: 4, MinLeaf: 1, Seed: 99}

	a := TrainForest(train, opts, zap.NewNop())
	b := TrainForest(train, opts, zap.NewNop())
	for _, ex := range train {
		pa, err := a.Predict(ex.Vector)
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		pb, err := b.Predict(ex.Vector)
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		if pa != pb {
			t.Fatalf("same seed produced different predictions: %v vs %v", pa, pb)
		}
	}
}

func TestEvaluateMetrics(t *testing.T) {
	t.Parallel()

	yTrue := []int{1, 1, 1, 1, 0, 0, 0, 0}
	yPred := []int{1, 1, 1, 0, 0, 0, 1, 0}
	m := Evaluate(yTrue, yPred)

	if m.TruePositives != 3 || m.FalseNegatives != 1 || m.FalsePositives != 1 || m.TrueNegatives != 3 {
		t.Fatalf("confusion matrix wrong: %+v", m)
	}
	if m.Accuracy != 0.75 {
		t.Fatalf("accuracy = %v, want 0.75", m.Accuracy)
	}
	if m.Recall != 0.75 {
		t.Fatalf("recall = %v, want 0.75", m.Recall)
	}
	if m.Precision != 0.75 {
		t.Fatalf("precision = %v, want 0.75", m.Precision)
	}
	if got := m.RecallWeightedScore(); got != 0.75 {
		t.Fatalf("recall-weighted score = %v, want 0.75", got)
	}
}
