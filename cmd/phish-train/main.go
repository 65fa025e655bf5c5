package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/phishing-url-filter/internal/logging"
	"github.com/mikey/phishing-url-filter/internal/model"
	"github.com/mikey/phishing-url-filter/internal/training"
	"go.uber.org/zap"
)

var (
	dataPath = flag.String("data", "", "Labeled CSV dataset (url,label columns)")
	outDir   = flag.String("out", "models", "Output directory for trained artifacts")
	testSize = flag.Float64("test-size", 0.2, "Held-out fraction for evaluation")
	seed     = flag.Int64("seed", 42, "Random seed for shuffling and tree growing")

	trees    = flag.Int("trees", 100, "Number of trees in the random forest")
	maxDepth = flag.Int("max-depth", 8, "Maximum tree depth")
	minLeaf  = flag.Int("min-leaf", 2, "Minimum samples per leaf")

	epochs       = flag.Int("epochs", 300, "Gradient descent epochs for the logistic baseline")
	learningRate = flag.Float64("learning-rate", 0.1, "Gradient descent learning rate")

	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *dataPath == "" {
		fmt.Println("Usage: phish-train -data <dataset.csv> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ds, err := training.LoadCSV(*dataPath, logger)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}
	train, test := ds.Split(*testSize, *seed)
	logger.Info("Split dataset",
		zap.Int("train", len(train)),
		zap.Int("test", len(test)))

	// Baseline first; it doubles as a sanity check on the features.
	logOpts := training.DefaultLogisticOptions()
	logOpts.Epochs = *epochs
	logOpts.LearningRate = *learningRate
	baseline := training.TrainLogistic(train, logOpts, logger)
	baselineMetrics, err := training.EvaluateArtifact(baseline, test)
	if err != nil {
		logger.Fatal("Failed to evaluate baseline", zap.Error(err))
	}

	forestOpts := training.ForestOptions{
		Trees:    *trees,
		MaxDepth: *maxDepth,
		MinLeaf:  *minLeaf,
		Seed:     *seed,
	}
	primary := training.TrainForest(train, forestOpts, logger)
	primaryMetrics, err := training.TuneThreshold(primary, test, logger)
	if err != nil {
		logger.Fatal("Failed to tune threshold", zap.Error(err))
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}
	primaryPath := filepath.Join(*outDir, "primary.json")
	baselinePath := filepath.Join(*outDir, "baseline.json")
	if err := primary.Save(primaryPath); err != nil {
		logger.Fatal("Failed to save primary artifact", zap.Error(err))
	}
	if err := baseline.Save(baselinePath); err != nil {
		logger.Fatal("Failed to save baseline artifact", zap.Error(err))
	}

	fmt.Printf("\n=== Results ===\n")
	printMetrics("Logistic baseline", baseline, baselineMetrics)
	printMetrics("Random forest", primary, primaryMetrics)
	fmt.Printf("\nArtifacts written to %s and %s\n", primaryPath, baselinePath)
}

func printMetrics(name string, a *model.Artifact, m training.Metrics) {
	fmt.Printf("\n%s (threshold %.2f):\n", name, a.Threshold)
	fmt.Printf("  Accuracy:  %.4f\n", m.Accuracy)
	fmt.Printf("  Precision: %.4f\n", m.Precision)
	fmt.Printf("  Recall:    %.4f\n", m.Recall)
	fmt.Printf("  F1:        %.4f\n", m.F1)
	fmt.Printf("  Score:     %.4f\n", m.RecallWeightedScore())
}
