package training

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// Example is one labeled URL with its feature vector. Label is 1 for
// phishing, 0 for legitimate.
type Example struct {
	URL    string
	Vector features.Vector
	Label  int
}

// Dataset is the in-memory training set built from a labeled CSV.
type Dataset struct {
	Examples []Example
	// SkippedRows counts rows dropped for invalid URLs or labels.
	SkippedRows int
}

// LoadCSV reads a labeled URL dataset. The header must contain a url column
// and a label column (label, result or class, matched case-insensitively).
// Labels 1 mean phishing; 0 and -1 mean legitimate. Feature vectors are
// built offline: lexical features plus the local host-pattern check, with
// sentinels for every lookup feature, so training needs no network access.
func LoadCSV(path string, logger *zap.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	urlCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url":
			urlCol = i
		case "label", "result", "class":
			labelCol = i
		}
	}
	if urlCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("dataset header must contain url and label columns, got %v", header)
	}

	ds := &Dataset{}
	cont := features.ContentResult{Skipped: true}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset row %d: %w", line, err)
		}
		if urlCol >= len(row) || labelCol >= len(row) {
			ds.SkippedRows++
			continue
		}

		label, err := strconv.Atoi(strings.TrimSpace(row[labelCol]))
		if err != nil || (label != 0 && label != 1 && label != -1) {
			logger.Debug("Skipping row with unparseable label",
				zap.Int("line", line), zap.String("label", row[labelCol]))
			ds.SkippedRows++
			continue
		}
		if label == -1 {
			label = 0
		}

		u, err := urlcheck.Validate(row[urlCol])
		if err != nil {
			logger.Debug("Skipping row with invalid URL",
				zap.Int("line", line), zap.Error(err))
			ds.SkippedRows++
			continue
		}

		vec, err := features.Aggregate(
			features.ExtractLexical(u),
			features.OfflineDomainFeatures(u.Host),
			cont,
		)
		if err != nil {
			return nil, err
		}
		ds.Examples = append(ds.Examples, Example{URL: u.Full, Vector: vec, Label: label})
	}

	if len(ds.Examples) == 0 {
		return nil, fmt.Errorf("dataset %s contains no usable rows", path)
	}
	logger.Info("Loaded dataset",
		zap.String("path", path),
		zap.Int("examples", len(ds.Examples)),
		zap.Int("skipped_rows", ds.SkippedRows))
	return ds, nil
}

// Split shuffles the dataset with the given seed and carves off testSize
// (a fraction in (0,1)) as the held-out set.
func (d *Dataset) Split(testSize float64, seed int64) (train, test []Example) {
	shuffled := make([]Example, len(d.Examples))
	copy(shuffled, d.Examples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := int(float64(len(shuffled)) * testSize)
	if n < 1 {
		n = 1
	}
	if n >= len(shuffled) {
		n = len(shuffled) - 1
	}
	return shuffled[n:], shuffled[:n]
}
