package factory

import (
	"fmt"

	"github.com/mikey/phishing-url-filter/internal/config"
	"github.com/mikey/phishing-url-filter/internal/model"
	"go.uber.org/zap"
)

// ModelFactory loads model artifacts and assembles the scoring ensemble
type ModelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config, logger *zap.Logger) *ModelFactory {
	return &ModelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEnsemble builds the ensemble from the configured artifact paths.
// An empty path selects the corresponding built-in artifact.
func (f *ModelFactory) CreateEnsemble() (*model.Ensemble, error) {
	models := f.cfg.GetModels()
	primary, err := f.loadOrBuiltin(models.PrimaryPath, model.BuiltinForest)
	if err != nil {
		return nil, fmt.Errorf("failed to load primary model: %w", err)
	}
	baseline, err := f.loadOrBuiltin(models.BaselinePath, model.BuiltinLinear)
	if err != nil {
		// The baseline is a cross-check, not a gate. Keep serving on the
		// primary alone and surface the degraded mode in the logs.
		f.logger.Warn("Failed to load baseline model, continuing without it",
			zap.Error(err))
		baseline = nil
	}

	return model.NewEnsemble(primary, baseline, f.logger)
}

func (f *ModelFactory) loadOrBuiltin(path string, builtin func() *model.Artifact) (*model.Artifact, error) {
	if path == "" {
		return builtin(), nil
	}
	art, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded model artifact",
		zap.String("path", path),
		zap.String("kind", string(art.Kind)),
		zap.Float64("threshold", art.Threshold))
	return art, nil
}
