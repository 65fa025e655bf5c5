package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/adapters/httpapi"
	"github.com/mikey/phishing-url-filter/internal/allowlist"
	"github.com/mikey/phishing-url-filter/internal/config"
	"github.com/mikey/phishing-url-filter/internal/core"
	"github.com/mikey/phishing-url-filter/internal/factory"
	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/logging"
	"github.com/mikey/phishing-url-filter/internal/model"
	"github.com/mikey/phishing-url-filter/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewModelFactory); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register model ensemble
	if err := container.Provide(func(f *factory.ModelFactory) (*model.Ensemble, error) {
		return f.CreateEnsemble()
	}); err != nil {
		return nil, err
	}

	// Register domain extractor (nil when lookups are disabled)
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *features.DomainExtractor {
		ext := cfg.GetExtraction()
		if !ext.DomainEnabled {
			logger.Info("Domain lookups disabled")
			return nil
		}
		return features.NewDomainExtractor(ext.DNSResolver, ext.LookupTimeout, logger)
	}); err != nil {
		return nil, err
	}

	// Register content extractor
	if err := container.Provide(features.NewContentExtractor); err != nil {
		return nil, err
	}

	// Register trusted-domain allowlist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *allowlist.Checker {
		domains := cfg.GetClassifier().TrustedDomains
		if len(domains) > 0 {
			logger.Info("Loaded trusted domains", zap.Strings("domains", domains))
		}
		return allowlist.NewChecker(domains, logger)
	}); err != nil {
		return nil, err
	}

	// Register top-k default
	if err := container.Provide(func(cfg *config.Config) int {
		return cfg.GetClassifier().TopK
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(core.NewClassifierService); err != nil {
		return nil, err
	}

	// Register HTTP transport
	if err := container.Provide(func(svc *core.ClassifierService, cfg *config.Config, logger *zap.Logger) ports.Transport {
		srv := cfg.GetServer()
		return httpapi.NewServer(svc, srv.ListenAddress, srv.ReadTimeout, srv.WriteTimeout, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
