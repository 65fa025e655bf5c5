package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/allowlist"
	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/model"
	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// ClassifierService runs the full pipeline for one URL: validate, extract,
// aggregate, score, explain. All shared state (ensemble, keyword tables,
// allowlist) is read-only after construction, so concurrent requests need no
// locking; everything mutable is request-local.
type ClassifierService struct {
	domainExt    *features.DomainExtractor
	contentExt   *features.ContentExtractor
	ensemble     *model.Ensemble
	cache        VerdictCache
	cacheEnabled bool
	cacheTTL     time.Duration
	allow        *allowlist.Checker
	topK         int
	logger       *zap.Logger
}

// NewClassifierService creates the classification service. cache may be nil
// when cacheEnabled is false.
func NewClassifierService(
	domainExt *features.DomainExtractor,
	contentExt *features.ContentExtractor,
	ensemble *model.Ensemble,
	cache VerdictCache,
	cacheEnabled bool,
	cacheTTL time.Duration,
	allow *allowlist.Checker,
	topK int,
	logger *zap.Logger,
) *ClassifierService {
	if topK <= 0 {
		topK = model.DefaultTopK
	}
	return &ClassifierService{
		domainExt:    domainExt,
		contentExt:   contentExt,
		ensemble:     ensemble,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		allow:        allow,
		topK:         topK,
		logger:       logger,
	}
}

// Classify runs one request end to end. Only urlcheck.ErrInvalidInput and
// features.ErrSchemaMismatch can surface; optional-signal failures degrade
// to sentinels and are reported in the result metadata.
func (s *ClassifierService) Classify(ctx context.Context, req Request) (*ClassificationResult, error) {
	u, err := urlcheck.Validate(req.RawURL)
	if err != nil {
		return nil, err
	}

	if s.allow != nil && s.allow.IsTrusted(u.Host) {
		s.logger.Info("Skipping classification for trusted domain",
			zap.String("host", u.Host))
		return &ClassificationResult{
			URL:        u.Full,
			Label:      model.LabelLegitimate,
			RiskScore:  0,
			ModelUsed:  "allowlist",
			AnalyzedAt: time.Now(),
		}, nil
	}

	if s.cacheEnabled && s.cache != nil {
		if entry, err := s.cache.Get(ctx, u.Full); err == nil {
			s.logger.Debug("Verdict cache hit", zap.String("url", u.Full))
			return &ClassificationResult{
				URL:         entry.URL,
				Label:       entry.Label,
				Probability: entry.Probability,
				RiskScore:   entry.RiskScore,
				ModelUsed:   "cache",
				AnalyzedAt:  entry.AnalyzedAt,
			}, nil
		}
	}

	result, err := s.classify(ctx, u, req)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled && s.cache != nil {
		entry := &CachedVerdict{
			URL:         u.Full,
			Label:       result.Label,
			Probability: result.Probability,
			RiskScore:   result.RiskScore,
			AnalyzedAt:  result.AnalyzedAt,
			ExpiresAt:   time.Now().Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update verdict cache", zap.Error(err))
		}
	}

	return result, nil
}

// classify runs extraction and scoring for an already validated URL.
func (s *ClassifierService) classify(ctx context.Context, u urlcheck.ValidatedURL, req Request) (*ClassificationResult, error) {
	lex := features.ExtractLexical(u)

	dom := features.DomainResult{Skipped: true}
	if req.WithDomain && s.domainExt != nil {
		dom = s.domainExt.Extract(ctx, u)
	}

	cont := features.ContentResult{Skipped: true}
	if req.PageContent != "" && s.contentExt != nil {
		cont = s.contentExt.Extract(u, req.PageContent)
	}

	vector, err := features.Aggregate(lex, dom, cont)
	if err != nil {
		return nil, err
	}

	pred, err := s.ensemble.Predict(vector)
	if err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}
	top, err := s.ensemble.TopContributors(vector, topK)
	if err != nil {
		return nil, err
	}

	result := &ClassificationResult{
		URL:             u.Full,
		Label:           model.Label(pred.Probability, s.ensemble.Threshold()),
		Probability:     pred.Probability,
		RiskScore:       model.RiskScore(pred.Probability),
		TopFeatures:     top,
		DegradedLookups: append(dom.Degraded, cont.Degraded...),
		ModelUsed:       pred.ModelUsed,
		AnalyzedAt:      time.Now(),
	}
	if dom.Skipped {
		result.SkippedGroups = append(result.SkippedGroups, features.GroupDomain.String())
	}
	if cont.Skipped {
		result.SkippedGroups = append(result.SkippedGroups, features.GroupContent.String())
	}

	s.logger.Info("Classified URL",
		zap.String("url", u.Full),
		zap.String("label", result.Label),
		zap.Int("risk_score", result.RiskScore),
		zap.String("model", result.ModelUsed),
		zap.Strings("skipped_groups", result.SkippedGroups))

	return result, nil
}
