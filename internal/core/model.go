package core

import (
	"time"

	"github.com/mikey/phishing-url-filter/internal/model"
)

// Request is one classification request. The optional groups are attempted
// only when the caller asks for them; skipping keeps the feature schema
// intact and substitutes sentinels (batch/fast mode).
type Request struct {
	// RawURL is the untrusted input string. It is never passed to an
	// extractor before validation.
	RawURL string
	// WithDomain enables WHOIS/DNS lookups for the host.
	WithDomain bool
	// PageContent is pre-fetched page HTML supplied by the caller. Empty
	// means the content group is skipped.
	PageContent string
	// TopK overrides the configured number of contributing features to
	// report. Zero means use the service default.
	TopK int
}

// ClassificationResult is the immutable outcome of one request.
type ClassificationResult struct {
	URL           string                      `json:"url"`
	Label         string                      `json:"classification"`
	Probability   float64                     `json:"probability"`
	RiskScore     int                         `json:"risk_score"`
	TopFeatures   []model.ContributingFeature `json:"top_contributing_features"`
	SkippedGroups []string                    `json:"skipped_groups,omitempty"`
	// DegradedLookups lists optional lookups that failed or timed out and
	// fell back to sentinels. Metadata, not an error condition.
	DegradedLookups []string  `json:"degraded_lookups,omitempty"`
	ModelUsed       string    `json:"model_used"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// CachedVerdict is a previously computed verdict for a URL, kept until
// ExpiresAt.
type CachedVerdict struct {
	URL         string
	Label       string
	Probability float64
	RiskScore   int
	AnalyzedAt  time.Time
	ExpiresAt   time.Time
}
