package core

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by VerdictCache.Get when no live entry exists.
var ErrCacheMiss = errors.New("verdict cache miss")

// VerdictCache stores classification verdicts keyed by normalized URL.
type VerdictCache interface {
	// Get retrieves a live cached verdict, or ErrCacheMiss.
	Get(ctx context.Context, url string) (*CachedVerdict, error)

	// Set stores a verdict.
	Set(ctx context.Context, verdict *CachedVerdict) error

	// Delete removes a verdict.
	Delete(ctx context.Context, url string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}
