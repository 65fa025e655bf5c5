package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/core"
)

// MemoryCache is an in-memory VerdictCache with periodic cleanup.
type MemoryCache struct {
	entries     map[string]*core.CachedVerdict
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates an in-memory verdict cache and starts its
// background cleanup task.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries:     make(map[string]*core.CachedVerdict),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.startCleanupTask()
	return c
}

// Get retrieves a live verdict for a URL.
func (c *MemoryCache) Get(ctx context.Context, url string) (*core.CachedVerdict, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, core.ErrCacheMiss
	}
	return entry, nil
}

// Set stores a verdict.
func (c *MemoryCache) Set(ctx context.Context, verdict *core.CachedVerdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[verdict.URL] = verdict
	return nil
}

// Delete removes a verdict.
func (c *MemoryCache) Delete(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, url)
	return nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := 0
	for url, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, url)
			expired++
		}
	}

	c.logger.Debug("Cleaned up expired verdicts", zap.Int("expired_count", expired))
	return nil
}

func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up verdict cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
