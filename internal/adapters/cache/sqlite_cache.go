package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/core"
)

// sqliteTimeLayout matches datetime('now') output so expiry comparisons
// work as plain string comparisons. All stored times are UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteCache is a SQLite-backed VerdictCache, useful when verdicts should
// survive restarts on a single host.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache opens (and if needed initializes) the verdict table at
// dbPath and starts the background cleanup task.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_verdicts (
			url TEXT PRIMARY KEY,
			label TEXT,
			probability REAL,
			risk_score INTEGER,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_verdict_expires_at ON url_verdicts(expires_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	c := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.startCleanupTask()
	return c, nil
}

// Get retrieves a live verdict for a URL.
func (c *SQLiteCache) Get(ctx context.Context, url string) (*core.CachedVerdict, error) {
	var (
		label                 string
		probability           float64
		riskScore             int
		analyzedAt, expiresAt string
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT label, probability, risk_score, analyzed_at, expires_at
		FROM url_verdicts
		WHERE url = ? AND expires_at > datetime('now')
	`, url).Scan(&label, &probability, &riskScore, &analyzedAt, &expiresAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrCacheMiss
		}
		c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("url", url))
		return nil, core.ErrCacheMiss
	}

	at, err := time.Parse(sqliteTimeLayout, analyzedAt)
	if err != nil {
		c.logger.Error("Failed to parse analyzed_at timestamp", zap.Error(err))
		return nil, core.ErrCacheMiss
	}
	exp, err := time.Parse(sqliteTimeLayout, expiresAt)
	if err != nil {
		c.logger.Error("Failed to parse expires_at timestamp", zap.Error(err))
		return nil, core.ErrCacheMiss
	}

	return &core.CachedVerdict{
		URL:         url,
		Label:       label,
		Probability: probability,
		RiskScore:   riskScore,
		AnalyzedAt:  at,
		ExpiresAt:   exp,
	}, nil
}

// Set stores a verdict.
func (c *SQLiteCache) Set(ctx context.Context, verdict *core.CachedVerdict) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO url_verdicts (url, label, probability, risk_score, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, verdict.URL, verdict.Label, verdict.Probability, verdict.RiskScore,
		verdict.AnalyzedAt.UTC().Format(sqliteTimeLayout), verdict.ExpiresAt.UTC().Format(sqliteTimeLayout))

	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Delete removes a verdict.
func (c *SQLiteCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM url_verdicts WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("failed to delete verdict: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM url_verdicts WHERE expires_at <= datetime('now')`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired verdicts: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired verdicts", zap.Int64("expired_count", rows))
	}
	return nil
}

func (c *SQLiteCache) startCleanupTask() {
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

// Stop stops the cleanup task and closes the database.
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
