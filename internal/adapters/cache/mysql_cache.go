package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/core"
)

// MySQLCache is a MySQL-backed VerdictCache for deployments where several
// filter instances share one verdict store.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache connects with the given DSN, creates the verdict table if
// missing, and starts the background cleanup task.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_verdicts (
			url VARCHAR(2048) NOT NULL,
			url_hash CHAR(64) AS (SHA2(url, 256)) STORED,
			label VARCHAR(16),
			probability DOUBLE,
			risk_score INT,
			analyzed_at DATETIME,
			expires_at DATETIME,
			PRIMARY KEY (url_hash),
			INDEX idx_verdict_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}
	go c.startCleanupTask()
	return c, nil
}

// Get retrieves a live verdict for a URL.
func (c *MySQLCache) Get(ctx context.Context, url string) (*core.CachedVerdict, error) {
	var (
		label                 string
		probability           float64
		riskScore             int
		analyzedAt, expiresAt time.Time
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT label, probability, risk_score, analyzed_at, expires_at
		FROM url_verdicts
		WHERE url_hash = SHA2(?, 256) AND expires_at > NOW()
	`, url).Scan(&label, &probability, &riskScore, &analyzedAt, &expiresAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrCacheMiss
		}
		c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("url", url))
		return nil, core.ErrCacheMiss
	}

	return &core.CachedVerdict{
		URL:         url,
		Label:       label,
		Probability: probability,
		RiskScore:   riskScore,
		AnalyzedAt:  analyzedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// Set stores a verdict.
func (c *MySQLCache) Set(ctx context.Context, verdict *core.CachedVerdict) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO url_verdicts (url, label, probability, risk_score, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			label = VALUES(label),
			probability = VALUES(probability),
			risk_score = VALUES(risk_score),
			analyzed_at = VALUES(analyzed_at),
			expires_at = VALUES(expires_at)
	`, verdict.URL, verdict.Label, verdict.Probability, verdict.RiskScore,
		verdict.AnalyzedAt.UTC(), verdict.ExpiresAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert verdict: %w", err)
	}
	return nil
}

// Delete removes a verdict.
func (c *MySQLCache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM url_verdicts WHERE url_hash = SHA2(?, 256)`, url)
	if err != nil {
		return fmt.Errorf("failed to delete verdict: %w", err)
	}
	return nil
}

// Cleanup removes expired entries.
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM url_verdicts WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired verdicts: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired verdicts", zap.Int64("expired_count", rows))
	}
	return nil
}

func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
