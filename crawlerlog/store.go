package crawlerlog

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store persists crawler visits.
type Store struct {
	db   *sql.DB
	salt string
}

// NewStore opens (or creates) the crawler log database at path and loads
// the per-installation hash salt, generating it on first use.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create crawler log dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open crawler log db: %w", err)
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure crawler log db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.initSalt(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS crawler_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			ai_crawler INTEGER NOT NULL DEFAULT 0,
			render_path TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_crawler_visits_timestamp ON crawler_visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_crawler_visits_bot ON crawler_visits(bot_name);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

func (s *Store) initSalt() error {
	v, err := s.GetSetting("hash_salt")
	if err != nil {
		return fmt.Errorf("read hash salt: %w", err)
	}
	if v == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		v = hex.EncodeToString(b)
		if err := s.SetSetting("hash_salt", v); err != nil {
			return fmt.Errorf("store hash salt: %w", err)
		}
	}
	s.salt = v
	return nil
}

// GetSetting returns a setting value, or "" when it is unset.
func (s *Store) GetSetting(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// HashIP hashes ip with this installation's salt.
func (s *Store) HashIP(ip string) string {
	return hashIP(s.salt, ip)
}

// Save inserts a visit. The user agent is truncated to a bounded length.
func (s *Store) Save(ctx context.Context, v Visit) error {
	if len(v.UserAgent) > maxUserAgentLen {
		v.UserAgent = v.UserAgent[:maxUserAgentLen]
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crawler_visits (bot_name, ip_hash, user_agent, path, ai_crawler, render_path, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.BotName, v.IPHash, v.UserAgent, v.Path, v.AICrawler, v.RenderPath, v.Timestamp.UTC())
	return err
}

// Recent returns the latest visits, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bot_name, ip_hash, user_agent, path, ai_crawler, render_path, timestamp
		FROM crawler_visits ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	visits := []Visit{}
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.BotName, &v.IPHash, &v.UserAgent, &v.Path, &v.AICrawler, &v.RenderPath, &v.Timestamp); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Stats aggregates visits in [from, to).
func (s *Store) Stats(ctx context.Context, from, to time.Time) (*Stats, error) {
	from, to = from.UTC(), to.UTC()
	stats := &Stats{
		Period:      from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		TopBots:     []DimensionStat{},
		TopPages:    []PageStat{},
		RenderPaths: []DimensionStat{},
		DailyVisits: []DailyVisit{},
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(ai_crawler), 0) FROM crawler_visits
		WHERE timestamp >= ? AND timestamp < ?`, from, to).Scan(&stats.TotalVisits, &stats.AIVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	if stats.TopBots, err = s.dimension(ctx, "bot_name", from, to); err != nil {
		return nil, fmt.Errorf("top bots: %w", err)
	}
	if stats.RenderPaths, err = s.dimension(ctx, "render_path", from, to); err != nil {
		return nil, fmt.Errorf("render paths: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS n FROM crawler_visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY path ORDER BY n DESC, path LIMIT 20`, from, to)
	if err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Path, &p.Visits); err != nil {
			rows.Close()
			return nil, err
		}
		stats.TopPages = append(stats.TopPages, p)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM crawler_visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY day ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily visits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d DailyVisit
		if err := rows.Scan(&d.Date, &d.Visits); err != nil {
			return nil, err
		}
		stats.DailyVisits = append(stats.DailyVisits, d)
	}
	return stats, rows.Err()
}

// dimension counts visits grouped by column. column is never user input.
func (s *Store) dimension(ctx context.Context, column string, from, to time.Time) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) AS n FROM crawler_visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY `+column+` ORDER BY n DESC, `+column+` LIMIT 20`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Cleanup removes visits older than retentionDays and reports how many
// rows were deleted.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM crawler_visits WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup crawler_visits: %w", err)
	}
	return res.RowsAffected()
}

// StartCleanupScheduler runs Cleanup every interval. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, logger *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := s.Cleanup(context.Background(), retentionDays)
				if err != nil {
					logger.Warn("crawler log cleanup failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("crawler log cleanup", zap.Int64("deleted", n), zap.Int("retention_days", retentionDays))
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
