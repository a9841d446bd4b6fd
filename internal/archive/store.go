// Package archive persists analysis records to PostgreSQL for
// long-term retention and cross-session reporting. The JSONL audit log
// remains the primary evidentiary trail; the archive serves queries.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Config contains database configuration.
type Config struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// Record is one archived analysis.
type Record struct {
	ID             int64     `db:"id" json:"id"`
	ScenarioID     string    `db:"scenario_id" json:"scenario_id"`
	AnalystID      string    `db:"analyst_id" json:"analyst_id"`
	Rationale      string    `db:"rationale" json:"rationale"`
	Flagged        bool      `db:"flagged" json:"flagged"`
	MatchCount     int       `db:"match_count" json:"match_count"`
	FlaggedModules string    `db:"flagged_modules" json:"flagged_modules"`
	Matches        string    `db:"matches" json:"matches"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ArchiveStats summarizes the archive contents.
type ArchiveStats struct {
	TotalRecords int64   `db:"total_records" json:"total_records"`
	TotalFlagged int64   `db:"total_flagged" json:"total_flagged"`
	FlagRate     float64 `json:"flag_rate"`
}

// Store handles analysis record persistence on PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

const schema = `
	CREATE TABLE IF NOT EXISTS analysis_records (
		id              BIGSERIAL PRIMARY KEY,
		scenario_id     TEXT NOT NULL,
		analyst_id      TEXT NOT NULL,
		rationale       TEXT NOT NULL,
		flagged         BOOLEAN NOT NULL,
		match_count     INTEGER NOT NULL,
		flagged_modules JSONB NOT NULL DEFAULT '[]',
		matches         JSONB NOT NULL DEFAULT '[]',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// NewStore connects to PostgreSQL and ensures the archive table exists.
func NewStore(config *Config, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Archive store initialized successfully",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns))

	return store, nil
}

// initialize checks database connection and creates the schema.
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create analysis_records table: %w", err)
	}

	return nil
}

// Insert archives a new analysis record.
func (s *Store) Insert(ctx context.Context, record *Record, flaggedModules, matches []string) error {
	modulesJSON, err := json.Marshal(flaggedModules)
	if err != nil {
		return fmt.Errorf("failed to marshal flagged modules: %w", err)
	}
	matchesJSON, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}

	query := `
		INSERT INTO analysis_records (scenario_id, analyst_id, rationale, flagged, match_count, flagged_modules, matches)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = s.db.QueryRowContext(ctx, query,
		record.ScenarioID,
		record.AnalystID,
		record.Rationale,
		record.Flagged,
		record.MatchCount,
		modulesJSON,
		matchesJSON,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to archive analysis record",
			zap.Error(err),
			zap.String("scenario_id", record.ScenarioID))
		return fmt.Errorf("failed to archive analysis record: %w", err)
	}

	s.logger.Debug("Analysis record archived",
		zap.Int64("id", record.ID),
		zap.Bool("flagged", record.Flagged))

	return nil
}

// Recent returns the most recent archived records.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, scenario_id, analyst_id, rationale, flagged, match_count,
		       flagged_modules::text AS flagged_modules, matches::text AS matches, created_at
		FROM analysis_records
		ORDER BY created_at DESC
		LIMIT $1`

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}

	return records, nil
}

// GetStats returns archive-wide statistics.
func (s *Store) GetStats(ctx context.Context) (*ArchiveStats, error) {
	query := `
		SELECT COUNT(*) AS total_records,
		       COUNT(*) FILTER (WHERE flagged) AS total_flagged
		FROM analysis_records`

	stats := &ArchiveStats{}
	if err := s.db.GetContext(ctx, stats, query); err != nil {
		return nil, fmt.Errorf("failed to query archive stats: %w", err)
	}

	if stats.TotalRecords > 0 {
		stats.FlagRate = float64(stats.TotalFlagged) / float64(stats.TotalRecords) * 100
	}

	return stats, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks credentials in a database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
