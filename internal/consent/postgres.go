package consent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

// PostgresStore persists consent records in PostgreSQL with one row per
// (user_id, purpose) pair, upserted on save.
type PostgresStore struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// PostgresConfig contains database adapter configuration.
type PostgresConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

const consentSchema = `
CREATE TABLE IF NOT EXISTS consent_records (
	user_id      TEXT        NOT NULL,
	purpose      TEXT        NOT NULL,
	status       TEXT        NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL,
	withdrawn_at TIMESTAMPTZ,
	version      TEXT        NOT NULL DEFAULT '1.0',
	metadata     JSONB,
	PRIMARY KEY (user_id, purpose)
)`

// consentRow mirrors the consent_records table.
type consentRow struct {
	UserID      string         `db:"user_id"`
	Purpose     string         `db:"purpose"`
	Status      string         `db:"status"`
	Timestamp   time.Time      `db:"timestamp"`
	WithdrawnAt sql.NullTime   `db:"withdrawn_at"`
	Version     string         `db:"version"`
	Metadata    sql.NullString `db:"metadata"`
}

// NewPostgresStore connects to PostgreSQL and bootstraps the schema.
func NewPostgresStore(config *PostgresConfig, log *logger.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if log == nil {
		log = logger.Nop()
	}
	store := &PostgresStore{db: db, logger: log.WithComponent("consent-postgres")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, consentSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure consent schema: %w", err)
	}

	store.logger.Info("consent store initialized",
		zap.Int("max_open_conns", config.MaxOpenConns))
	return store, nil
}

// Save upserts the record on (user_id, purpose).
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	var metadata interface{}
	if record.Metadata != nil {
		data, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal consent metadata: %w", err)
		}
		metadata = string(data)
	}

	query := `
		INSERT INTO consent_records (user_id, purpose, status, timestamp, withdrawn_at, version, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, purpose) DO UPDATE SET
			status = EXCLUDED.status,
			timestamp = EXCLUDED.timestamp,
			withdrawn_at = EXCLUDED.withdrawn_at,
			version = EXCLUDED.version,
			metadata = EXCLUDED.metadata`

	_, err := s.db.ExecContext(ctx, query,
		record.UserID, record.Purpose, record.Status, record.Timestamp,
		record.WithdrawnAt, record.Version, metadata)
	if err != nil {
		return fmt.Errorf("failed to save consent record: %w", err)
	}
	return nil
}

// Get returns the stored record, or (nil, nil) when absent.
func (s *PostgresStore) Get(ctx context.Context, userID, purpose string) (*Record, error) {
	var row consentRow
	query := `SELECT user_id, purpose, status, timestamp, withdrawn_at, version, metadata
		FROM consent_records WHERE user_id = $1 AND purpose = $2`
	if err := s.db.GetContext(ctx, &row, query, userID, purpose); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load consent record: %w", err)
	}
	return row.toRecord()
}

// GetAll returns every stored record for a user.
func (s *PostgresStore) GetAll(ctx context.Context, userID string) ([]*Record, error) {
	var rows []consentRow
	query := `SELECT user_id, purpose, status, timestamp, withdrawn_at, version, metadata
		FROM consent_records WHERE user_id = $1 ORDER BY purpose`
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load consent records: %w", err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes a record; deleting a missing record is not an error.
func (s *PostgresStore) Delete(ctx context.Context, userID, purpose string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM consent_records WHERE user_id = $1 AND purpose = $2`, userID, purpose)
	if err != nil {
		return fmt.Errorf("failed to delete consent record: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (r consentRow) toRecord() (*Record, error) {
	record := &Record{
		UserID:    r.UserID,
		Purpose:   r.Purpose,
		Status:    Status(r.Status),
		Timestamp: r.Timestamp,
		Version:   r.Version,
	}
	if r.WithdrawnAt.Valid {
		t := r.WithdrawnAt.Time
		record.WithdrawnAt = &t
	}
	if r.Metadata.Valid && r.Metadata.String != "" {
		if err := json.Unmarshal([]byte(r.Metadata.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal consent metadata: %w", err)
		}
	}
	return record, nil
}
