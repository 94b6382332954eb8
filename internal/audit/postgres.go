package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

// PostgresStore persists audit entries in PostgreSQL.
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

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id            TEXT        PRIMARY KEY,
	user_id       TEXT        NOT NULL,
	action        TEXT        NOT NULL,
	resource_type TEXT        NOT NULL,
	resource_id   TEXT        NOT NULL,
	timestamp     TIMESTAMPTZ NOT NULL,
	ip_address    TEXT,
	user_agent    TEXT,
	details       JSONB,
	result        TEXT        NOT NULL,
	error         TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_user_id ON audit_entries (user_id);
CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries (timestamp)`

type auditRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Action       string         `db:"action"`
	ResourceType string         `db:"resource_type"`
	ResourceID   string         `db:"resource_id"`
	Timestamp    time.Time      `db:"timestamp"`
	IPAddress    sql.NullString `db:"ip_address"`
	UserAgent    sql.NullString `db:"user_agent"`
	Details      sql.NullString `db:"details"`
	Result       string         `db:"result"`
	Error        sql.NullString `db:"error"`
}

// sortColumns whitelists the sortable columns so user input never reaches
// the ORDER BY clause directly.
var sortColumns = map[string]string{
	SortByTimestamp: "timestamp",
	SortByUserID:    "user_id",
	SortByAction:    "action",
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
	store := &PostgresStore{db: db, logger: log.WithComponent("audit-postgres")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	store.logger.Info("audit store initialized")
	return store, nil
}

// Save inserts one entry.
func (s *PostgresStore) Save(ctx context.Context, entry *Entry) error {
	var details interface{}
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = string(data)
	}

	query := `
		INSERT INTO audit_entries
			(id, user_id, action, resource_type, resource_id, timestamp, ip_address, user_agent, details, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Timestamp, nullable(entry.IPAddress), nullable(entry.UserAgent),
		details, entry.Result, nullable(entry.Error))
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// buildFilter renders the WHERE clause and args shared by Query and Count.
func buildFilter(opts QueryOptions) (string, []interface{}) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if opts.UserID != "" {
		add("user_id = $%d", opts.UserID)
	}
	if opts.Action != "" {
		add("action = $%d", string(opts.Action))
	}
	if opts.ResourceType != "" {
		add("resource_type = $%d", opts.ResourceType)
	}
	if opts.ResourceID != "" {
		add("resource_id = $%d", opts.ResourceID)
	}
	if !opts.From.IsZero() {
		add("timestamp >= $%d", opts.From)
	}
	if !opts.To.IsZero() {
		add("timestamp <= $%d", opts.To)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Query returns matching entries, sorted and paginated.
func (s *PostgresStore) Query(ctx context.Context, opts QueryOptions) ([]*Entry, error) {
	where, args := buildFilter(opts)

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "timestamp"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT id, user_id, action, resource_type, resource_id, timestamp,
			ip_address, user_agent, details, result, error
		FROM audit_entries%s ORDER BY %s %s`, where, column, direction)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Count returns the number of matching entries, ignoring pagination.
func (s *PostgresStore) Count(ctx context.Context, opts QueryOptions) (int, error) {
	where, args := buildFilter(opts)

	var count int
	query := "SELECT COUNT(*) FROM audit_entries" + where
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}

// Delete removes one entry by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete audit entry: %w", err)
	}
	return nil
}

// DeleteMany removes a batch of entries by id.
func (s *PostgresStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM audit_entries WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	query = s.db.Rebind(query)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete audit entries: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		s.logger.Debug("audit entries deleted", zap.Int64("count", affected))
	}
	return nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (r auditRow) toEntry() (*Entry, error) {
	entry := &Entry{
		ID:           r.ID,
		UserID:       r.UserID,
		Action:       Action(r.Action),
		ResourceType: r.ResourceType,
		ResourceID:   r.ResourceID,
		Timestamp:    r.Timestamp,
		IPAddress:    r.IPAddress.String,
		UserAgent:    r.UserAgent.String,
		Result:       Result(r.Result),
		Error:        r.Error.String,
	}
	if r.Details.Valid && r.Details.String != "" {
		if err := json.Unmarshal([]byte(r.Details.String), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
		}
	}
	return entry, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
