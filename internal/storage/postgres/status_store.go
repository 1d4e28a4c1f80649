// Package postgres provides a Postgres-backed status check store.
//
// The table is expected to exist:
//
//	CREATE TABLE status_checks (
//		seq         BIGSERIAL PRIMARY KEY,
//		id          TEXT NOT NULL UNIQUE,
//		client_name TEXT NOT NULL,
//		created_at  TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

const defaultTable = "status_checks"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for status checks.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Ping(context.Context) error
	Close()
}

// StatusStore reads and writes status checks in Postgres.
type StatusStore struct {
	pool  pool
	table string
}

// NewStatusStore creates a Postgres-backed StatusStore using the provided config.
func NewStatusStore(ctx context.Context, cfg Config) (*StatusStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &StatusStore{pool: p, table: table}, nil
}

// NewStatusStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStatusStoreWithPool(p pool, table string) (*StatusStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &StatusStore{pool: p, table: table}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// InsertStatusCheck inserts one row.
func (s *StatusStore) InsertStatusCheck(ctx context.Context, check school.StatusCheck) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, client_name, created_at) VALUES ($1, $2, $3)`, s.table)
	if _, err := s.pool.Exec(ctx, query, check.ID, check.ClientName, check.Timestamp); err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

// ListStatusChecks returns rows in insertion order. LIMIT NULL means no limit.
func (s *StatusStore) ListStatusChecks(ctx context.Context, limit int) ([]school.StatusCheck, error) {
	query := fmt.Sprintf(`SELECT id, client_name, created_at FROM %s ORDER BY seq LIMIT $1`, s.table)
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	checks := []school.StatusCheck{}
	for rows.Next() {
		var check school.StatusCheck
		if err := rows.Scan(&check.ID, &check.ClientName, &check.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		check.Timestamp = check.Timestamp.UTC()
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status checks: %w", err)
	}
	return checks, nil
}

// Ping checks connectivity.
func (s *StatusStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *StatusStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
