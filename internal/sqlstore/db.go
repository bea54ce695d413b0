// Package sqlstore implements storage.Table on a relational database through
// bun. SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq) are supported.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the driver and data source.
type Config struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Open connects to the configured database and wraps it in a bun.DB with the
// matching dialect. In-memory SQLite databases are pinned to one connection so
// every query sees the same data.
func Open(cfg Config) (*bun.DB, error) {
	var dialect schema.Dialect
	switch cfg.Driver {
	case DriverSQLite:
		dialect = sqlitedialect.New()
	case DriverPostgres:
		dialect = pgdialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}

	maxConns := cfg.MaxOpenConns
	if cfg.Driver == DriverSQLite && (strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory")) {
		maxConns = 1
	}
	if maxConns > 0 {
		sqldb.SetMaxOpenConns(maxConns)
	}

	return bun.NewDB(sqldb, dialect), nil
}

// isUniqueViolation reports whether err is a primary key or unique constraint
// failure on either supported driver.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint &&
			(liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || liteErr.ExtendedCode == sqlite3.ErrConstraintUnique)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
