package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"querystore"
)

// SQLiteAdapter implements the Adapter interface for SQLite.
type SQLiteAdapter struct {
	*baseAdapter
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{
		baseAdapter: newBaseAdapter("sqlite", "sqlite3"),
	}
}

// Connect establishes a connection to SQLite and enables foreign keys,
// which are off by default.
func (a *SQLiteAdapter) Connect(ctx context.Context, config querystore.Config) (*sql.DB, error) {
	// SQLite works best with a single connection for writes.
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 1
	}

	db, err := a.open(ctx, config, a.ConnectionString(config))
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, querystore.WrapConnectionError(err, "pragma", a.driverName, config.FilePath)
	}

	return db, nil
}

// ConnectionString constructs a SQLite DSN: the database file path, or
// an in-memory database when no path is configured.
func (a *SQLiteAdapter) ConnectionString(config querystore.Config) string {
	path := config.FilePath
	if path == "" {
		path = ":memory:"
	}

	var params []string
	for key, value := range config.Options {
		params = append(params, fmt.Sprintf("%s=%s", key, value))
	}
	if len(params) > 0 {
		return path + "?" + strings.Join(params, "&")
	}
	return path
}

// DefaultTxOptions returns SQLite's default transaction options.
func (a *SQLiteAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

// IsUniqueConstraintViolation checks SQLite's unique-violation message.
func (a *SQLiteAdapter) IsUniqueConstraintViolation(err error) bool {
	return containsAny(err, "unique constraint")
}

// IsConnectionError checks SQLite's connection-level failure messages.
func (a *SQLiteAdapter) IsConnectionError(err error) bool {
	return containsAny(err,
		"database is locked",
		"database schema has changed",
		"no such file",
		"unable to open database")
}
