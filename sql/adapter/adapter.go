// Package adapter provides pluggable SQL database adapters (PostgreSQL,
// MySQL, SQLite) behind a common interface, plus a registry to look them up
// by name.
package adapter

import (
	"context"
	"database/sql"

	"querystore"
)

// Adapter represents a SQL database adapter.
type Adapter interface {
	// Name returns the adapter's unique identifier.
	Name() string

	// DriverName returns the database/sql driver name the adapter opens.
	DriverName() string

	// Connect establishes a connection to the database.
	Connect(ctx context.Context, config querystore.Config) (*sql.DB, error)

	// ConnectionString builds the driver connection string from config.
	ConnectionString(config querystore.Config) string

	// DefaultTxOptions returns the driver's default transaction options.
	DefaultTxOptions() *sql.TxOptions

	// Error classification
	IsUniqueConstraintViolation(err error) bool
	IsForeignKeyViolation(err error) bool
	IsConnectionError(err error) bool
	IsNotFoundError(err error) bool

	// Close releases any resources held by the adapter.
	Close() error
}
