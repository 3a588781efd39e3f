package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"querystore"
)

// PostgresAdapter implements the Adapter interface for PostgreSQL.
type PostgresAdapter struct {
	*baseAdapter
}

// NewPostgresAdapter creates a new PostgreSQL adapter.
func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{
		baseAdapter: newBaseAdapter("postgres", "postgres"),
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Connect(ctx context.Context, config querystore.Config) (*sql.DB, error) {
	return a.open(ctx, config, a.ConnectionString(config))
}

// ConnectionString constructs a space-separated PostgreSQL DSN.
func (a *PostgresAdapter) ConnectionString(config querystore.Config) string {
	var parts []string

	if config.Host != "" {
		parts = append(parts, fmt.Sprintf("host=%s", config.Host))
	}
	if config.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", config.Port))
	}
	if config.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", config.Database))
	}
	if config.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", config.Username))
	}
	if config.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", config.Password))
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))

	for key, value := range config.Options {
		parts = append(parts, fmt.Sprintf("%s=%s", key, value))
	}

	return strings.Join(parts, " ")
}

// DefaultTxOptions returns PostgreSQL's default transaction options.
func (a *PostgresAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}
