package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"querystore"
)

// MySQLAdapter implements the Adapter interface for MySQL.
type MySQLAdapter struct {
	*baseAdapter
}

// NewMySQLAdapter creates a new MySQL adapter.
func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{
		baseAdapter: newBaseAdapter("mysql", "mysql"),
	}
}

// Connect establishes a connection to MySQL.
func (a *MySQLAdapter) Connect(ctx context.Context, config querystore.Config) (*sql.DB, error) {
	return a.open(ctx, config, a.ConnectionString(config))
}

// ConnectionString constructs a MySQL DSN.
// Format: [username[:password]@][protocol[(address)]]/dbname[?param=value&...]
func (a *MySQLAdapter) ConnectionString(config querystore.Config) string {
	var dsn strings.Builder

	if config.Username != "" {
		dsn.WriteString(config.Username)
		if config.Password != "" {
			dsn.WriteString(":")
			dsn.WriteString(config.Password)
		}
		dsn.WriteString("@")
	}

	if config.Host != "" || config.Port > 0 {
		dsn.WriteString("tcp(")
		if config.Host != "" {
			dsn.WriteString(config.Host)
		} else {
			dsn.WriteString("localhost")
		}
		if config.Port > 0 {
			fmt.Fprintf(&dsn, ":%d", config.Port)
		}
		dsn.WriteString(")")
	}

	dsn.WriteString("/")
	dsn.WriteString(config.Database)

	// parseTime is required for time.Time scanning.
	params := []string{"parseTime=true"}

	hasCharset := false
	for key := range config.Options {
		if strings.EqualFold(key, "charset") {
			hasCharset = true
			break
		}
	}
	if !hasCharset {
		params = append(params, "charset=utf8mb4")
	}

	for key, value := range config.Options {
		params = append(params, fmt.Sprintf("%s=%s", key, value))
	}

	dsn.WriteString("?")
	dsn.WriteString(strings.Join(params, "&"))

	return dsn.String()
}

// DefaultTxOptions returns MySQL's default transaction options.
func (a *MySQLAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
}
