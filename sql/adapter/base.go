package adapter

import (
	"context"
	"database/sql"
	"strings"

	"querystore"
)

// baseAdapter provides the connect and error-classification behavior shared
// by the network adapters.
type baseAdapter struct {
	name       string
	driverName string
	db         *sql.DB
}

func newBaseAdapter(name, driverName string) *baseAdapter {
	return &baseAdapter{name: name, driverName: driverName}
}

// Name returns the adapter name.
func (a *baseAdapter) Name() string {
	return a.name
}

// DriverName returns the database/sql driver name.
func (a *baseAdapter) DriverName() string {
	return a.driverName
}

// open opens and pings a connection with pooling configured from config.
func (a *baseAdapter) open(ctx context.Context, config querystore.Config, connectionString string) (*sql.DB, error) {
	db, err := sql.Open(a.driverName, connectionString)
	if err != nil {
		return nil, querystore.WrapConnectionError(err, "connect", a.driverName, config.Host)
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
	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, querystore.WrapConnectionError(err, "ping", a.driverName, config.Host)
	}

	a.db = db
	return db, nil
}

// Close closes the database connection.
func (a *baseAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// DefaultTxOptions returns read-committed read-write transactions. Adapters
// override this with driver defaults.
func (a *baseAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

func containsAny(err error, patterns ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsUniqueConstraintViolation checks common unique-violation messages.
func (a *baseAdapter) IsUniqueConstraintViolation(err error) bool {
	return containsAny(err, "unique constraint", "duplicate key", "duplicate entry")
}

// IsForeignKeyViolation checks common foreign-key-violation messages.
func (a *baseAdapter) IsForeignKeyViolation(err error) bool {
	return containsAny(err, "foreign key")
}

// IsConnectionError checks common connection-failure messages.
func (a *baseAdapter) IsConnectionError(err error) bool {
	return containsAny(err,
		"connection refused",
		"connection reset",
		"connection closed",
		"network is unreachable",
		"driver: bad connection")
}

// IsNotFoundError checks for the empty-result condition.
func (a *baseAdapter) IsNotFoundError(err error) bool {
	if err == sql.ErrNoRows {
		return true
	}
	return containsAny(err, "no rows in result set")
}
