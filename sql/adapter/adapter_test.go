package adapter

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystore"
)

func TestPostgresConnectionString(t *testing.T) {
	a := NewPostgresAdapter()

	config := querystore.Config{
		Host:     "db.internal",
		Port:     5432,
		Database: "app",
		Username: "svc",
		Password: "secret",
	}
	assert.Equal(t,
		"host=db.internal port=5432 dbname=app user=svc password=secret sslmode=disable",
		a.ConnectionString(config))

	config.SSLMode = "require"
	assert.Contains(t, a.ConnectionString(config), "sslmode=require")
}

func TestMySQLConnectionString(t *testing.T) {
	a := NewMySQLAdapter()

	config := querystore.Config{
		Host:     "db.internal",
		Port:     3306,
		Database: "app",
		Username: "svc",
		Password: "secret",
	}
	assert.Equal(t,
		"svc:secret@tcp(db.internal:3306)/app?parseTime=true&charset=utf8mb4",
		a.ConnectionString(config))

	// A caller-supplied charset suppresses the default.
	config.Options = map[string]string{"charset": "latin1"}
	dsn := a.ConnectionString(config)
	assert.Contains(t, dsn, "charset=latin1")
	assert.NotContains(t, dsn, "utf8mb4")
}

func TestSQLiteConnectionString(t *testing.T) {
	a := NewSQLiteAdapter()

	assert.Equal(t, ":memory:", a.ConnectionString(querystore.Config{}))
	assert.Equal(t, "/var/data/app.db",
		a.ConnectionString(querystore.Config{FilePath: "/var/data/app.db"}))
	assert.Equal(t, "app.db?cache=shared",
		a.ConnectionString(querystore.Config{
			FilePath: "app.db",
			Options:  map[string]string{"cache": "shared"},
		}))
}

func TestAdapterNames(t *testing.T) {
	assert.Equal(t, "postgres", NewPostgresAdapter().Name())
	assert.Equal(t, "postgres", NewPostgresAdapter().DriverName())
	assert.Equal(t, "mysql", NewMySQLAdapter().Name())
	assert.Equal(t, "sqlite", NewSQLiteAdapter().Name())
	assert.Equal(t, "sqlite3", NewSQLiteAdapter().DriverName())
}

func TestDefaultTxOptions(t *testing.T) {
	assert.Equal(t, sql.LevelReadCommitted, NewPostgresAdapter().DefaultTxOptions().Isolation)
	assert.Equal(t, sql.LevelRepeatableRead, NewMySQLAdapter().DefaultTxOptions().Isolation)
	assert.Equal(t, sql.LevelSerializable, NewSQLiteAdapter().DefaultTxOptions().Isolation)
}

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"postgres", "postgresql", "mysql", "sqlite", "sqlite3"} {
		assert.True(t, r.Exists(name), name)
		a, err := r.Get(name)
		require.NoError(t, err)
		assert.NotNil(t, a)
	}

	// Aliases resolve to the same adapter kind.
	pg, err := r.Get("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	lite, err := r.Get("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", lite.Name())
}

func TestRegistryUnknownDriver(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("oracle")
	require.Error(t, err)
	assert.True(t, querystore.IsDriverError(err))
	assert.ErrorIs(t, err, querystore.ErrDriverNotFound)
}

func TestRegistryGetReturnsFreshInstances(t *testing.T) {
	r := NewRegistry()

	first, err := r.Get("sqlite")
	require.NoError(t, err)
	second, err := r.Get("sqlite")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRegistryRegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func() Adapter { return NewSQLiteAdapter() })

	assert.True(t, r.Exists("custom"))
	assert.Contains(t, r.List(), "custom")
}

var errDatabaseLocked = errors.New("database is locked")

func TestErrorClassification(t *testing.T) {
	a := NewSQLiteAdapter()

	assert.False(t, a.IsUniqueConstraintViolation(nil))
	assert.False(t, a.IsConnectionError(assert.AnError))
	assert.True(t, a.IsConnectionError(errDatabaseLocked))
}
