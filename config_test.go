package querystore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querystore"
)

func TestNewConfigOptions(t *testing.T) {
	config := querystore.NewConfig(
		querystore.PostgresOptions("mydb", "user", "secret",
			querystore.WithHost("db.internal"),
			querystore.WithPooling(25, 10, time.Hour),
			querystore.WithTimeouts(5*time.Second, 10*time.Second),
		)...,
	)

	assert.Equal(t, "postgres", config.Driver)
	assert.Equal(t, "db.internal", config.Host)
	assert.Equal(t, 5432, config.Port)
	assert.Equal(t, "mydb", config.Database)
	assert.Equal(t, "disable", config.SSLMode)
	assert.Equal(t, 25, config.MaxOpenConns)
	assert.Equal(t, 5*time.Second, config.ConnectTimeout)
	require.NoError(t, config.Validate())
}

func TestDriverBundles(t *testing.T) {
	mysql := querystore.NewConfig(querystore.MySQLOptions("app", "root", "pw")...)
	assert.Equal(t, "mysql", mysql.Driver)
	assert.Equal(t, 3306, mysql.Port)
	require.NoError(t, mysql.Validate())

	sqlite := querystore.NewConfig(querystore.SQLiteOptions("/tmp/app.db")...)
	assert.Equal(t, "sqlite", sqlite.Driver)
	assert.Equal(t, "/tmp/app.db", sqlite.FilePath)
	assert.Equal(t, 1, sqlite.MaxOpenConns)
	require.NoError(t, sqlite.Validate())

	mem := querystore.NewConfig(querystore.MemoryOptions()...)
	assert.Equal(t, "memory", mem.Driver)
	require.NoError(t, mem.Validate())
}

func TestConfigValidate(t *testing.T) {
	err := querystore.Config{}.Validate()
	require.Error(t, err)
	assert.True(t, querystore.IsConfigError(err))

	missingDB := querystore.NewConfig(
		func(c *querystore.Config) { c.Driver = "postgres" },
	)
	missingDB.Database = ""
	err = missingDB.Validate()
	require.Error(t, err)
	assert.True(t, querystore.IsConfigError(err))
}

func TestConfigApply(t *testing.T) {
	config := querystore.DefaultConfig()
	config.Apply(
		querystore.WithHost("custom-host"),
		querystore.WithPort(9999),
		querystore.WithOption("application_name", "querystore"),
	)
	assert.Equal(t, "custom-host", config.Host)
	assert.Equal(t, 9999, config.Port)
	assert.Equal(t, "querystore", config.Options["application_name"])
}

func TestLoadEnvConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"QS_DRIVER=postgres\nQS_HOST=filehost\nQS_DATABASE=filedb\nQS_PORT=5433\n"), 0o600))

	// Explicit environment wins over the file.
	t.Setenv("QS_HOST", "envhost")
	t.Setenv("QS_USERNAME", "envuser")

	config, err := querystore.LoadEnvConfig("QS", envFile)
	require.NoError(t, err)
	assert.Equal(t, "postgres", config.Driver)
	assert.Equal(t, "envhost", config.Host)
	assert.Equal(t, "filedb", config.Database)
	assert.Equal(t, 5433, config.Port)
	assert.Equal(t, "envuser", config.Username)
	require.NoError(t, config.Validate())
}

func TestLoadEnvConfigMissingFileIgnored(t *testing.T) {
	t.Setenv("QS2_DRIVER", "sqlite")
	config, err := querystore.LoadEnvConfig("QS2", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.Driver)
}

func TestLoadEnvConfigBadPort(t *testing.T) {
	t.Setenv("QS3_PORT", "not-a-number")
	_, err := querystore.LoadEnvConfig("QS3")
	require.Error(t, err)
	assert.True(t, querystore.IsConfigError(err))
}
