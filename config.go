package querystore

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the unified configuration shared by every backend. Adapters read
// the fields relevant to their driver and ignore the rest.
type Config struct {
	// Driver selects the adapter (postgres, mysql, sqlite, memory).
	Driver string

	// Network connection info
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// FilePath is the database file for file-based backends (SQLite).
	FilePath string

	// Connection pooling
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Timeouts
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration

	// Options carries driver-specific connection parameters.
	Options map[string]string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  30 * time.Second,
		QueryTimeout:    30 * time.Second,
		Options:         make(map[string]string),
	}
}

// Validate checks that the configuration is sufficient for its driver.
func (c Config) Validate() error {
	switch c.Driver {
	case "":
		return NewConfigErrorForField("driver", c.Driver, "driver is required")
	case "sqlite", "sqlite3":
		// FilePath may be empty; adapters fall back to an in-memory database.
		return nil
	case "memory":
		return nil
	default:
		if c.Database == "" {
			return NewConfigErrorForField("database", c.Database, "database name is required")
		}
		if c.Host == "" {
			return NewConfigErrorForField("host", c.Host, "host is required")
		}
		return nil
	}
}

// LoadEnvConfig builds a Config from <PREFIX>_-prefixed environment
// variables, optionally loading .env files first. Explicitly set environment
// variables win over file values; file values win over defaults. Missing
// .env files are not an error.
func LoadEnvConfig(prefix string, files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, NewConfigErrorForField("env_file", f, err.Error())
		}
	}

	c := DefaultConfig()
	lookup := func(key string) (string, bool) {
		return os.LookupEnv(prefix + "_" + key)
	}

	if v, ok := lookup("DRIVER"); ok {
		c.Driver = v
	}
	if v, ok := lookup("HOST"); ok {
		c.Host = v
	}
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, NewConfigErrorForField("port", v, "port must be an integer")
		}
		c.Port = port
	}
	if v, ok := lookup("DATABASE"); ok {
		c.Database = v
	}
	if v, ok := lookup("USERNAME"); ok {
		c.Username = v
	}
	if v, ok := lookup("PASSWORD"); ok {
		c.Password = v
	}
	if v, ok := lookup("SSLMODE"); ok {
		c.SSLMode = v
	}
	if v, ok := lookup("FILE"); ok {
		c.FilePath = v
	}
	if v, ok := lookup("MAX_OPEN_CONNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, NewConfigErrorForField("max_open_conns", v, "must be an integer")
		}
		c.MaxOpenConns = n
	}
	if v, ok := lookup("MAX_IDLE_CONNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, NewConfigErrorForField("max_idle_conns", v, "must be an integer")
		}
		c.MaxIdleConns = n
	}
	if v, ok := lookup("CONNECT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, NewConfigErrorForField("connect_timeout", v, "must be a duration")
		}
		c.ConnectTimeout = d
	}
	if v, ok := lookup("QUERY_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, NewConfigErrorForField("query_timeout", v, "must be a duration")
		}
		c.QueryTimeout = d
	}

	return c, nil
}
