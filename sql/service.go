// Package sqlstore implements the querystore repository contract on
// relational databases. Filters and sorts compile to SQL through the
// QueryBuilder; drivers plug in via querystore/sql/adapter.
package sqlstore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"querystore"
	"querystore/sql/adapter"
)

// Service wraps a SQL adapter and the live database handle. Repositories
// share one service.
type Service struct {
	adapter adapter.Adapter
	config  querystore.Config
	db      *sqlx.DB
	logger  *slog.Logger
}

// ServiceOption configures a service.
type ServiceOption func(*Service)

// WithLogger sets the service logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new SQL service with the given adapter.
func NewService(adpt adapter.Adapter, config querystore.Config, opts ...ServiceOption) *Service {
	s := &Service{
		adapter: adpt,
		config:  config,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes the database connection and verifies it with a ping
// bounded by the configured connect timeout.
func (s *Service) Connect(ctx context.Context) error {
	db, err := s.adapter.Connect(ctx, s.config)
	if err != nil {
		return err
	}
	sdb := sqlx.NewDb(db, s.adapter.DriverName())

	pingCtx := ctx
	if s.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.config.ConnectTimeout)
		defer cancel()
	}
	if err := sdb.PingContext(pingCtx); err != nil {
		_ = sdb.Close()
		return querystore.WrapConnectionError(err, "ping", s.adapter.Name(), s.config.Host)
	}

	s.db = sdb
	s.logger.Info("connected to database",
		slog.String("driver", s.adapter.Name()),
		slog.String("host", s.config.Host),
		slog.String("database", s.config.Database))
	return nil
}

// DB returns the underlying database handle.
func (s *Service) DB() *sqlx.DB {
	return s.db
}

// Adapter returns the underlying adapter.
func (s *Service) Adapter() adapter.Adapter {
	return s.adapter
}

// Close closes the database connection.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats returns database connection statistics.
func (s *Service) Stats() sql.DBStats {
	if s.db != nil {
		return s.db.Stats()
	}
	return sql.DBStats{}
}

// Rebind translates '?' placeholders to the driver's bind style.
func (s *Service) Rebind(query string) string {
	return s.db.Rebind(query)
}

// TransactionHandler returns a transaction handler over this service.
func (s *Service) TransactionHandler() *TransactionHandler {
	return NewTransactionHandler(s.db, s.adapter, s.logger)
}

// ExecSQL executes raw SQL (for schema setup in tests and tooling). It joins
// a context transaction when one is present.
func (s *Service) ExecSQL(ctx context.Context, query string, args ...any) error {
	var err error
	if tx, ok := TransactionFromContext(ctx); ok {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return querystore.WrapQueryError(err, "exec_sql", "", query, args)
	}
	return nil
}

// Open creates and connects a new SQL service using the specified adapter.
func Open(ctx context.Context, adpt adapter.Adapter, config querystore.Config, opts ...ServiceOption) (*Service, error) {
	service := NewService(adpt, config, opts...)
	if err := service.Connect(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// OpenWithName creates and connects a new SQL service using the named
// adapter from the global registry.
func OpenWithName(ctx context.Context, adapterName string, config querystore.Config, opts ...ServiceOption) (*Service, error) {
	adpt, err := adapter.Get(adapterName)
	if err != nil {
		return nil, err
	}
	return Open(ctx, adpt, config, opts...)
}
