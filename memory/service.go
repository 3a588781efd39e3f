// Package memstore implements the querystore repository contract on an
// in-process table of rows. It mirrors the SQL backend's filter semantics
// predicate for predicate, which makes every behavioral property testable
// without a database. Rows can be snapshotted to disk as JSON for durable
// fixtures.
package memstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"querystore"
)

type row map[string]any

type txContextKey struct{}

func inTransaction(ctx context.Context) bool {
	ok, _ := ctx.Value(txContextKey{}).(bool)
	return ok
}

// Service holds the tables shared by the repositories created over it.
type Service struct {
	mu     sync.RWMutex
	tables map[string][]row
	logger *slog.Logger
}

// ServiceOption configures a service.
type ServiceOption func(*Service)

// WithLogger sets the service logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an empty in-memory service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		tables: make(map[string][]row),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// read runs fn under the read lock. Inside a transaction the exclusive lock
// is already held, so fn runs directly.
func (s *Service) read(ctx context.Context, fn func(tables map[string][]row) error) error {
	if !inTransaction(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.tables)
}

// write runs fn under the write lock, or directly inside a transaction.
func (s *Service) write(ctx context.Context, fn func(tables map[string][]row) error) error {
	if !inTransaction(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.tables)
}

var _ querystore.Transactor = (*Service)(nil)

// Transactional executes fn as a unit of work: the service takes the
// exclusive lock, snapshots every table, and restores the snapshot when fn
// fails, so no partial write is ever visible. The fn error is returned
// unmodified. Nested calls join the surrounding transaction.
func (s *Service) Transactional(ctx context.Context, fn func(context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := snapshotTables(s.tables)
	if err := fn(context.WithValue(ctx, txContextKey{}, true)); err != nil {
		s.tables = snapshot
		return err
	}
	return nil
}

func snapshotTables(tables map[string][]row) map[string][]row {
	snapshot := make(map[string][]row, len(tables))
	for name, rows := range tables {
		copied := make([]row, len(rows))
		for i, r := range rows {
			cr := make(row, len(r))
			for k, v := range r {
				cr[k] = v
			}
			copied[i] = cr
		}
		snapshot[name] = copied
	}
	return snapshot
}

// SaveTo writes every table to path as JSON, atomically: the dump goes to a
// temporary file first and is renamed into place. JSON typing applies on
// reload (numbers come back as float64).
func (s *Service) SaveTo(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.tables, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return querystore.WrapQueryError(err, "save", "", path, nil)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".memstore-*.json")
	if err != nil {
		return querystore.WrapQueryError(err, "save", "", path, nil)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return querystore.WrapQueryError(err, "save", "", path, nil)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return querystore.WrapQueryError(err, "save", "", path, nil)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return querystore.WrapQueryError(err, "save", "", path, nil)
	}

	s.logger.Info("saved tables", slog.String("path", path))
	return nil
}

// LoadFrom replaces every table with the dump at path.
func (s *Service) LoadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return querystore.WrapQueryError(err, "load", "", path, nil)
	}
	tables := make(map[string][]row)
	if err := json.Unmarshal(data, &tables); err != nil {
		return querystore.WrapQueryError(err, "load", "", path, nil)
	}

	s.mu.Lock()
	s.tables = tables
	s.mu.Unlock()

	s.logger.Info("loaded tables", slog.String("path", path))
	return nil
}
