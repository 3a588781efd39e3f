package sqlstore

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"querystore"
	"querystore/sql/adapter"
)

type txContextKey struct{}

// TransactionFromContext extracts an *sqlx.Tx from context when present.
func TransactionFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// TransactionHandler runs units of work inside a transaction with strict
// begin/commit/rollback sequencing: on an fn error the transaction is rolled
// back and the original error is returned unmodified; every exit path either
// commits or rolls back.
type TransactionHandler struct {
	db      *sqlx.DB
	adapter adapter.Adapter
	logger  *slog.Logger
}

// NewTransactionHandler creates a transaction handler.
func NewTransactionHandler(db *sqlx.DB, adpt adapter.Adapter, logger *slog.Logger) *TransactionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionHandler{db: db, adapter: adpt, logger: logger}
}

var _ querystore.Transactor = (*TransactionHandler)(nil)

// Transactional implements querystore.Transactor.
func (t *TransactionHandler) Transactional(ctx context.Context, fn func(context.Context) error) error {
	return t.WithTx(ctx, fn)
}

// WithTx executes fn within a transaction. A call made while the context
// already carries a transaction joins it instead of nesting.
func (t *TransactionHandler) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := TransactionFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, t.adapter.DefaultTxOptions())
	if err != nil {
		return querystore.WrapTransactionError(err, "begin")
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			t.logger.Error("transaction rollback failed",
				slog.String("driver", t.adapter.Name()),
				slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return querystore.WrapTransactionError(err, "commit")
	}
	return nil
}
