package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"querystore"
	"querystore/entity"
)

// Repository implements the querystore repository contract for one entity
// type over a SQL service. It is stateless apart from the shared service and
// the read-only entity descriptor.
type Repository[T any] struct {
	service *Service
	desc    *entity.Descriptor
	tx      *TransactionHandler
	logger  *slog.Logger
}

var _ querystore.Repository[struct{}] = (*Repository[struct{}])(nil)

// NewRepository creates a repository for T, describing the model through the
// given registry.
func NewRepository[T any](service *Service, registry *entity.Registry) (*Repository[T], error) {
	var model T
	desc, err := registry.Describe(model)
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		service: service,
		desc:    desc,
		tx:      service.TransactionHandler(),
		logger:  service.logger,
	}, nil
}

// Descriptor returns the entity descriptor backing this repository.
func (r *Repository[T]) Descriptor() *entity.Descriptor {
	return r.desc
}

// querier returns the execution target: the context transaction when one is
// present, the pooled handle otherwise.
func (r *Repository[T]) querier(ctx context.Context) sqlx.ExtContext {
	if tx, ok := TransactionFromContext(ctx); ok {
		return tx
	}
	return r.service.db
}

func (r *Repository[T]) newQuery() *QueryBuilder {
	return NewQueryBuilder(r.desc.Table)
}

// Find retrieves the entity with the given primary key, projected to fields.
func (r *Repository[T]) Find(ctx context.Context, id querystore.Identity, fields querystore.Fields) (T, error) {
	var out T
	qb := r.newQuery()
	if !fields.IsAll() {
		qb.Select(fields...)
	}
	qb.Where(r.desc.PK, "=", id.Value(), ConnectorAnd)

	query, args := qb.Build()
	query = r.service.Rebind(query)
	r.logQuery("find", query, args)

	err := sqlx.GetContext(ctx, r.querier(ctx), &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return out, querystore.NewRecordNotFoundError(r.desc.Table, id.String())
	}
	if err != nil {
		return out, querystore.WrapQueryError(err, "find", r.desc.Table, query, args)
	}
	return out, nil
}

// FindBy returns every entity matching filter, ordered by sort and projected
// to fields. All-zero arguments produce an unrestricted scan.
func (r *Repository[T]) FindBy(ctx context.Context, filter querystore.Filter, sort querystore.Sort, fields querystore.Fields) ([]T, error) {
	qb := r.newQuery()
	if !fields.IsAll() {
		qb.Select(fields...)
	}
	if err := (FilterCompiler{}).Compile(qb, filter); err != nil {
		return nil, err
	}
	SortCompiler{}.Compile(qb, sort)
	return r.selectRows(ctx, "find_by", qb)
}

// FindByDistinct returns distinct rows over the given projection with filter
// and sort applied.
func (r *Repository[T]) FindByDistinct(ctx context.Context, distinct querystore.Fields, filter querystore.Filter, sort querystore.Sort) ([]T, error) {
	qb := r.newQuery().Distinct(distinct...)
	if err := (FilterCompiler{}).Compile(qb, filter); err != nil {
		return nil, err
	}
	SortCompiler{}.Compile(qb, sort)
	return r.selectRows(ctx, "find_by_distinct", qb)
}

// FindAll runs the full pagination path. A nil pageable returns the entire
// result set as a single degenerate page; otherwise one unpaginated count
// supplies the totals and one paged fetch the items.
func (r *Repository[T]) FindAll(ctx context.Context, pageable *querystore.Pageable) (querystore.Page[T], error) {
	if pageable == nil {
		items, err := r.FindBy(ctx, querystore.Filter{}, nil, nil)
		if err != nil {
			return querystore.Page[T]{}, err
		}
		return querystore.SinglePage(items), nil
	}
	if err := pageable.Validate(); err != nil {
		return querystore.Page[T]{}, err
	}

	qb := r.newQuery()
	// Distinct takes precedence over the requested field list.
	if len(pageable.Distinct) > 0 {
		qb.Distinct(pageable.Distinct...)
	} else if !pageable.Fields.IsAll() {
		qb.Select(pageable.Fields...)
	}
	if err := (FilterCompiler{}).Compile(qb, pageable.Filter); err != nil {
		return querystore.Page[T]{}, err
	}

	total, err := r.count(ctx, "find_all_count", qb)
	if err != nil {
		return querystore.Page[T]{}, err
	}

	SortCompiler{}.Compile(qb, pageable.Sort)
	qb.Limit(pageable.Size).Offset(pageable.Offset())

	items, err := r.selectRows(ctx, "find_all", qb)
	if err != nil {
		return querystore.Page[T]{}, err
	}
	return querystore.NewPage(items, total, pageable.Number, pageable.Size), nil
}

// Count returns the number of rows matching filter.
func (r *Repository[T]) Count(ctx context.Context, filter querystore.Filter) (int64, error) {
	qb := r.newQuery()
	if err := (FilterCompiler{}).Compile(qb, filter); err != nil {
		return 0, err
	}
	return r.count(ctx, "count", qb)
}

// Exists reports whether a row with the given primary key exists. It
// composes a Must/Eq filter on the key column and delegates to Count, so it
// exercises the same compile path.
func (r *Repository[T]) Exists(ctx context.Context, id querystore.Identity) (bool, error) {
	filter := querystore.NewFilter().Must().Eq(r.desc.PK, id.Value()).Build()
	n, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Add persists a new entity and returns the persisted value with generated
// id and timestamps applied.
func (r *Repository[T]) Add(ctx context.Context, ent T) (T, error) {
	e := ent
	if err := r.desc.Guard(e); err != nil {
		return e, err
	}
	if err := r.desc.PrepareInsert(&e, time.Now().UTC()); err != nil {
		return e, err
	}
	values, err := r.desc.Values(e)
	if err != nil {
		return e, err
	}

	query, args := r.newQuery().BuildInsert(values)
	query = r.service.Rebind(query)
	r.logQuery("add", query, args)

	if _, err := r.querier(ctx).ExecContext(ctx, query, args...); err != nil {
		return e, querystore.WrapQueryError(err, "add", r.desc.Table, query, args)
	}
	return e, nil
}

// AddAll persists entities sequentially, fail-fast.
func (r *Repository[T]) AddAll(ctx context.Context, ents []T) ([]T, error) {
	out := make([]T, 0, len(ents))
	for _, ent := range ents {
		persisted, err := r.Add(ctx, ent)
		if err != nil {
			return nil, err
		}
		out = append(out, persisted)
	}
	return out, nil
}

// Update persists changes to an existing entity; a missing row yields the
// not-found signal.
func (r *Repository[T]) Update(ctx context.Context, ent T) (T, error) {
	e := ent
	if err := r.desc.Guard(e); err != nil {
		return e, err
	}
	if err := r.desc.PrepareUpdate(&e, time.Now().UTC()); err != nil {
		return e, err
	}
	values, err := r.desc.Values(e)
	if err != nil {
		return e, err
	}
	pk := values[r.desc.PK]
	delete(values, r.desc.PK)

	qb := r.newQuery()
	qb.Where(r.desc.PK, "=", pk, ConnectorAnd)
	query, args := qb.BuildUpdate(values)
	query = r.service.Rebind(query)
	r.logQuery("update", query, args)

	res, err := r.querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return e, querystore.WrapQueryError(err, "update", r.desc.Table, query, args)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return e, querystore.WrapQueryError(err, "update", r.desc.Table, query, args)
	}
	if rows == 0 {
		return e, querystore.NewRecordNotFoundError(r.desc.Table, fmt.Sprintf("%v", pk))
	}
	return e, nil
}

// UpdateAll updates entities sequentially, fail-fast.
func (r *Repository[T]) UpdateAll(ctx context.Context, ents []T) ([]T, error) {
	out := make([]T, 0, len(ents))
	for _, ent := range ents {
		updated, err := r.Update(ctx, ent)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	return out, nil
}

// Remove deletes the row with the given primary key and reports whether a
// row was deleted.
func (r *Repository[T]) Remove(ctx context.Context, id querystore.Identity) (bool, error) {
	qb := r.newQuery()
	qb.Where(r.desc.PK, "=", id.Value(), ConnectorAnd)
	return r.delete(ctx, "remove", qb)
}

// RemoveAll deletes every row matching filter (all rows for a zero filter)
// and reports whether any row was deleted.
func (r *Repository[T]) RemoveAll(ctx context.Context, filter querystore.Filter) (bool, error) {
	qb := r.newQuery()
	if err := (FilterCompiler{}).Compile(qb, filter); err != nil {
		return false, err
	}
	return r.delete(ctx, "remove_all", qb)
}

// Transactional runs fn inside a transaction on this repository's service.
func (r *Repository[T]) Transactional(ctx context.Context, fn func(context.Context) error) error {
	return r.tx.WithTx(ctx, fn)
}

// Execution helpers

func (r *Repository[T]) selectRows(ctx context.Context, operation string, qb *QueryBuilder) ([]T, error) {
	query, args := qb.Build()
	query = r.service.Rebind(query)
	r.logQuery(operation, query, args)

	out := []T{}
	if err := sqlx.SelectContext(ctx, r.querier(ctx), &out, query, args...); err != nil {
		return nil, querystore.WrapQueryError(err, operation, r.desc.Table, query, args)
	}
	return out, nil
}

func (r *Repository[T]) count(ctx context.Context, operation string, qb *QueryBuilder) (int64, error) {
	query, args := qb.BuildCount()
	query = r.service.Rebind(query)
	r.logQuery(operation, query, args)

	var n int64
	if err := sqlx.GetContext(ctx, r.querier(ctx), &n, query, args...); err != nil {
		return 0, querystore.WrapQueryError(err, operation, r.desc.Table, query, args)
	}
	return n, nil
}

func (r *Repository[T]) delete(ctx context.Context, operation string, qb *QueryBuilder) (bool, error) {
	query, args := qb.BuildDelete()
	query = r.service.Rebind(query)
	r.logQuery(operation, query, args)

	res, err := r.querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, querystore.WrapQueryError(err, operation, r.desc.Table, query, args)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, querystore.WrapQueryError(err, operation, r.desc.Table, query, args)
	}
	return rows > 0, nil
}

func (r *Repository[T]) logQuery(operation, query string, args []any) {
	r.logger.Debug("executing query",
		slog.String("operation", operation),
		slog.String("table", r.desc.Table),
		slog.String("query", query),
		slog.Int("args", len(args)))
}
