// Package querystore provides a storage-agnostic query abstraction layer:
// repositories that express find, filter, sort, paginate, count, exists and
// remove operations over persisted entities through declarative value
// objects (Filter, Sort, Fields, Pageable) instead of hand-written queries.
//
// The core abstractions live at the root level; backend-specific
// implementations live in sub-packages (querystore/sql for relational
// databases, querystore/memory for an in-process backend).
package querystore

import (
	"context"
	"fmt"
)

// Identity is an opaque wrapper over a single primary-key value. It is used
// wherever an entity is referenced by key (Find, Exists, Remove).
type Identity struct {
	value any
}

// NewIdentity wraps a primary-key value.
func NewIdentity(value any) Identity {
	return Identity{value: value}
}

// Value returns the wrapped primary-key value.
func (id Identity) Value() any {
	return id.value
}

// IsZero reports whether the identity carries no value.
func (id Identity) IsZero() bool {
	switch v := id.value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// String renders the wrapped value for diagnostics.
func (id Identity) String() string {
	return fmt.Sprintf("%v", id.value)
}

// Repository is the storage-agnostic contract every backend implements for
// one entity type. Zero-value Filter, Sort and Fields arguments are no-ops;
// a nil Pageable means "no pagination".
type Repository[T any] interface {
	// Find retrieves the entity with the given primary key, projected to
	// fields (or all columns when fields is empty). A missing row yields a
	// not-found error recognizable via IsNotFound.
	Find(ctx context.Context, id Identity, fields Fields) (T, error)

	// FindBy returns every entity matching filter, ordered by sort and
	// projected to fields. All-zero arguments mean an unrestricted scan.
	FindBy(ctx context.Context, filter Filter, sort Sort, fields Fields) ([]T, error)

	// FindAll runs the full pagination path. A nil pageable returns the
	// entire result set as a single degenerate page.
	FindAll(ctx context.Context, pageable *Pageable) (Page[T], error)

	// FindByDistinct returns distinct rows over the given projection with
	// filter and sort applied.
	FindByDistinct(ctx context.Context, distinct Fields, filter Filter, sort Sort) ([]T, error)

	// Count returns the number of rows matching filter; a zero filter
	// counts every row.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Exists reports whether a row with the given primary key exists. It is
	// implemented as a Count over a primary-key equality filter, so it
	// shares Count's compilation path.
	Exists(ctx context.Context, id Identity) (bool, error)

	// Add persists a new entity and returns the persisted value. A value of
	// the wrong dynamic type fails the type guard.
	Add(ctx context.Context, ent T) (T, error)

	// AddAll persists entities sequentially, fail-fast: the first failure
	// aborts the remaining entities.
	AddAll(ctx context.Context, ents []T) ([]T, error)

	// Update persists changes to an existing entity; a missing row yields
	// the not-found signal.
	Update(ctx context.Context, ent T) (T, error)

	// UpdateAll updates entities sequentially, fail-fast.
	UpdateAll(ctx context.Context, ents []T) ([]T, error)

	// Remove deletes the row with the given primary key and reports whether
	// a row was deleted.
	Remove(ctx context.Context, id Identity) (bool, error)

	// RemoveAll deletes every row matching filter (all rows for a zero
	// filter) and reports whether any row was deleted. A second identical
	// call returns false without error.
	RemoveAll(ctx context.Context, filter Filter) (bool, error)

	// Transactional runs fn inside a transaction: begin, fn, commit; on an
	// fn error the transaction is rolled back and the original error is
	// returned unmodified. Repository calls made with the context passed to
	// fn run on the transaction.
	Transactional(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor is the transaction-only slice of the repository contract, for
// callers that coordinate several repositories inside one unit of work.
type Transactor interface {
	Transactional(ctx context.Context, fn func(ctx context.Context) error) error
}
