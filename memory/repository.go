package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"querystore"
	"querystore/entity"
)

// Repository implements the querystore repository contract for one entity
// type over an in-memory service.
type Repository[T any] struct {
	service *Service
	desc    *entity.Descriptor
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
	return &Repository[T]{service: service, desc: desc}, nil
}

// Descriptor returns the entity descriptor backing this repository.
func (r *Repository[T]) Descriptor() *entity.Descriptor {
	return r.desc
}

// Find retrieves the entity with the given primary key, projected to fields.
func (r *Repository[T]) Find(ctx context.Context, id querystore.Identity, fields querystore.Fields) (T, error) {
	var out T
	found := false
	err := r.service.read(ctx, func(tables map[string][]row) error {
		for _, rw := range tables[r.desc.Table] {
			if equalValues(rw[r.desc.PK], id.Value()) {
				found = true
				return r.materialize(rw, fields, &out)
			}
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, querystore.NewRecordNotFoundError(r.desc.Table, id.String())
	}
	return out, nil
}

// FindBy returns every entity matching filter, ordered by sort and projected
// to fields.
func (r *Repository[T]) FindBy(ctx context.Context, filter querystore.Filter, srt querystore.Sort, fields querystore.Fields) ([]T, error) {
	rows, err := r.matchingRows(ctx, filter, srt)
	if err != nil {
		return nil, err
	}
	return r.materializeAll(rows, fields)
}

// FindByDistinct returns distinct rows over the given projection with filter
// and sort applied. Row order follows the sort; duplicates keep their first
// occurrence.
func (r *Repository[T]) FindByDistinct(ctx context.Context, distinct querystore.Fields, filter querystore.Filter, srt querystore.Sort) ([]T, error) {
	rows, err := r.matchingRows(ctx, filter, srt)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	unique := rows[:0:0]
	for _, rw := range rows {
		key := distinctKey(rw, distinct)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, rw)
	}
	return r.materializeAll(unique, distinct)
}

// FindAll runs the full pagination path; a nil pageable returns everything
// as a single degenerate page.
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

	fields := pageable.Fields
	var items []T
	var total int64
	if len(pageable.Distinct) > 0 {
		// Distinct takes precedence over the requested field list.
		fields = pageable.Distinct
		all, err := r.FindByDistinct(ctx, pageable.Distinct, pageable.Filter, pageable.Sort)
		if err != nil {
			return querystore.Page[T]{}, err
		}
		total = int64(len(all))
		items = pageSlice(all, pageable.Offset(), pageable.Size)
	} else {
		rows, err := r.matchingRows(ctx, pageable.Filter, pageable.Sort)
		if err != nil {
			return querystore.Page[T]{}, err
		}
		total = int64(len(rows))
		items, err = r.materializeAll(pageSlice(rows, pageable.Offset(), pageable.Size), fields)
		if err != nil {
			return querystore.Page[T]{}, err
		}
	}
	return querystore.NewPage(items, total, pageable.Number, pageable.Size), nil
}

// Count returns the number of rows matching filter.
func (r *Repository[T]) Count(ctx context.Context, filter querystore.Filter) (int64, error) {
	var n int64
	err := r.service.read(ctx, func(tables map[string][]row) error {
		for _, rw := range tables[r.desc.Table] {
			ok, err := evalFilter(filter, rw)
			if err != nil {
				return err
			}
			if ok {
				n++
			}
		}
		return nil
	})
	return n, err
}

// Exists reports whether a row with the given primary key exists, by
// composing a Must/Eq filter on the key column and delegating to Count.
func (r *Repository[T]) Exists(ctx context.Context, id querystore.Identity) (bool, error) {
	filter := querystore.NewFilter().Must().Eq(r.desc.PK, id.Value()).Build()
	n, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Add persists a new entity; a duplicate primary key is rejected.
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

	err = r.service.write(ctx, func(tables map[string][]row) error {
		for _, rw := range tables[r.desc.Table] {
			if equalValues(rw[r.desc.PK], values[r.desc.PK]) {
				return querystore.WrapQueryError(querystore.ErrRecordExists,
					"add", r.desc.Table, "", []any{values[r.desc.PK]})
			}
		}
		tables[r.desc.Table] = append(tables[r.desc.Table], row(values))
		return nil
	})
	return e, err
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

	err = r.service.write(ctx, func(tables map[string][]row) error {
		rows := tables[r.desc.Table]
		for i, rw := range rows {
			if equalValues(rw[r.desc.PK], values[r.desc.PK]) {
				rows[i] = row(values)
				return nil
			}
		}
		return querystore.NewRecordNotFoundError(r.desc.Table,
			fmt.Sprintf("%v", values[r.desc.PK]))
	})
	return e, err
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
	removed := false
	err := r.service.write(ctx, func(tables map[string][]row) error {
		rows := tables[r.desc.Table]
		for i, rw := range rows {
			if equalValues(rw[r.desc.PK], id.Value()) {
				tables[r.desc.Table] = append(rows[:i:i], rows[i+1:]...)
				removed = true
				return nil
			}
		}
		return nil
	})
	return removed, err
}

// RemoveAll deletes every row matching filter and reports whether any row
// was deleted. A second identical call returns false without error.
func (r *Repository[T]) RemoveAll(ctx context.Context, filter querystore.Filter) (bool, error) {
	removed := false
	err := r.service.write(ctx, func(tables map[string][]row) error {
		kept := tables[r.desc.Table][:0:0]
		for _, rw := range tables[r.desc.Table] {
			ok, err := evalFilter(filter, rw)
			if err != nil {
				return err
			}
			if ok {
				removed = true
				continue
			}
			kept = append(kept, rw)
		}
		tables[r.desc.Table] = kept
		return nil
	})
	return removed, err
}

// Transactional runs fn inside the service's snapshot transaction.
func (r *Repository[T]) Transactional(ctx context.Context, fn func(context.Context) error) error {
	return r.service.Transactional(ctx, fn)
}

// Row helpers

func (r *Repository[T]) matchingRows(ctx context.Context, filter querystore.Filter, srt querystore.Sort) ([]row, error) {
	var matched []row
	err := r.service.read(ctx, func(tables map[string][]row) error {
		for _, rw := range tables[r.desc.Table] {
			ok, err := evalFilter(filter, rw)
			if err != nil {
				return err
			}
			if ok {
				matched = append(matched, rw)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRows(matched, srt)
	return matched, nil
}

func sortRows(rows []row, srt querystore.Sort) {
	if len(srt) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range srt {
			c, ok := compareValues(rows[i][o.Field], rows[j][o.Field])
			if !ok || c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func pageSlice[E any](all []E, offset, size int) []E {
	if offset >= len(all) {
		return []E{}
	}
	end := offset + size
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func distinctKey(rw row, fields querystore.Fields) string {
	var b []byte
	for _, f := range fields {
		b = fmt.Appendf(b, "%v\x00", rw[f])
	}
	return string(b)
}

func (r *Repository[T]) materialize(rw row, fields querystore.Fields, out *T) error {
	if !fields.IsAll() {
		projected := make(row, len(fields))
		for _, f := range fields {
			if v, ok := rw[f]; ok {
				projected[f] = v
			}
		}
		rw = projected
	}
	return r.desc.Scan(rw, out)
}

func (r *Repository[T]) materializeAll(rows []row, fields querystore.Fields) ([]T, error) {
	out := make([]T, len(rows))
	for i, rw := range rows {
		if err := r.materialize(rw, fields, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
