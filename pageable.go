package querystore

// Pageable requests one page of results together with the filter, sort and
// projection to apply. Page numbers are 1-indexed. The zero values of
// Filter, Sort and Fields are no-ops, not errors.
type Pageable struct {
	// Number is the 1-indexed page number.
	Number int

	// Size is the page size; must be positive.
	Size int

	// Distinct, when non-empty, forces a DISTINCT projection and overrides
	// Fields.
	Distinct Fields

	Filter Filter
	Sort   Sort
	Fields Fields
}

// NewPageable creates a pageable for the given 1-indexed page and size.
func NewPageable(number, size int) *Pageable {
	return &Pageable{Number: number, Size: size}
}

// WithFilter returns a copy with the filter set.
func (p Pageable) WithFilter(f Filter) *Pageable {
	p.Filter = f
	return &p
}

// WithSort returns a copy with the sort set.
func (p Pageable) WithSort(s Sort) *Pageable {
	p.Sort = s
	return &p
}

// WithFields returns a copy with the projection set.
func (p Pageable) WithFields(fields ...string) *Pageable {
	p.Fields = Fields(fields)
	return &p
}

// WithDistinct returns a copy with the distinct projection set.
func (p Pageable) WithDistinct(fields ...string) *Pageable {
	p.Distinct = Fields(fields)
	return &p
}

// Offset returns the row offset of the requested page.
func (p Pageable) Offset() int {
	return (p.Number - 1) * p.Size
}

// Validate rejects non-positive page numbers and sizes.
func (p Pageable) Validate() error {
	if p.Number < 1 {
		return NewValidationErrorForField("number", p.Number, "page number must be >= 1")
	}
	if p.Size < 1 {
		return NewValidationErrorForField("size", p.Size, "page size must be >= 1")
	}
	return p.Filter.Validate()
}

// Page is one page of results plus paging totals.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	Number     int
	Size       int
	TotalPages int
}

// NewPage builds a page and computes TotalPages = ceil(total/size).
func NewPage[T any](items []T, total int64, number, size int) Page[T] {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Number:     number,
		Size:       size,
		TotalPages: totalPages,
	}
}

// SinglePage wraps a full result set as the degenerate no-pagination page:
// page 1 of 1 holding every row.
func SinglePage[T any](items []T) Page[T] {
	size := len(items)
	if size == 0 {
		size = 1
	}
	return Page[T]{
		Items:      items,
		TotalCount: int64(len(items)),
		Number:     1,
		Size:       size,
		TotalPages: 1,
	}
}

// HasNext reports whether a page after this one exists.
func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages
}

// IsEmpty reports whether the page holds no items.
func (p Page[T]) IsEmpty() bool {
	return len(p.Items) == 0
}
