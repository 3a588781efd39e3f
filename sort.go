package querystore

// Order defines ordering on a single field.
type Order struct {
	Field string
	Desc  bool
}

// Sort is an ordered sequence of orderings. Insertion order is the applied
// precedence order: the first entry is the primary sort key.
type Sort []Order

// Asc creates an ascending order on a field.
func Asc(field string) Order {
	return Order{Field: field}
}

// Desc creates a descending order on a field.
func Desc(field string) Order {
	return Order{Field: field, Desc: true}
}

// SortBy builds a Sort from orderings in precedence order.
func SortBy(orders ...Order) Sort {
	return Sort(orders)
}

// Fields is a projection: the set of columns to select. An empty Fields
// means "all columns".
type Fields []string

// IsAll reports whether the projection selects every column.
func (f Fields) IsAll() bool {
	return len(f) == 0
}
