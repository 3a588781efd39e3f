// Package entity describes model types to the repository layer: table name,
// primary-key column, column list, row mapping, id generation and timestamp
// maintenance. Descriptors are built once by reflecting a struct's db tags
// and are read-only afterwards.
package entity

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"querystore"
)

// TableNamer lets a model override its default table name.
type TableNamer interface {
	TableName() string
}

const (
	defaultPKColumn = "id"
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Descriptor holds the mapping between one struct type and its table.
type Descriptor struct {
	// Name is the entity name (the struct type name).
	Name string

	// Table is the table name: snake_case plural of the struct name unless
	// the model implements TableNamer.
	Table string

	// PK is the primary-key column name. A field tagged `db:"col,pk"` marks
	// the key; otherwise the column named "id" is used.
	PK string

	// Type is the underlying struct type.
	Type reflect.Type

	// Columns lists the mapped columns in field declaration order.
	Columns []string

	// NewID generates a primary-key value assigned on Add when the key
	// field is zero. Nil disables generation.
	NewID func() any

	fieldIndex   map[string][]int
	pkField      []int
	createdField []int
	updatedField []int
}

// UUIDStrategy generates string UUIDs for primary keys.
func UUIDStrategy() any {
	return uuid.NewString()
}

// Describe builds a descriptor for the given model value or pointer.
func Describe(model any) (*Descriptor, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, querystore.NewValidationError("model must be a struct or pointer to struct")
	}

	d := &Descriptor{
		Name:       t.Name(),
		Type:       t,
		fieldIndex: make(map[string][]int),
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		col, pk, skip := parseTag(f)
		if skip {
			continue
		}
		d.Columns = append(d.Columns, col)
		d.fieldIndex[col] = f.Index
		if pk {
			d.PK = col
			d.pkField = f.Index
		}
		switch col {
		case createdAtColumn:
			d.createdField = f.Index
		case updatedAtColumn:
			d.updatedField = f.Index
		}
	}

	if len(d.Columns) == 0 {
		return nil, querystore.NewValidationErrorForField(d.Name, nil,
			"model has no mapped columns")
	}
	if d.PK == "" {
		idx, ok := d.fieldIndex[defaultPKColumn]
		if !ok {
			return nil, querystore.NewValidationErrorForField(d.Name, nil,
				"model has no primary key column")
		}
		d.PK = defaultPKColumn
		d.pkField = idx
	}

	d.Table = tableName(model, t)
	return d, nil
}

// parseTag reads a db struct tag: `db:"col"`, `db:"col,pk"`, `db:"-"`.
// An absent tag maps the field to its snake_case name.
func parseTag(f reflect.StructField) (column string, pk, skip bool) {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	column = parts[0]
	if column == "" {
		column = snakeCase(f.Name)
	}
	for _, opt := range parts[1:] {
		if opt == "pk" {
			pk = true
		}
	}
	return column, pk, false
}

func tableName(model any, t reflect.Type) string {
	if namer, ok := model.(TableNamer); ok {
		return namer.TableName()
	}
	// Try the pointer receiver too.
	if pv := reflect.New(t); pv.IsValid() {
		if namer, ok := pv.Interface().(TableNamer); ok {
			return namer.TableName()
		}
	}
	return pluralize(snakeCase(t.Name()))
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(name[i-1])
				if prev < 'A' || prev > 'Z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pluralize(name string) string {
	switch {
	case strings.HasSuffix(name, "y") && len(name) > 1 && !isVowel(name[len(name)-2]):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"),
		strings.HasSuffix(name, "z"), strings.HasSuffix(name, "ch"),
		strings.HasSuffix(name, "sh"):
		return name + "es"
	default:
		return name + "s"
	}
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// Guard validates that v (or the struct it points to) is exactly the
// descriptor's model type.
func (d *Descriptor) Guard(v any) error {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != d.Type {
		actual := "<nil>"
		if t != nil {
			actual = t.String()
		}
		return querystore.NewTypeGuardError(d.Type.String(), actual)
	}
	return nil
}

// structValue dereferences v down to its struct value.
func (d *Descriptor) structValue(v any) (reflect.Value, error) {
	if err := d.Guard(v); err != nil {
		return reflect.Value{}, err
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, querystore.NewValidationError("entity is nil")
		}
		rv = rv.Elem()
	}
	return rv, nil
}

// Values maps an entity to its column values.
func (d *Descriptor) Values(v any) (map[string]any, error) {
	rv, err := d.structValue(v)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(d.Columns))
	for _, col := range d.Columns {
		values[col] = rv.FieldByIndex(d.fieldIndex[col]).Interface()
	}
	return values, nil
}

// PKValue returns the entity's primary-key value.
func (d *Descriptor) PKValue(v any) (any, error) {
	rv, err := d.structValue(v)
	if err != nil {
		return nil, err
	}
	return rv.FieldByIndex(d.pkField).Interface(), nil
}

// PrepareInsert readies an entity for Add: assigns a generated id when the
// key field is zero and NewID is set, and stamps created_at/updated_at when
// those columns exist as time.Time fields. The argument must be a pointer
// to the entity.
func (d *Descriptor) PrepareInsert(ptr any, now time.Time) error {
	rv, err := d.structValue(ptr)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return querystore.NewValidationError("entity must be passed by pointer")
	}
	pk := rv.FieldByIndex(d.pkField)
	if d.NewID != nil && pk.IsZero() {
		id := reflect.ValueOf(d.NewID())
		if id.Type().AssignableTo(pk.Type()) {
			pk.Set(id)
		}
	}
	d.stamp(rv, d.createdField, now)
	d.stamp(rv, d.updatedField, now)
	return nil
}

// PrepareUpdate readies an entity for Update: re-stamps updated_at when the
// column exists. The argument must be a pointer to the entity.
func (d *Descriptor) PrepareUpdate(ptr any, now time.Time) error {
	rv, err := d.structValue(ptr)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return querystore.NewValidationError("entity must be passed by pointer")
	}
	d.stamp(rv, d.updatedField, now)
	return nil
}

func (d *Descriptor) stamp(rv reflect.Value, index []int, now time.Time) {
	if index == nil {
		return
	}
	f := rv.FieldByIndex(index)
	if f.Type() == reflect.TypeOf(time.Time{}) && f.CanSet() {
		f.Set(reflect.ValueOf(now))
	}
}

// Scan populates an entity from a column-value row. The argument must be a
// pointer to the entity. Values must be assignable or convertible to the
// field types.
func (d *Descriptor) Scan(row map[string]any, ptr any) error {
	rv, err := d.structValue(ptr)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return querystore.NewValidationError("entity must be passed by pointer")
	}
	for col, val := range row {
		index, ok := d.fieldIndex[col]
		if !ok || val == nil {
			continue
		}
		f := rv.FieldByIndex(index)
		vv := reflect.ValueOf(val)
		switch {
		case vv.Type().AssignableTo(f.Type()):
			f.Set(vv)
		case vv.Type().ConvertibleTo(f.Type()):
			f.Set(vv.Convert(f.Type()))
		default:
			return querystore.NewValidationErrorForField(col, val,
				"value of type "+vv.Type().String()+" not assignable to field")
		}
	}
	return nil
}
