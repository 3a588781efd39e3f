package sqlstore

import (
	"fmt"
	"sort"
	"strings"
)

// Connector is the boolean connective joining a condition to the WHERE
// clause built so far.
type Connector string

const (
	ConnectorAnd    Connector = "AND"
	ConnectorAndNot Connector = "AND NOT"
	ConnectorOr     Connector = "OR"
)

// Condition is one WHERE predicate. Value holds a scalar for comparison
// operators, a [2]any for BETWEEN/NOT BETWEEN and a []any for IN/NOT IN.
type Condition struct {
	Column    string
	Operator  string
	Value     any
	Connector Connector
}

// OrderBy is one ORDER BY directive.
type OrderBy struct {
	Column    string
	Direction string
}

// QueryBuilder assembles SELECT, COUNT, DELETE, INSERT and UPDATE statements
// for a single table. Placeholders are '?'; callers rebind per driver before
// execution.
type QueryBuilder struct {
	table    string
	columns  []string
	distinct bool
	where    []Condition
	orderBy  []OrderBy
	limit    *int
	offset   *int
}

// NewQueryBuilder creates a builder selecting all columns of table.
func NewQueryBuilder(table string) *QueryBuilder {
	return &QueryBuilder{table: table, columns: []string{"*"}}
}

// Select sets the projected columns.
func (qb *QueryBuilder) Select(columns ...string) *QueryBuilder {
	if len(columns) > 0 {
		qb.columns = columns
	}
	return qb
}

// Distinct forces a DISTINCT projection. Non-empty columns override the
// current column list.
func (qb *QueryBuilder) Distinct(columns ...string) *QueryBuilder {
	qb.distinct = true
	if len(columns) > 0 {
		qb.columns = columns
	}
	return qb
}

// Where appends a scalar comparison predicate with the given connective.
func (qb *QueryBuilder) Where(column, operator string, value any, connector Connector) *QueryBuilder {
	qb.where = append(qb.where, Condition{Column: column, Operator: operator, Value: value, Connector: connector})
	return qb
}

// WhereBetween appends a closed-interval predicate.
func (qb *QueryBuilder) WhereBetween(column string, from, to any, connector Connector) *QueryBuilder {
	qb.where = append(qb.where, Condition{Column: column, Operator: "BETWEEN", Value: [2]any{from, to}, Connector: connector})
	return qb
}

// WhereNotBetween appends a negated-interval predicate.
func (qb *QueryBuilder) WhereNotBetween(column string, from, to any, connector Connector) *QueryBuilder {
	qb.where = append(qb.where, Condition{Column: column, Operator: "NOT BETWEEN", Value: [2]any{from, to}, Connector: connector})
	return qb
}

// WhereIn appends a membership predicate.
func (qb *QueryBuilder) WhereIn(column string, values []any, connector Connector) *QueryBuilder {
	qb.where = append(qb.where, Condition{Column: column, Operator: "IN", Value: values, Connector: connector})
	return qb
}

// WhereNotIn appends a negated membership predicate.
func (qb *QueryBuilder) WhereNotIn(column string, values []any, connector Connector) *QueryBuilder {
	qb.where = append(qb.where, Condition{Column: column, Operator: "NOT IN", Value: values, Connector: connector})
	return qb
}

// OrderBy appends an ORDER BY directive; call order is precedence order.
func (qb *QueryBuilder) OrderBy(column string, desc bool) *QueryBuilder {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	qb.orderBy = append(qb.orderBy, OrderBy{Column: column, Direction: direction})
	return qb
}

// Limit caps the number of returned rows.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.limit = &limit
	return qb
}

// Offset skips the given number of rows.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.offset = &offset
	return qb
}

func renderCondition(c Condition) (string, []any) {
	switch c.Operator {
	case "BETWEEN", "NOT BETWEEN":
		bounds := c.Value.([2]any)
		return fmt.Sprintf("%s %s ? AND ?", c.Column, c.Operator), []any{bounds[0], bounds[1]}
	case "IN":
		values := c.Value.([]any)
		if len(values) == 0 {
			return "1=0", nil
		}
		return fmt.Sprintf("%s IN (%s)", c.Column, placeholders(len(values))), values
	case "NOT IN":
		values := c.Value.([]any)
		if len(values) == 0 {
			return "1=1", nil
		}
		return fmt.Sprintf("%s NOT IN (%s)", c.Column, placeholders(len(values))), values
	default:
		return fmt.Sprintf("%s %s ?", c.Column, c.Operator), []any{c.Value}
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// buildWhere renders the WHERE clause. The leading condition drops its
// connective, except that a leading AND NOT renders as NOT (...).
func (qb *QueryBuilder) buildWhere() (string, []any) {
	var parts []string
	var args []any
	for i, c := range qb.where {
		frag, fragArgs := renderCondition(c)
		connector := c.Connector
		if connector == "" {
			connector = ConnectorAnd
		}
		switch {
		case connector == ConnectorAndNot && i == 0:
			frag = "NOT (" + frag + ")"
		case connector == ConnectorAndNot:
			frag = "AND NOT (" + frag + ")"
		case i > 0:
			frag = string(connector) + " " + frag
		}
		parts = append(parts, frag)
		args = append(args, fragArgs...)
	}
	return strings.Join(parts, " "), args
}

func (qb *QueryBuilder) buildOrderBy() string {
	parts := make([]string, len(qb.orderBy))
	for i, ob := range qb.orderBy {
		parts[i] = ob.Column + " " + ob.Direction
	}
	return strings.Join(parts, ", ")
}

// Build assembles the SELECT statement and its arguments.
func (qb *QueryBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if qb.distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(qb.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(qb.table)

	var args []any
	if len(qb.where) > 0 {
		whereSQL, whereArgs := qb.buildWhere()
		sb.WriteString(" WHERE ")
		sb.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}
	if len(qb.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(qb.buildOrderBy())
	}
	if qb.limit != nil {
		sb.WriteString(" LIMIT ?")
		args = append(args, *qb.limit)
	}
	if qb.offset != nil {
		sb.WriteString(" OFFSET ?")
		args = append(args, *qb.offset)
	}
	return sb.String(), args
}

// BuildCount assembles a COUNT statement over the same WHERE clause,
// ignoring ordering and paging. A DISTINCT projection counts distinct rows
// through a subquery so the statement works across drivers.
func (qb *QueryBuilder) BuildCount() (string, []any) {
	whereSQL, args := qb.buildWhere()
	if qb.distinct {
		inner := "SELECT DISTINCT " + strings.Join(qb.columns, ", ") + " FROM " + qb.table
		if whereSQL != "" {
			inner += " WHERE " + whereSQL
		}
		return "SELECT COUNT(*) FROM (" + inner + ") AS distinct_rows", args
	}
	query := "SELECT COUNT(*) FROM " + qb.table
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	return query, args
}

// BuildDelete assembles a DELETE statement over the same WHERE clause.
func (qb *QueryBuilder) BuildDelete() (string, []any) {
	query := "DELETE FROM " + qb.table
	if len(qb.where) > 0 {
		whereSQL, args := qb.buildWhere()
		return query + " WHERE " + whereSQL, args
	}
	return query, nil
}

// BuildInsert assembles an INSERT statement for the given column values.
// Columns are emitted in sorted order so statements are deterministic.
func (qb *QueryBuilder) BuildInsert(values map[string]any) (string, []any) {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	args := make([]any, len(columns))
	for i, col := range columns {
		args[i] = values[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qb.table, strings.Join(columns, ", "), placeholders(len(columns)))
	return query, args
}

// BuildUpdate assembles an UPDATE statement setting the given column values
// over the same WHERE clause. Set columns are emitted in sorted order.
func (qb *QueryBuilder) BuildUpdate(set map[string]any) (string, []any) {
	columns := make([]string, 0, len(set))
	for col := range set {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setParts := make([]string, len(columns))
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		setParts[i] = col + " = ?"
		args = append(args, set[col])
	}
	query := fmt.Sprintf("UPDATE %s SET %s", qb.table, strings.Join(setParts, ", "))
	if len(qb.where) > 0 {
		whereSQL, whereArgs := qb.buildWhere()
		query += " WHERE " + whereSQL
		args = append(args, whereArgs...)
	}
	return query, args
}
