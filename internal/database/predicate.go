package database

import (
	"fmt"
	"strings"
)

// Operator is a comparison allowed in a Clause. Only the constants below are valid,
// so no caller-provided text ever reaches the SQL string.
type Operator string

const (
	OpEq  Operator = "="
	OpGte Operator = ">="
	OpLte Operator = "<="
)

func (o Operator) valid() bool {
	switch o {
	case OpEq, OpGte, OpLte:
		return true
	}
	return false
}

// Clause is one `column op value` condition. Column is trusted SQL written by the
// repository; Value is always sent as a bound parameter.
type Clause struct {
	Column string
	Op     Operator
	Value  any

	// AsText compares the column rendered as text, so the value is matched
	// literally instead of being cast to the column type.
	AsText bool
}

// Predicate is an ordered list of clauses joined with AND.
//
// The zero value is the always-true predicate. Absent filters are simply
// never added, so they cost nothing and never compare against NULL.
type Predicate struct {
	clauses []Clause
}

// Where starts an empty predicate.
func Where() *Predicate {
	return &Predicate{}
}

// And appends a clause and returns p for chaining.
func (p *Predicate) And(column string, op Operator, value any) *Predicate {
	p.clauses = append(p.clauses, Clause{Column: column, Op: op, Value: value})
	return p
}

// AndText appends a clause that compares the column as text.
func (p *Predicate) AndText(column string, op Operator, value any) *Predicate {
	p.clauses = append(p.clauses, Clause{Column: column, Op: op, Value: value, AsText: true})
	return p
}

// AndIf appends the clause only when value is non-nil. It is the usual
// way to turn an optional filter into a condition.
func (p *Predicate) AndIf(column string, op Operator, value *string) *Predicate {
	if value == nil {
		return p
	}
	return p.And(column, op, *value)
}

// Len returns the number of clauses.
func (p *Predicate) Len() int {
	return len(p.clauses)
}

// Compile renders the predicate for d. Placeholders are numbered from 1.
//
// Output always starts with "1=1" so it can be dropped straight after WHERE.
func (p *Predicate) Compile(d Dialect) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("1=1")

	args := make([]any, 0, len(p.clauses))
	for i, c := range p.clauses {
		if !c.Op.valid() {
			return "", nil, fmt.Errorf("predicate clause %d: unsupported operator %q", i, c.Op)
		}

		column := c.Column
		if c.AsText {
			column = d.AsText(column)
		}

		args = append(args, c.Value)
		fmt.Fprintf(&sb, " AND %s %s %s", column, c.Op, d.Placeholder(len(args)))
	}

	return sb.String(), args, nil
}
