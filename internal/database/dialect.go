package database

import "strconv"

// Dialect captures the few SQL differences between supported drivers.
type Dialect interface {
	// Name is the driver name ("postgres", "mysql").
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string
	// AsText renders expr as a text-typed expression.
	AsText(expr string) string
}

var (
	Postgres Dialect = postgresDialect{}
	MySQL    Dialect = mysqlDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string              { return "postgres" }
func (postgresDialect) Placeholder(n int) string  { return "$" + strconv.Itoa(n) }
func (postgresDialect) AsText(expr string) string { return expr + "::text" }

type mysqlDialect struct{}

func (mysqlDialect) Name() string              { return "mysql" }
func (mysqlDialect) Placeholder(int) string    { return "?" }
func (mysqlDialect) AsText(expr string) string { return "CAST(" + expr + " AS CHAR)" }
