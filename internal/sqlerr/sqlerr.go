// Package sqlerr specifically handles database driver errors.
//
// It inspects errors coming from the Postgres (pgx/pgconn) and MySQL
// drivers, plus the network and context errors they wrap, and reduces
// them to a small set of kinds. Kinds are used as log fields and metric
// labels; they never change the HTTP status of a response.
package sqlerr

// Kind is a coarse category of database failure.
type Kind string

const (
	// Connection covers refused/reset connections and dial failures.
	Connection Kind = "connection"
	// Auth covers invalid credentials or missing database privileges.
	Auth Kind = "auth"
	// Syntax covers malformed SQL.
	Syntax Kind = "syntax"
	// UndefinedObject covers missing tables, columns or databases.
	UndefinedObject Kind = "undefined_object"
	// InvalidInput covers values the database refused to convert (bad date text, etc.).
	InvalidInput Kind = "invalid_input"
	// Canceled covers queries canceled by the client or server.
	Canceled Kind = "canceled"
	// Timeout covers deadline expiry.
	Timeout Kind = "timeout"
	// Other is everything that could not be classified.
	Other Kind = "other"
)

func (k Kind) String() string { return string(k) }
