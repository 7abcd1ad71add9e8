package sqlerr

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Classify walks the error chain and returns the Kind of the first
// recognized driver error.
//
// Order matters:
//   - context errors first, they are wrapped by both drivers
//   - Postgres server errors (SQLSTATE)
//   - Postgres connect errors
//   - MySQL server errors (error number)
//   - generic network errors
func Classify(err error) Kind {
	if err == nil {
		return Other
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Canceled
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapSQLState(pgErr.Code)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		// Authentication failures surface as ConnectError wrapping a PgError,
		// which the PgError branch above already caught.
		return Connection
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return MapMySQLNumber(myErr.Number)
	}

	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return Connection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout
		}
		return Connection
	}

	return Other
}

// MapSQLState maps a Postgres SQLSTATE code to a Kind.
//
// Reference: https://www.postgresql.org/docs/current/errcodes-appendix.html
func MapSQLState(code string) Kind {
	switch code {
	case "28000", "28P01":
		return Auth
	case "42501":
		return Auth
	case "42601":
		return Syntax
	case "42P01", "42703", "42883", "3D000":
		return UndefinedObject
	case "57014":
		return Canceled
	}

	switch {
	case strings.HasPrefix(code, "08"):
		return Connection
	case strings.HasPrefix(code, "22"):
		return InvalidInput
	case strings.HasPrefix(code, "42"):
		return Syntax
	}

	return Other
}

// MapMySQLNumber maps a MySQL server error number to a Kind.
//
// Reference: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func MapMySQLNumber(number uint16) Kind {
	switch number {
	case 1044, 1045, 1142, 1143:
		return Auth
	case 1064, 1149:
		return Syntax
	case 1049, 1054, 1146:
		return UndefinedObject
	case 1292, 1366, 1411:
		return InvalidInput
	case 1317:
		return Canceled
	case 1205, 3024:
		return Timeout
	case 1040, 1053, 1152, 1153, 1158, 1159, 1160, 1161:
		return Connection
	}
	return Other
}
