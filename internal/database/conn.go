package database

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Conn is a connection checked out of the pool for one operation.
//
// Release must be called exactly once; the connection must not be used after.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Release()
}

// Rows is the subset of a result set repositories iterate over.
// pgx.Rows satisfies it directly.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Acquirer hands out scoped connections. *Database implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (Conn, error)
	Dialect() Dialect
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

type sqlConn struct {
	conn *sql.Conn
	log  *zerolog.Logger
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

// Release returns the connection to the database/sql pool.
func (c *sqlConn) Release() {
	if err := c.conn.Close(); err != nil {
		c.log.Warn().Err(err).Msg("failed to return connection to pool")
	}
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Err() error             { return r.rows.Err() }
func (r *sqlRows) Close()                 { _ = r.rows.Close() }
