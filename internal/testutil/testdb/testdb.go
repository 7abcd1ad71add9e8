//go:build testutil
// +build testutil

// Package testdb starts a throwaway Postgres for integration tests and
// applies the embedded migrations to it.
package testdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/config"
	"github.com/deppfellow/cohorts-heatmap/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "cohorts"
	dbUser     = "report"
	dbPassword = "report"
)

// Handle owns the container, the application pool and a seeding connection.
type Handle struct {
	DB     *database.Database
	Config *config.Config

	seed   *pgx.Conn
	cancel func()
	stop   func(context.Context) error
}

func (h *Handle) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if h.seed != nil {
		_ = h.seed.Close(ctx)
	}
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Exec runs a seeding statement outside the application pool.
func (h *Handle) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := h.seed.Exec(ctx, sql, args...)
	return err
}

// Count returns the row count of table.
func (h *Handle) Count(ctx context.Context, table string) (int, error) {
	var n int
	err := h.seed.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n)
	return n, err
}

func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	fail := func(err error) (*Handle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	seed, err := waitReady(ctx, dsn)
	if err != nil {
		return fail(err)
	}

	logger := zerolog.Nop()
	if err := database.MigrateDSN(ctx, &logger, dsn); err != nil {
		_ = seed.Close(ctx)
		return fail(fmt.Errorf("migrate: %w", err))
	}

	host, err := pg.Host(ctx)
	if err != nil {
		_ = seed.Close(ctx)
		return fail(err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = seed.Close(ctx)
		return fail(err)
	}

	cfg := config.Default()
	cfg.Primary.Env = "test"
	cfg.Database.Host = host
	cfg.Database.Port = port.Int()
	cfg.Database.User = dbUser
	cfg.Database.Password = dbPassword
	cfg.Database.Name = dbName

	db, err := database.New(cfg, &logger, nil)
	if err != nil {
		_ = seed.Close(ctx)
		return fail(err)
	}

	return &Handle{
		DB:     db,
		Config: cfg,
		seed:   seed,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// waitReady retries until Postgres accepts connections; the container
// restarts the server once after init.
func waitReady(ctx context.Context, dsn string) (*pgx.Conn, error) {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		conn, err := pgx.Connect(ctx, dsn)
		if err == nil {
			if err = conn.Ping(ctx); err == nil {
				return conn, nil
			}
			_ = conn.Close(ctx)
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, errors.New("db not ready")
}
