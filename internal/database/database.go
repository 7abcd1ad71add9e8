// Package database contains the logic for establishing
// connections to the report database.
//
// It handles:
//   - building a DSN from config for Postgres (pgx) or MySQL (go-sql-driver)
//   - creating the connection pool (pgxpool or database/sql)
//   - handing out scoped connections through a small driver-neutral interface
//   - wiring query tracing/logging (pgx tracelog) and New Relic (nrpgx5)
//   - the SQL dialects and predicate builder used by repositories
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/config"
	loggerConfig "github.com/deppfellow/cohorts-heatmap/internal/logger"
	"github.com/go-sql-driver/mysql"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// Database wraps the connection pool of the configured driver.
//
// Exactly one of pool / sqlDB is set.
type Database struct {
	pool    *pgxpool.Pool
	sqlDB   *sql.DB
	dialect Dialect
	log     *zerolog.Logger
}

// multiTracer allows chaining multiple pgx tracers.
//
// pgx supports a single Tracer in ConnConfig; this adapter fans out to
// every tracer that implements the query start/end hooks.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout is the number of seconds to wait for the boot ping.
const DatabasePingTimeout = 10

// New creates the connection pool for cfg.Database.Driver and pings it.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	var (
		database *Database
		err      error
	)

	switch cfg.Database.Driver {
	case config.DriverMySQL:
		database, err = newMySQL(cfg, logger)
	default:
		database, err = newPostgres(cfg, logger, loggerService)
	}
	if err != nil {
		return nil, err
	}

	// Ping the DB with a timeout, so startup fails fast if DB is down.
	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err = database.Ping(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("driver", database.dialect.Name()).
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Msg("connected to the database")

	return database, nil
}

// PostgresDSN builds the postgres:// URL for cfg.
// The password is URL-escaped so characters like ':' or '@' cannot break it.
func PostgresDSN(cfg config.DatabaseConfig) string {
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.EffectivePort()))

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		hostPort,
		cfg.Name,
		cfg.SSLMode,
	)
}

// MySQLDSN builds the go-sql-driver DSN for cfg.
//
// ParseTime makes DATE columns scan into time.Time like they do with pgx.
func MySQLDSN(cfg config.DatabaseConfig) string {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.User
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.EffectivePort()))
	mysqlCfg.DBName = cfg.Name
	mysqlCfg.ParseTime = true
	return mysqlCfg.FormatDSN()
}

func newPostgres(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(PostgresDSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxConns)
	pgxPoolConfig.MinConns = int32(cfg.Database.MinConns)
	pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second

	// New Relic PostgreSQL instrumentation, only when an app instance exists.
	if loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// In local env, log every SQL statement. Too noisy anywhere else.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &Database{pool: pool, dialect: Postgres, log: logger}, nil
}

func newMySQL(cfg *config.Config, logger *zerolog.Logger) (*Database, error) {
	db, err := sql.Open("mysql", MySQLDSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql pool: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)

	return &Database{sqlDB: db, dialect: MySQL, log: logger}, nil
}

// Dialect returns the SQL dialect of the underlying driver.
func (db *Database) Dialect() Dialect {
	return db.dialect
}

// Acquire checks out one connection from the pool. The caller owns it
// until Release is called.
func (db *Database) Acquire(ctx context.Context) (Conn, error) {
	if db.pool != nil {
		conn, err := db.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return &pgxConn{conn: conn}, nil
	}

	conn, err := db.sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn, log: db.log}, nil
}

// Ping verifies connectivity.
func (db *Database) Ping(ctx context.Context) error {
	if db.pool != nil {
		return db.pool.Ping(ctx)
	}
	return db.sqlDB.PingContext(ctx)
}

// Close closes the pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	if db.pool != nil {
		db.pool.Close()
		return nil
	}
	return db.sqlDB.Close()
}
