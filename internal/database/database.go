package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registered database/sql drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Driver names accepted in configuration.
const (
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// Queryer is the minimal query interface the SQL sources depend on. Both
// *sql.DB and *sql.Tx satisfy it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options configures Open.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	PingTimeout  time.Duration
	Logger       *slog.Logger
}

// Open opens and pings a connection pool.
func Open(ctx context.Context, opts Options) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	if opts.DSN == "" {
		return nil, Dialect{}, fmt.Errorf("database dsn is required for driver %q", opts.Driver)
	}

	driver := opts.Driver
	if dialect.Name == Postgres.Name {
		driver = DriverPostgres
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("opening %s connection: %w", dialect.Name, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	db.SetConnMaxLifetime(10 * time.Minute)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("pinging %s database: %w", dialect.Name, err)
	}

	if opts.Logger != nil {
		opts.Logger.Debug("database connected", slog.String("dialect", dialect.Name))
	}

	return db, dialect, nil
}
