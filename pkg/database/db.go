package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB is the capability both sides of the migration consume: parameterized
// queries with positional binds over a thread-safe connection pool.
type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	PingContext(ctx context.Context) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Rebind(query string) string
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	SetConnMaxLifetime(d time.Duration)
	SetMaxIdleConns(n int)
	SetMaxOpenConns(n int)
	Unsafe() *sqlx.DB
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// ConnectOptions holds pool sizing for a connection.
type ConnectOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens a connection pool for the given driver ("mysql" or
// "postgres") and verifies it with a ping.
func Connect(ctx context.Context, driver, url string, opts ConnectOptions, logger ectologger.Logger) (DB, error) {
	driverName, dsn, err := normalizeDriver(driver, url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("driver", driverName).Error("Failed to connect to database")
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	logger.WithContext(ctx).WithField("driver", driverName).Info("Database connection established")
	return NewDatabaseInstance(db, logger), nil
}

func normalizeDriver(driver, url string) (string, string, error) {
	switch driver {
	case "mysql":
		return "mysql", url, nil
	case "postgres", "postgresql":
		return "postgres", url, nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", driver)
	}
}

// IsNoRows reports whether err is the sqlx "no rows" sentinel. Repositories
// use it to map an empty result to nil rather than an error.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
