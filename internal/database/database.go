// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also works with MariaDB as shipped by most
// shared-hosting panels.
//
// Public entry points:
//
//	Open(ctx, dsn)                    – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)   – fine-grained control.
//	NewPool(settings, opts)           – lazy, memoised pool over the Settings Registry.
//
// The Open helpers Ping the database before returning so callers can fail
// fast.  Callers should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DriverName is the database/sql driver every pool uses.
const DriverName = "mysql"

// Options tunes a pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions is sized for a single shared-hosting process: 5 open,
// 2 idle, and a 30-minute connection lifetime.
var DefaultOptions = Options{
	MaxOpenConns:    5,
	MaxIdleConns:    2,
	ConnMaxLifetime: 30 * time.Minute,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens, tunes, and pings a pool.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
