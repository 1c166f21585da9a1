// internal/database/pool.go
//
// Lazy, process-scoped storage pool.
//
// Context
// -------
// The host does not need the database to start.  The first caller of
// `Acquire` resolves the DBSettings through the Settings Registry, opens
// and pings a pool, and memoises it; later callers reuse the same
// *sqlx.DB.  Concurrent first callers collapse into one open through
// singleflight.  A failed open (bad settings, unreachable server) is not
// memoised, so the next probe retries.  `Reset` drops the pool and, when
// the source supports it, the memoised settings, so the next Acquire
// starts from scratch.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/metrics"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("database: pool closed")

// SettingsSource yields the active database settings.  *config.Registry
// satisfies it.
type SettingsSource interface {
	Settings(ctx context.Context) (*config.DBSettings, error)
}

type openFunc func(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error)

// Pool is safe for concurrent use.  Zero value is invalid; use NewPool.
type Pool struct {
	settings SettingsSource
	opts     Options
	open     openFunc

	sfg    singleflight.Group
	mu     sync.RWMutex
	db     *sqlx.DB
	closed bool
}

// NewPool returns a Pool that opens lazily with opts.
func NewPool(settings SettingsSource, opts Options) *Pool {
	return &Pool{settings: settings, opts: opts, open: OpenWithOptions}
}

// Acquire returns the shared *sqlx.DB, opening it on first use.
func (p *Pool) Acquire(ctx context.Context) (*sqlx.DB, error) {
	if db, err := p.current(); db != nil || err != nil {
		return db, err
	}

	v, err, _ := p.sfg.Do("pool", func() (any, error) {
		// Double-check after singleflight barrier.
		if db, err := p.current(); db != nil || err != nil {
			return db, err
		}

		s, err := p.settings.Settings(ctx)
		if err != nil {
			return nil, fmt.Errorf("database: settings: %w", err)
		}

		db, err := p.open(ctx, s.DSN(), p.opts)
		if err != nil {
			metrics.StoreOpenErrorsTotal.Inc()
			return nil, fmt.Errorf("database: open %s: %w", s.Host, err)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			_ = db.Close()
			return nil, ErrClosed
		}
		p.db = db
		zap.S().Infow("database pool online", "host", s.Host, "name", s.Name)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

func (p *Pool) current() (*sqlx.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.db, nil
}

// Reset closes the current pool and clears the settings memo of sources
// that have a Reset method (*config.Registry does).  Unlike Close, the
// Pool stays usable.  Intended for tests.
func (p *Pool) Reset() error {
	if r, ok := p.settings.(interface{ Reset() }); ok {
		r.Reset()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// Close releases the pool.  Subsequent Acquire calls fail with ErrClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
