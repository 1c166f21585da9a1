// internal/health/probe.go
//
// Liveness, storage, and external-dependency probes.
//
/*
Context
--------
Each probe answers one question and shares nothing with the others.  A
probe never retries, never caches, and never lets an error or panic reach
the caller: failures are logged at ERROR with the target and error text,
and the caller only ever sees a fixed token ("unreachable").

Notes
-----
  • Timeouts come from probes.db_timeout and probes.timeout.
  • Oxford commas, two spaces after periods.
*/
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/spahost/internal/metrics"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Result tokens.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	Connected   = "connected"
	Reachable   = "reachable"
	Unreachable = "unreachable"
)

/*──────────────────────────── report ───────────────────────────────────────*/

// Report is the outcome of one probe.  Key is the payload field naming the
// dependency ("database", "github"); it is empty for liveness.
type Report struct {
	Healthy bool
	Key     string
	State   string
}

// StatusCode maps the report onto 200 or 503.
func (r Report) StatusCode() int {
	if r.Healthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// Payload is the JSON body for the report.
func (r Report) Payload() map[string]string {
	status := StatusUnhealthy
	if r.Healthy {
		status = StatusHealthy
	}
	out := map[string]string{"status": status}
	if r.Key != "" {
		out[r.Key] = r.State
	}
	return out
}

// Probe is one mounted health check.  Name is the route segment under
// /health/.
type Probe interface {
	Name() string
	Check(ctx context.Context) Report
}

// Liveness reports that the process is serving.  It touches nothing.
func Liveness() Report {
	return Report{Healthy: true}
}

/*──────────────────────────── storage ──────────────────────────────────────*/

// Storage yields the lazily opened connection pool.
type Storage interface {
	Acquire(ctx context.Context) (*sqlx.DB, error)
}

// StorageProbe runs a trivial query against the pool.
type StorageProbe struct {
	Storage Storage
	Timeout time.Duration      // zero means DefaultTimeout
	Log     *zap.SugaredLogger // nil means zap.S()
}

func (p *StorageProbe) Name() string { return "db" }

// Check acquires the pool and runs SELECT 1 under p.Timeout.
func (p *StorageProbe) Check(ctx context.Context) (rep Report) {
	start := time.Now()
	rep = Report{Key: "database", State: Unreachable}
	defer func() {
		if rec := recover(); rec != nil {
			logger(p.Log).Errorw("database health check failed",
				"target", "database", "err", fmt.Errorf("panic: %v", rec))
			rep = Report{Key: "database", State: Unreachable}
		}
		observe(p.Name(), rep, start)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeoutOr(p.Timeout))
	defer cancel()

	if err := p.ping(ctx); err != nil {
		logger(p.Log).Errorw("database health check failed",
			"target", "database", "err", err)
		return rep
	}
	return Report{Healthy: true, Key: "database", State: Connected}
}

func (p *StorageProbe) ping(ctx context.Context) error {
	if p.Storage == nil {
		return errors.New("no storage configured")
	}
	db, err := p.Storage.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	var one int
	if err := db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("select 1: %w", err)
	}
	return nil
}

/*──────────────────────────── external ─────────────────────────────────────*/

// DefaultExternalURL is the status endpoint probed when none is configured.
const DefaultExternalURL = "https://api.github.com/rate_limit"

// ExternalProbe issues a GET to a fixed status URL.  Any 2xx is reachable.
type ExternalProbe struct {
	Service string       // payload key and route segment, e.g. "github"
	URL     string       // status endpoint
	Client  *http.Client // nil means a plain client
	Timeout time.Duration
	Log     *zap.SugaredLogger
}

func (p *ExternalProbe) Name() string { return p.Service }

// Check performs the GET under p.Timeout.
func (p *ExternalProbe) Check(ctx context.Context) (rep Report) {
	start := time.Now()
	rep = Report{Key: p.Service, State: Unreachable}
	defer func() {
		if rec := recover(); rec != nil {
			logger(p.Log).Errorw("external health check failed",
				"target", p.URL, "service", p.Service, "err", fmt.Errorf("panic: %v", rec))
			rep = Report{Key: p.Service, State: Unreachable}
		}
		observe(p.Name(), rep, start)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeoutOr(p.Timeout))
	defer cancel()

	if err := p.get(ctx); err != nil {
		logger(p.Log).Errorw("external health check failed",
			"target", p.URL, "service", p.Service, "err", err)
		return rep
	}
	return Report{Healthy: true, Key: p.Service, State: Reachable}
}

func (p *ExternalProbe) get(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spahost-health")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

func logger(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.S()
	}
	return l
}

func observe(probe string, rep Report, start time.Time) {
	result := StatusUnhealthy
	if rep.Healthy {
		result = StatusHealthy
	}
	metrics.ProbeResults.WithLabelValues(probe, result).Inc()
	metrics.ProbeDuration.WithLabelValues(probe).Observe(time.Since(start).Seconds())
}
