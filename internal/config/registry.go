// internal/config/registry.go
//
// Settings Registry: profile → DBSettings resolution and its memo.
//
// Context
// -------
// `Resolve` is the uncached path: pick the variant for the profile hint,
// read its namespace, validate, and resolve secret references.
//
// `Registry` is the process-scoped handle created once in cmd/web and
// passed to the storage pool.  It memoises the first successful resolution
// in an atomic.Pointer; concurrent first callers collapse into a single
// resolution through singleflight.  Failures are never memoised, so a
// later call retries.  Tests call `Reset` to force re-resolution.
//
// Notes
// -----
//   - The profile is fixed when the Registry is built, normally from the
//     loaded host Config, so the host and its DB settings never disagree.
//   - Oxford commas, two spaces after periods.
package config

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

/*──────────────────────────── uncached resolve ────────────────────────────*/

// Resolve returns the DBSettings for hint.  An unknown or empty hint
// resolves to the production variant.  Missing required fields produce a
// *ValidationError naming each env var.
func Resolve(ctx context.Context, hint string, secrets SecretResolver) (*DBSettings, error) {
	v := variantFor(ParseProfile(hint))

	s, err := v.load()
	if err != nil {
		return nil, err
	}

	if err := validateStruct(s, v.envName); err != nil {
		return nil, err
	}

	if err := resolveSecrets(ctx, s, v, secrets); err != nil {
		return nil, err
	}
	return s, nil
}

/*──────────────────────────── memoised registry ───────────────────────────*/

// Registry memoises the active DBSettings for the process lifetime.  Zero
// value is usable and resolves the production variant without a secret
// resolver.
type Registry struct {
	profile Profile
	secrets SecretResolver
	sfg     singleflight.Group
	current atomic.Pointer[DBSettings]
}

// NewRegistry returns a Registry bound to profile that resolves secret
// references through secrets (may be nil).
func NewRegistry(profile Profile, secrets SecretResolver) *Registry {
	return &Registry{profile: profile, secrets: secrets}
}

// Profile is the profile the Registry resolves for.
func (r *Registry) Profile() Profile { return ParseProfile(string(r.profile)) }

// Settings returns the memoised DBSettings, resolving on first use.
func (r *Registry) Settings(ctx context.Context) (*DBSettings, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}

	val, err, _ := r.sfg.Do("settings", func() (any, error) {
		// Double-check after the singleflight barrier.
		if s := r.current.Load(); s != nil {
			return s, nil
		}
		s, err := Resolve(ctx, string(r.profile), r.secrets)
		if err != nil {
			zap.S().Errorw("db settings resolve failed", "err", err)
			return nil, err
		}
		r.current.Store(s)
		zap.S().Infow("db settings resolved",
			"profile", s.Profile,
			"host", s.Host,
			"name", s.Name,
		)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*DBSettings), nil
}

// ConnectionString returns the memoised settings' connection URI.
func (r *Registry) ConnectionString(ctx context.Context) (string, error) {
	s, err := r.Settings(ctx)
	if err != nil {
		return "", err
	}
	return s.ConnectionString(), nil
}

// Reset drops the memoised settings so the next call re-reads the
// environment.  database.Pool.Reset calls it.
func (r *Registry) Reset() { r.current.Store(nil) }
