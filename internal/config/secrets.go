// internal/config/secrets.go
//
// Vault-backed credential references.
//
// Context
// -------
// Any required credential whose value begins with `vault:` is a reference
// rather than a literal:
//
//	DB_PASSWORD=vault:secret/blog/db#password
//
// The part before `#` is the KV-v2 secret path (mount first), the part
// after it is the key inside that secret.  References are resolved through
// a SecretResolver after validation, so the DBSettings handed to callers
// only ever hold plain strings.
//
// Notes
// -----
//   - internal/vault.Client satisfies SecretResolver.
//   - A reference with no resolver configured is a configuration error.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const secretRefPrefix = "vault:"

// SecretResolver fetches one key from a secret store.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// ErrNoSecretResolver is returned when a `vault:` reference is found but no
// resolver was supplied.
var ErrNoSecretResolver = errors.New("config: secret reference without a secret resolver")

// parseSecretRef splits "vault:<path>#<key>".
func parseSecretRef(val string) (path, key string, ok bool) {
	if !strings.HasPrefix(val, secretRefPrefix) {
		return "", "", false
	}
	ref := strings.TrimPrefix(val, secretRefPrefix)
	path, key, found := strings.Cut(ref, "#")
	if !found || path == "" || key == "" {
		return "", "", false
	}
	return path, key, true
}

// resolveSecrets replaces every credential reference in s in place.
func resolveSecrets(ctx context.Context, s *DBSettings, v variant, r SecretResolver) error {
	fields := []struct {
		key string
		val *string
	}{
		{"db_name", &s.Name},
		{"db_user", &s.User},
		{"db_password", &s.Password},
	}

	for _, f := range fields {
		if !strings.HasPrefix(*f.val, secretRefPrefix) {
			continue
		}
		name := v.envName(f.key)
		path, key, ok := parseSecretRef(*f.val)
		if !ok {
			return fmt.Errorf("config: %s: malformed secret reference", name)
		}
		if r == nil {
			return fmt.Errorf("%w (%s)", ErrNoSecretResolver, name)
		}
		val, err := r.GetKV(ctx, path, key, 0)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		if val == "" {
			return &ValidationError{Fields: []string{name}}
		}
		*f.val = val
	}
	return nil
}
