// internal/spa/resolver.go
//
// Static asset and single-page-app fallback resolver.
//
/*
Context
--------
Every path that is not a health probe or /metrics ends up here.  Resolve
decides, in this order:

  1. Decode the path twice, so `%252e%252e` becomes `..`.
  2. `..` or `\` anywhere in the decoded path → Rejected (400).
  3. `api/` prefix → NotFound (404).  API clients never receive HTML.
  4. Empty path → `index.html`.
  5. `<root>/<path>` is a regular file inside the root → File (200).
     The root is the static dir for `static/…` and the build dir otherwise.
  6. `<build>/index.html` is a regular file → Index (200).
  7. Otherwise → Unavailable (503).

Step 5 also canonicalises the candidate: the cleaned path, and its
symlink-resolved form when the file exists, must stay beneath the root.
Stat errors in steps 5 and 6 are logged at DEBUG and treated as "not
here"; they never escape Resolve.

Notes
-----
  • Resolve only sees the path component.  Query strings never reach it.
  • The Resolver is immutable after New and safe for concurrent use.
  • Oxford commas, two spaces after periods.
*/
package spa

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/requestinfo"
)

const (
	IndexFile    = "index.html"
	APIPrefix    = "api/"
	StaticPrefix = "static/"
)

// ErrBuildDirMissing aborts startup in the production profile.
var ErrBuildDirMissing = errors.New("spa: frontend build directory not found")

/*──────────────────────────── outcomes ─────────────────────────────────────*/

// Kind enumerates the mutually exclusive resolution outcomes.
type Kind int

const (
	KindFile Kind = iota + 1
	KindIndex
	KindRejected
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindIndex:
		return "index"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Resolution is the outcome for one request path.
type Resolution struct {
	Kind   Kind
	File   string // absolute path; set for KindFile and KindIndex
	Reason string // set for KindRejected
}

/*──────────────────────────── resolver ─────────────────────────────────────*/

// Options configures New.
type Options struct {
	BuildDir  string
	StaticDir string // empty means <BuildDir>/static
	Profile   config.Profile
	Logger    *zap.SugaredLogger // nil means zap.S()
}

// Resolver maps request paths onto the asset bundle.
type Resolver struct {
	buildDir  string
	staticDir string
	log       *zap.SugaredLogger
}

// New checks the startup precondition and returns a Resolver.  A missing
// build directory is fatal in production and a warning otherwise; in the
// latter case every SPA route resolves to Unavailable until it appears.
func New(opts Options) (*Resolver, error) {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}

	build, err := filepath.Abs(opts.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("spa: build dir %q: %w", opts.BuildDir, err)
	}
	static := opts.StaticDir
	if static == "" {
		static = filepath.Join(build, "static")
	}
	if static, err = filepath.Abs(static); err != nil {
		return nil, fmt.Errorf("spa: static dir %q: %w", opts.StaticDir, err)
	}

	if info, err := os.Stat(build); err != nil || !info.IsDir() {
		if opts.Profile.IsProduction() {
			return nil, fmt.Errorf("%w: %s (build the frontend first)", ErrBuildDirMissing, build)
		}
		log.Warnw("frontend build directory not found, SPA routes will return 503",
			"build_dir", build, "profile", opts.Profile)
	}

	return &Resolver{buildDir: build, staticDir: static, log: log}, nil
}

// Resolve maps p, the request path without its leading slash, onto a
// Resolution.  ctx is only used to enrich security log lines.
func (rv *Resolver) Resolve(ctx context.Context, p string) Resolution {
	decoded := unquote(unquote(p))
	if strings.Contains(decoded, "..") || strings.Contains(decoded, `\`) {
		rv.security(ctx, "path traversal attempt blocked", p)
		return Resolution{Kind: KindRejected, Reason: "traversal sequence"}
	}

	if strings.HasPrefix(p, APIPrefix) {
		return Resolution{Kind: KindNotFound}
	}

	if p == "" {
		p = IndexFile
	}

	root, rel := rv.buildDir, p
	if strings.HasPrefix(p, StaticPrefix) {
		root, rel = rv.staticDir, strings.TrimPrefix(p, StaticPrefix)
	}

	candidate := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, candidate) {
		rv.security(ctx, "path outside asset root blocked", p)
		return Resolution{Kind: KindRejected, Reason: "outside asset root"}
	}

	switch found, escaped := rv.regularFile(root, candidate); {
	case escaped:
		rv.security(ctx, "symlink outside asset root blocked", p)
		return Resolution{Kind: KindRejected, Reason: "outside asset root"}
	case found:
		return Resolution{Kind: KindFile, File: candidate}
	}

	index := filepath.Join(rv.buildDir, IndexFile)
	if found, escaped := rv.regularFile(rv.buildDir, index); found && !escaped {
		return Resolution{Kind: KindIndex, File: index}
	}

	rv.log.Warnw("spa entry document unavailable",
		"path", p, "index", index)
	return Resolution{Kind: KindUnavailable}
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// regularFile reports whether candidate is a regular file, and whether its
// symlink-resolved location escapes root.  I/O errors count as not found.
func (rv *Resolver) regularFile(root, candidate string) (found, escaped bool) {
	info, err := os.Stat(candidate)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			rv.log.Debugw("file access error", "path", candidate, "err", err)
		}
		return false, false
	}
	if !info.Mode().IsRegular() {
		return false, false
	}

	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		rv.log.Debugw("file access error", "path", candidate, "err", err)
		return false, false
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		rv.log.Debugw("asset root access error", "root", root, "err", err)
		return false, false
	}
	if !within(realRoot, real) {
		return false, true
	}
	return true, false
}

// within reports whether path is root or lies beneath it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (rv *Resolver) security(ctx context.Context, msg, p string) {
	fields := append([]any{"path", p, "event", "security"},
		requestinfo.FromContext(ctx).LogFields()...)
	rv.log.Warnw(msg, fields...)
}

// unquote percent-decodes s.  Invalid escapes are kept literally, so a
// stray `%` never hides a valid sequence next to it.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func ishex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
