package spa

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/requestinfo"
)

const indexHTML = `<!doctype html><html><body><div id="root"></div></body></html>`

// newBundle lays out a minimal frontend build and returns its directory.
func newBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":        indexHTML,
		"favicon.ico":       "ico",
		"manifest.json":     `{"name":"blog"}`,
		"static/js/main.js": "console.log('main')",
		"static/css/a.css":  "body{}",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newResolver(t *testing.T, opts Options) (*Resolver, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts.Logger = zap.New(core).Sugar()
	if opts.Profile == "" {
		opts.Profile = config.Development
	}
	rv, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rv, logs
}

func TestResolve_Outcomes(t *testing.T) {
	build := newBundle(t)
	rv, _ := newResolver(t, Options{BuildDir: build})

	cases := []struct {
		path string
		kind Kind
		file string
	}{
		{"", KindFile, "index.html"},
		{"index.html", KindFile, "index.html"},
		{"favicon.ico", KindFile, "favicon.ico"},
		{"static/js/main.js", KindFile, "static/js/main.js"},
		{"posts/my-first-post", KindIndex, "index.html"},
		{"about", KindIndex, "index.html"},
		{"posts/", KindIndex, "index.html"},
		{"static", KindIndex, "index.html"},
		{"static/js/missing.js", KindIndex, "index.html"},
		{"api/users", KindNotFound, ""},
		{"api/", KindNotFound, ""},
		{"apiary", KindIndex, "index.html"},
	}
	for _, tc := range cases {
		got := rv.Resolve(context.Background(), tc.path)
		if got.Kind != tc.kind {
			t.Errorf("Resolve(%q) kind = %v, want %v", tc.path, got.Kind, tc.kind)
			continue
		}
		if tc.file != "" {
			want := filepath.Join(build, filepath.FromSlash(tc.file))
			if got.File != want {
				t.Errorf("Resolve(%q) file = %q, want %q", tc.path, got.File, want)
			}
		}
	}
}

func TestResolve_RejectsTraversal(t *testing.T) {
	rv, _ := newResolver(t, Options{BuildDir: newBundle(t)})

	paths := []string{
		"../etc/passwd",
		"../../etc/passwd",
		"posts/../../secret",
		"posts/..",
		"%2e%2e/etc/passwd",
		"%2E%2E%2Fetc%2Fpasswd",
		"%252e%252e/etc/passwd",
		"%252e%252e%252fetc%252fpasswd",
		"static/../../x",
		`foo\bar`,
		"foo%5cbar",
		"foo%255cbar",
		"file..txt",
		"api/../admin",
	}
	for _, p := range paths {
		if got := rv.Resolve(context.Background(), p); got.Kind != KindRejected {
			t.Errorf("Resolve(%q) = %v, want rejected", p, got.Kind)
		}
	}
}

func TestResolve_TraversalLogsSecurityEvent(t *testing.T) {
	rv, logs := newResolver(t, Options{BuildDir: newBundle(t)})

	ctx := requestinfo.NewContext(context.Background(), &requestinfo.RequestInfo{ID: "req-1"})
	rv.Resolve(ctx, "%2e%2e/etc/passwd")

	entries := logs.FilterMessage("path traversal attempt blocked").All()
	if len(entries) != 1 {
		t.Fatalf("security entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", e.Level)
	}
	fields := e.ContextMap()
	if fields["path"] != "%2e%2e/etc/passwd" || fields["request_id"] != "req-1" {
		t.Errorf("fields = %v", fields)
	}
}

func TestResolve_SymlinkEscapeRejected(t *testing.T) {
	build := newBundle(t)
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(build, "leak.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	rv, _ := newResolver(t, Options{BuildDir: build})

	if got := rv.Resolve(context.Background(), "leak.txt"); got.Kind != KindRejected {
		t.Fatalf("kind = %v, want rejected", got.Kind)
	}
}

func TestResolve_StaticDirOverride(t *testing.T) {
	build := newBundle(t)
	static := t.TempDir()
	if err := os.MkdirAll(filepath.Join(static, "js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(static, "js", "app.js"), []byte("app"), 0o644); err != nil {
		t.Fatal(err)
	}
	rv, _ := newResolver(t, Options{BuildDir: build, StaticDir: static})

	got := rv.Resolve(context.Background(), "static/js/app.js")
	if got.Kind != KindFile || got.File != filepath.Join(static, "js", "app.js") {
		t.Fatalf("override: %+v", got)
	}
	// the build's own static tree is shadowed
	if got := rv.Resolve(context.Background(), "static/js/main.js"); got.Kind != KindIndex {
		t.Fatalf("shadowed asset kind = %v, want index", got.Kind)
	}
}

func TestResolve_UnavailableWithoutIndex(t *testing.T) {
	build := newBundle(t)
	if err := os.Remove(filepath.Join(build, "index.html")); err != nil {
		t.Fatal(err)
	}
	rv, logs := newResolver(t, Options{BuildDir: build})

	for _, p := range []string{"", "posts/1", "static/js/missing.js"} {
		if got := rv.Resolve(context.Background(), p); got.Kind != KindUnavailable {
			t.Errorf("Resolve(%q) = %v, want unavailable", p, got.Kind)
		}
	}
	// existing assets still resolve
	if got := rv.Resolve(context.Background(), "favicon.ico"); got.Kind != KindFile {
		t.Errorf("favicon kind = %v", got.Kind)
	}
	if logs.FilterMessage("spa entry document unavailable").Len() == 0 {
		t.Error("expected unavailable warning")
	}
}

func TestNew_MissingBuildDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "build")

	if _, err := New(Options{BuildDir: missing, Profile: config.Production, Logger: zap.NewNop().Sugar()}); !errors.Is(err, ErrBuildDirMissing) {
		t.Fatalf("production err = %v, want ErrBuildDirMissing", err)
	}

	for _, p := range []config.Profile{config.Development, config.Testing} {
		rv, logs := newResolver(t, Options{BuildDir: missing, Profile: p})
		if logs.FilterMessage("frontend build directory not found, SPA routes will return 503").Len() != 1 {
			t.Errorf("%s: expected startup warning", p)
		}
		if got := rv.Resolve(context.Background(), "posts/1"); got.Kind != KindUnavailable {
			t.Errorf("%s: kind = %v, want unavailable", p, got.Kind)
		}
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		"plain":       "plain",
		"%2e%2E":      "..",
		"%252e":       "%2e",
		"100%":        "100%",
		"%zz%41":      "%zzA",
		"a%2":         "a%2",
		"%E2%9C%93ok": "✓ok",
	}
	for in, want := range cases {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%q) = %q, want %q", in, got, want)
		}
	}
}

// restrict sets mode on path and restores it before TempDir cleanup runs.
func restrict(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(path, 0o755) })
}

func TestResolve_StatErrorFallsThrough(t *testing.T) {
	build := newBundle(t)
	locked := filepath.Join(build, "locked")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "a.js"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	restrict(t, locked, 0)
	rv, logs := newResolver(t, Options{BuildDir: build})

	got := rv.Resolve(context.Background(), "locked/a.js")
	if got.Kind != KindIndex {
		t.Fatalf("kind = %v, want index", got.Kind)
	}
	entries := logs.FilterMessage("file access error").All()
	if len(entries) == 0 || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected a DEBUG file access error, got %d entries", len(entries))
	}
}

func TestResolve_InaccessibleIndexIsUnavailable(t *testing.T) {
	build := newBundle(t)
	// readable listing, but no search permission: every stat beneath fails
	restrict(t, build, 0o600)
	rv, logs := newResolver(t, Options{BuildDir: build})

	if got := rv.Resolve(context.Background(), "posts/1"); got.Kind != KindUnavailable {
		t.Fatalf("kind = %v, want unavailable", got.Kind)
	}
	if logs.FilterMessage("file access error").Len() == 0 {
		t.Fatal("expected file access error entries")
	}
}
