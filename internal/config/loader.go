// internal/config/loader.go
//
// Host configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from these layers (highest
precedence last):

  1. Defaults(root).
  2. Optional `.env` file at `<root>/conf/.env`.  Existing env wins.
  3. Optional `conf/host.yaml`.
  4. Deployment variables shared with the hosting panel: `APP_ENV`,
     `BUILD_DIR`, and `STATIC_PATH`.
  5. Environment variables prefixed `SPA_`, where `__` maps to "."
     (e.g., `SPA_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled over the defaults, the profile is
normalised (unknown → PRODUCTION), relative paths are anchored at the
root, the result is validated, and cached in an `atomic.Pointer` for
lock-free reads.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read.
  • ERROR spans – YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  – final "config loaded" with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/host.yaml`; this
    lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// RootEnvVar overrides root discovery.
const RootEnvVar = "SPA_ROOT"

const envPrefix = "SPA_"

var current atomic.Pointer[Config]

// deploymentKeys maps unprefixed deployment vars onto the koanf tree.
var deploymentKeys = map[string]string{
	ProfileEnvVar: "profile",
	"BUILD_DIR":   "assets.build_dir",
	"STATIC_PATH": "assets.static_path",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SPA_ROOT or climbs directories until conf/host.yaml is
// found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(RootEnvVar); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "host.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root and loads the configuration beneath it.
func Load() (*Config, error) {
	return LoadFrom(rootDir())
}

// LoadFrom reads .env, YAML, env overrides, validates, and caches Config.
func LoadFrom(root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "host.yaml")
	switch _, err := os.Stat(yamlPath); {
	case err == nil:
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config: %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	default:
		zap.S().Errorw("config yaml stat failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("config: %s: %w", yamlPath, err)
	}

	// Deployment vars: APP_ENV, BUILD_DIR, STATIC_PATH.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return deploymentKeys[s]
	}), nil); err != nil {
		zap.S().Errorw("config deployment env overlay failed", "err", err)
		return nil, err
	}

	// Env overrides: SPA_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	cfg := Defaults(root)
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Profile = ParseProfile(string(cfg.Profile))
	cfg.Paths.Root = root
	cfg.Assets.BuildDir = anchor(root, cfg.Assets.BuildDir)
	if cfg.Assets.StaticPath != "" {
		cfg.Assets.StaticPath = anchor(root, cfg.Assets.StaticPath)
	}
	cfg.Log.Dir = anchor(root, cfg.Log.Dir)

	if err := validateStruct(&cfg, func(ns string) string { return ns }); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"profile", cfg.Profile,
		"listen_addr", cfg.HTTP.ListenAddr,
		"build_dir", cfg.Assets.BuildDir,
		"static_dir", cfg.Assets.StaticDir(),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }

// anchor makes p absolute relative to root.
func anchor(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
