// internal/config/model.go
//
// Typed host configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • struct defaults                        – Defaults(root),
//   • optional `conf/host.yaml`              – primary static file,
//   • deployment vars                        – APP_ENV, BUILD_DIR, STATIC_PATH,
//   • `SPA_`-prefixed environment overrides  – highest precedence.
//
// Database credentials are not part of this tree.  They live in
// settings.go and are resolved per profile by the Registry.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"path/filepath"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr            string        `koanf:"listen_addr"             validate:"required,hostname_port"`
	ReadTimeout           time.Duration `koanf:"read_timeout"            validate:"gt=0"`
	WriteTimeout          time.Duration `koanf:"write_timeout"           validate:"gt=0"`
	IdleTimeout           time.Duration `koanf:"idle_timeout"            validate:"gt=0"`
	ShutdownTimeout       time.Duration `koanf:"shutdown_timeout"        validate:"gt=0"`
	ForceHTTPS            bool          `koanf:"force_https"`
	ContentSecurityPolicy string        `koanf:"content_security_policy"`
}

//
// Assets section
//

// Assets locates the pre-built SPA bundle.
type Assets struct {
	BuildDir   string `koanf:"build_dir"   validate:"required"`
	StaticPath string `koanf:"static_path"`
}

// StaticDir is STATIC_PATH when set, otherwise `<BuildDir>/static`.
func (a Assets) StaticDir() string {
	if a.StaticPath != "" {
		return a.StaticPath
	}
	return filepath.Join(a.BuildDir, "static")
}

//
// Probes section
//

// Probes tunes the dependency health checks.  ExternalName becomes a
// /health/<name> route, so it may not collide with the storage check.
type Probes struct {
	Timeout      time.Duration `koanf:"timeout"       validate:"gt=0"`
	DBTimeout    time.Duration `koanf:"db_timeout"    validate:"gt=0"`
	ExternalName string        `koanf:"external_name" validate:"required,alphanum,ne=db"`
	ExternalURL  string        `koanf:"external_url"  validate:"required,url"`
}

//
// Log and GeoIP sections
//

// Log controls the zap file logger.
type Log struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// GeoIP points at an optional GeoLite2-City database.  Empty disables
// geo lookups.
type GeoIP struct {
	Path string `koanf:"path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SPA_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Profile Profile `koanf:"profile"`
	HTTP    HTTP    `koanf:"http"`
	Assets  Assets  `koanf:"assets"`
	Probes  Probes  `koanf:"probes"`
	Log     Log     `koanf:"log"`
	GeoIP   GeoIP   `koanf:"geoip"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// DefaultCSP allows the inline runtime chunk most SPA bundlers emit.
const DefaultCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; object-src 'none'; " +
	"base-uri 'self'; frame-ancestors 'none'"

// Defaults returns the configuration used before any overlay is applied.
func Defaults(root string) Config {
	return Config{
		Profile: Production,
		HTTP: HTTP{
			ListenAddr:            ":8080",
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          15 * time.Second,
			IdleTimeout:           60 * time.Second,
			ShutdownTimeout:       10 * time.Second,
			ContentSecurityPolicy: DefaultCSP,
		},
		Assets: Assets{
			BuildDir: filepath.Join(root, "build"),
		},
		Probes: Probes{
			Timeout:      5 * time.Second,
			DBTimeout:    5 * time.Second,
			ExternalName: "github",
			ExternalURL:  "https://api.github.com/rate_limit",
		},
		Log: Log{
			Dir:   filepath.Join(root, "logs"),
			Level: "info",
		},
	}
}
