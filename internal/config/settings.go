// internal/config/settings.go
//
// Database settings variants.
//
// Context
// -------
// Each Profile maps to exactly one settings variant, and each variant owns
// its own environment namespace:
//
//	PRODUCTION   DB_HOST,       DB_NAME,       DB_USER,       DB_PASSWORD
//	DEVELOPMENT  LOCAL_DB_HOST, LOCAL_DB_NAME, LOCAL_DB_USER, LOCAL_DB_PASSWORD
//	TESTING      LOCAL_DB_HOST, LOCAL_DB_NAME, LOCAL_DB_USER, LOCAL_DB_PASSWORD
//
// The mapping is a switch over the closed Profile enum, never a table that
// can be mutated at runtime.  `DB_HOST` is optional and defaults to
// `localhost`; the other three are required and have no default.
//
// Notes
// -----
//   - Only the four DB keys are read from the namespace, so the unprefixed
//     production variant does not pick up unrelated environment.
//   - Oxford commas, two spaces after periods.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/knadh/koanf/providers/env"
	koanf "github.com/knadh/koanf/v2"
)

// DefaultDBHost is used when the variant's DB_HOST is unset or empty.
const DefaultDBHost = "localhost"

const defaultDBPort = "3306"

// DBSettings holds the credentials for the relational store.
type DBSettings struct {
	Host     string  `koanf:"db_host"`
	Name     string  `koanf:"db_name"     validate:"required"`
	User     string  `koanf:"db_user"     validate:"required"`
	Password string  `koanf:"db_password" validate:"required"`
	Profile  Profile `koanf:"-"`
}

// ConnectionString formats the settings as a connection URI.  It is a pure
// function of Host, User, Password, and Name.
func (s *DBSettings) ConnectionString() string {
	u := url.URL{
		Scheme: "mysql",
		User:   url.UserPassword(s.User, s.Password),
		Host:   s.Host,
		Path:   "/" + s.Name,
	}
	return u.String()
}

// DSN returns the go-sql-driver/mysql DSN for the same settings.
func (s *DBSettings) DSN() string {
	c := mysql.NewConfig()
	c.User = s.User
	c.Passwd = s.Password
	c.Net = "tcp"
	c.Addr = hostPort(s.Host)
	c.DBName = s.Name
	c.ParseTime = true
	return c.FormatDSN()
}

// String hides the password so settings can be logged safely.
func (s *DBSettings) String() string {
	return fmt.Sprintf("%s@%s/%s (%s)", s.User, s.Host, s.Name, s.Profile)
}

func hostPort(h string) string {
	if _, _, err := net.SplitHostPort(h); err == nil {
		return h
	}
	return net.JoinHostPort(h, defaultDBPort)
}

//
// Variants
//

type variant struct {
	profile Profile
	prefix  string
}

var dbKeys = map[string]struct{}{
	"DB_HOST":     {},
	"DB_NAME":     {},
	"DB_USER":     {},
	"DB_PASSWORD": {},
}

// variantFor is the profile → variant mapping.
func variantFor(p Profile) variant {
	switch p {
	case Development:
		return variant{profile: Development, prefix: "LOCAL_"}
	case Testing:
		return variant{profile: Testing, prefix: "LOCAL_"}
	case Production:
		return variant{profile: Production, prefix: ""}
	default:
		return variant{profile: Production, prefix: ""}
	}
}

// envName returns the environment variable that feeds a koanf key.
func (v variant) envName(key string) string {
	return v.prefix + strings.ToUpper(key)
}

// load reads the variant's namespace.  It does not validate.
func (v variant) load() (*DBSettings, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(v.prefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, v.prefix)
		if _, ok := dbKeys[key]; !ok {
			return ""
		}
		return strings.ToLower(key)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: read %s env: %w", v.profile, err)
	}

	s := &DBSettings{Profile: v.profile}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s settings: %w", v.profile, err)
	}
	if s.Host == "" {
		s.Host = DefaultDBHost
	}
	return s, nil
}
