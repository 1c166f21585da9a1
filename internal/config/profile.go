// internal/config/profile.go
//
// Deployment profile selection.
//
// Context
// -------
// Exactly one profile is active per process.  The loader resolves it once
// (`profile:` in host.yaml, overridden by `APP_ENV`, overridden by
// `SPA_PROFILE`), and the same value is handed to the Settings Registry,
// where it selects the credential namespace (see settings.go).  Anything
// that is not an exact profile name, including an empty or lowercase
// value, resolves to PRODUCTION, the strictest profile.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.  No em dash.
package config

// ProfileEnvVar names the environment variable that selects the profile.
const ProfileEnvVar = "APP_ENV"

// Profile is the closed set of deployment profiles.
type Profile string

const (
	Production  Profile = "PRODUCTION"
	Development Profile = "DEVELOPMENT"
	Testing     Profile = "TESTING"
)

// Profiles lists every known profile in declaration order.
func Profiles() []Profile {
	return []Profile{Production, Development, Testing}
}

// ParseProfile maps a hint onto a Profile.  Unknown or empty hints fall
// back to Production; this never fails.
func ParseProfile(hint string) Profile {
	switch Profile(hint) {
	case Production, Development, Testing:
		return Profile(hint)
	default:
		return Production
	}
}

// IsProduction reports whether p is the production profile.
func (p Profile) IsProduction() bool { return p == Production }

func (p Profile) String() string { return string(p) }
