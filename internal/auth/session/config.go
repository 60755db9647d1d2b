package session

import (
	"os"
	"time"
)

// Config defines the TTL policy for the two credential tiers.
//
// The access TTL must stay far below the session TTL: the whole point of the
// second tier is a small blast radius for a leaked protected-page credential.
type Config struct {
	// SessionTTL is the lifetime of a session record and its index entry.
	SessionTTL time.Duration

	// AccessTokenTTL is the lifetime of an unconsumed access token.
	AccessTokenTTL time.Duration
}

// DefaultConfig mirrors the production values: 7-day sessions, 5-minute
// access tokens.
func DefaultConfig() Config {
	return Config{
		SessionTTL:     7 * 24 * time.Hour,
		AccessTokenTTL: 300 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (valid Go duration strings):
//   - ARBGATE_SESSION_TTL
//   - ARBGATE_ACCESS_TOKEN_TTL
//
// Returns ErrConfig if a value is invalid or the access TTL is not shorter
// than the session TTL.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ARBGATE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("ARBGATE_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if cfg.AccessTokenTTL >= cfg.SessionTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
