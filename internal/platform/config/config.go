package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration for the gateway.
type Server struct {
	Addr string

	// Steam Web API key used for profile, owned-games, news and friends calls.
	SteamAPIKey string

	// OpenID relying-party settings. ReturnURL is where Steam redirects the
	// browser after sign-on; Realm scopes the assertion to this deployment.
	OpenIDReturnURL string
	OpenIDRealm     string

	// SessionSigningKey signs the session cookie so tokens cannot be forged.
	SessionSigningKey string

	CatalogTTL      time.Duration
	SessionTTL      time.Duration
	UpstreamTimeout time.Duration
}

const (
	defaultAddr            = ":3000"
	defaultCatalogTTL      = time.Hour
	defaultSessionTTL      = 24 * time.Hour
	defaultUpstreamTimeout = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
// The four credentials are required; their absence is a startup-fatal error
// reported all at once so operators fix the environment in a single pass.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:              os.Getenv("PLAYDEX_ADDR"),
		SteamAPIKey:       os.Getenv("STEAM_API_KEY"),
		OpenIDReturnURL:   os.Getenv("OPENID_RETURN_URL"),
		OpenIDRealm:       os.Getenv("OPENID_REALM"),
		SessionSigningKey: os.Getenv("SESSION_SIGNING_KEY"),
		CatalogTTL:        defaultCatalogTTL,
		SessionTTL:        defaultSessionTTL,
		UpstreamTimeout:   defaultUpstreamTimeout,
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	var missing []string
	if cfg.SteamAPIKey == "" {
		missing = append(missing, "STEAM_API_KEY")
	}
	if cfg.OpenIDReturnURL == "" {
		missing = append(missing, "OPENID_RETURN_URL")
	}
	if cfg.OpenIDRealm == "" {
		missing = append(missing, "OPENID_REALM")
	}
	if cfg.SessionSigningKey == "" {
		missing = append(missing, "SESSION_SIGNING_KEY")
	}
	if len(missing) > 0 {
		return Server{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if ttl := os.Getenv("CATALOG_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil && duration > 0 {
			cfg.CatalogTTL = duration
		}
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil && duration > 0 {
			cfg.SessionTTL = duration
		}
	}
	if timeout := os.Getenv("UPSTREAM_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil && duration > 0 {
			cfg.UpstreamTimeout = duration
		}
	}

	return cfg, nil
}
