package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/craterio/registry/api/trustpubapi"
	"github.com/craterio/registry/trustpub/keystore"
)

// trustpubConf configures the Trusted Publishing subsystem under the
// `trusted_publishing` key.
type trustpubConf struct {
	// Audience is the aud claim expected in exchanged OIDC tokens, the
	// server domain if not set
	Audience string `yaml:"audience"`
	// TokenLifetime is the lifetime of issued access tokens
	TokenLifetime duration.DurationOption `yaml:"token_lifetime"`
	// KeyCacheLifetime is how long fetched OIDC key sets are cached
	KeyCacheLifetime duration.DurationOption `yaml:"key_cache_lifetime"`
	// SweepInterval is how often expired tokens are cleaned from storage
	SweepInterval duration.DurationOption `yaml:"sweep_interval"`
}

var defaultTrustpubConf = trustpubConf{
	TokenLifetime:    duration.DurationOption(trustpubapi.DefaultTokenTTL),
	KeyCacheLifetime: duration.DurationOption(keystore.DefaultCacheTTL),
	SweepInterval:    duration.DurationOption(time.Hour),
}

func (c *trustpubConf) validate() error {
	if c.Audience == "" {
		return errors.New("error in trusted_publishing conf: audience must be set, or server.domain configured")
	}
	if c.TokenLifetime.Duration() <= 0 {
		return errors.New("error in trusted_publishing conf: token_lifetime must be positive")
	}
	return nil
}
