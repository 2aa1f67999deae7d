// Package trustpubapi implements the Trusted Publishing HTTP API: managing
// trust configurations for crates, exchanging OIDC tokens from CI providers
// for ephemeral access tokens, and revoking those tokens.
package trustpubapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/github"
	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub/keystore"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 30 * time.Minute

// Deps bundles everything the API handlers need.
type Deps struct {
	DB     model.Backends
	GitHub github.Client
	// GitHubKeys resolves signing keys of GitHub Actions OIDC tokens
	GitHubKeys keystore.KeyStore
	// GitLabKeys resolves signing keys of GitLab CI OIDC tokens
	GitLabKeys keystore.KeyStore
	Emails     EmailSender
	// Audience is the aud claim expected in exchanged OIDC tokens. There is
	// no default; it is derived from the configured service domain.
	Audience string
	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration
}

func (d *Deps) tokenTTL() time.Duration {
	if d.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return d.TokenTTL
}

// Register mounts all Trusted Publishing routes under the provided group,
// which is expected to be /api/v1/trusted_publishing.
func Register(r fiber.Router, deps Deps) {
	registerTokens(r, deps)
	registerGitHubConfigs(r, deps)
	registerGitLabConfigs(r, deps)
}

func registerTokens(r fiber.Router, deps Deps) {
	g := r.Group("/tokens")
	g.Put("/", handleExchange(deps))
	g.Delete("/", handleRevoke(deps))
}
