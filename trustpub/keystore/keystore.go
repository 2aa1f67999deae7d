// Package keystore loads and caches the signing keys of OIDC providers.
//
// Key sets are discovered through the standard OpenID Connect discovery
// endpoint: the issuer's `.well-known/openid-configuration` names a
// `jwks_uri`, which serves the JSON Web Key Set.
package keystore

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/pkg/errors"

	"github.com/craterio/registry/internal/cache"
)

// KeyStore resolves key IDs to verification keys for a single OIDC issuer.
type KeyStore interface {
	// Key returns the key with the given key ID, or false if the issuer
	// does not currently advertise such a key.
	Key(ctx context.Context, keyID string) (jwk.Key, bool, error)
}

// DefaultCacheTTL is the default TTL for a cached key set.
const DefaultCacheTTL = time.Hour

// OIDCKeyStore implements KeyStore against a live OIDC provider. Fetched
// key sets are cached process-wide, so multiple stores for the same issuer
// share one copy.
type OIDCKeyStore struct {
	issuer   string
	client   *resty.Client
	cacheTTL time.Duration
}

// NewOIDCKeyStore creates a key store for the given issuer URI. A zero
// cacheTTL selects DefaultCacheTTL.
func NewOIDCKeyStore(issuer string, cacheTTL time.Duration) *OIDCKeyStore {
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &OIDCKeyStore{
		issuer:   issuer,
		client:   resty.New().SetTimeout(10 * time.Second),
		cacheTTL: cacheTTL,
	}
}

// Key implements KeyStore. The key set is fetched from the network only
// when the cache is cold or expired. A key ID that a freshly cached key set
// does not contain is reported as not found without hitting the network.
func (s *OIDCKeyStore) Key(ctx context.Context, keyID string) (jwk.Key, bool, error) {
	var raw []byte
	hit, err := cache.Get(s.cacheKey(), &raw)
	if err != nil {
		return nil, false, err
	}
	if hit {
		set, err := jwk.Parse(raw)
		if err != nil {
			return nil, false, errors.Wrap(err, "parsing cached key set")
		}
		key, ok := set.LookupKeyID(keyID)
		return key, ok, nil
	}

	raw, err = s.loadJWKS(ctx)
	if err != nil {
		return nil, false, err
	}
	set, err := jwk.Parse(raw)
	if err != nil {
		return nil, false, errors.Wrap(err, "parsing key set")
	}
	if err = cache.Set(s.cacheKey(), raw, s.cacheTTL); err != nil {
		return nil, false, err
	}

	key, ok := set.LookupKeyID(keyID)
	return key, ok, nil
}

func (s *OIDCKeyStore) cacheKey() string {
	return cache.Key("trustpub", "jwks", s.issuer)
}

// loadJWKS runs the discovery flow and returns the raw key set document.
func (s *OIDCKeyStore) loadJWKS(ctx context.Context) ([]byte, error) {
	var config struct {
		JWKSURI string `json:"jwks_uri"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&config).
		Get(s.issuer + "/.well-known/openid-configuration")
	if err != nil {
		return nil, errors.Wrap(err, "fetching openid configuration")
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching openid configuration: status %d", resp.StatusCode())
	}
	if config.JWKSURI == "" {
		return nil, errors.New("openid configuration does not name a jwks_uri")
	}

	resp, err = s.client.R().SetContext(ctx).Get(config.JWKSURI)
	if err != nil {
		return nil, errors.Wrap(err, "fetching jwks")
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching jwks: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
