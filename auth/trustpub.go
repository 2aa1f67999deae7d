// Package auth authenticates Trusted Publishing access tokens on the
// publish path.
package auth

import (
	"strings"

	"tideland.dev/go/slices"

	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub/accesstoken"
)

// ForbiddenError is an authentication or authorization failure whose message
// is safe to show to the client.
type ForbiddenError string

// Error implements the error interface
func (e ForbiddenError) Error() string {
	return string(e)
}

// ErrInvalidToken is returned for unknown, expired or revoked tokens. The
// message deliberately does not distinguish between those cases.
const ErrInvalidToken = ForbiddenError("Invalid authentication token")

// ErrMalformedToken is returned when the bearer value does not match the
// expected token format at all, before any store lookup.
const ErrMalformedToken = ForbiddenError("Token does not match the expected token format")

// ErrNewCrate is returned when a Trusted Publishing token is used to publish
// a crate that does not exist yet.
const ErrNewCrate = ForbiddenError("Trusted Publishing tokens do not support creating new crates. Publish the crate manually, first")

// ParseBearer extracts the credentials from an Authorization header value.
// A missing scheme is accepted for compatibility with clients that send the
// bare token.
func ParseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return strings.TrimSpace(header), header != ""
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// TokenAuthenticator validates Trusted Publishing tokens against the store.
type TokenAuthenticator struct {
	Tokens model.TokensStore
}

// Authenticate parses and validates the Authorization header value and
// returns the stored token.
func (a *TokenAuthenticator) Authenticate(header string) (*model.Token, error) {
	raw, ok := ParseBearer(header)
	if !ok || raw == "" {
		return nil, ErrMalformedToken
	}
	token, err := accesstoken.Parse(raw)
	if err != nil {
		return nil, ErrMalformedToken
	}
	stored, err := a.Tokens.FindByHash(token.SHA256())
	if err != nil {
		if _, notFound := err.(model.NotFoundError); notFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return stored, nil
}

// EnsureCrateScope checks that the token is allowed to publish the crate.
// A nil crate means the crate does not exist yet, which Trusted Publishing
// tokens may not do.
func (a *TokenAuthenticator) EnsureCrateScope(token *model.Token, crate *model.Crate) error {
	if crate == nil {
		return ErrNewCrate
	}
	if slices.IsMember(crate.ID, token.CrateIDs) {
		return nil
	}
	return ForbiddenError("The provided access token is not valid for crate `" + crate.Name + "`")
}
