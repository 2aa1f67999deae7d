package trustpub

import (
	"encoding/json"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/pkg/errors"
)

// Leeway applied to the exp and nbf checks to tolerate clock skew between
// the provider and this service.
const temporalLeeway = 60 * time.Second

// StandardClaims holds the registered JWT claims shared by all supported
// providers. Provider claim structs embed it.
type StandardClaims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	JWTID     string `json:"jti"`
	Expiry    int64  `json:"exp"`
	NotBefore int64  `json:"nbf"`
	IssuedAt  int64  `json:"iat"`
}

// ExpiresAt returns the exp claim as a time.
func (c StandardClaims) ExpiresAt() time.Time {
	return time.Unix(c.Expiry, 0)
}

// VerifyToken checks the RS256 signature of the passed compact JWT against
// key and unmarshals the payload into target. The registered exp, nbf, and
// aud claims are validated against the current time and the expected
// audience. target must embed StandardClaims for the provider-specific
// claims to be usable afterwards.
func VerifyToken(token string, key jwk.Key, audience string, target any) error {
	payload, err := jws.Verify([]byte(token), jws.WithKey(jwa.RS256(), key))
	if err != nil {
		return errors.Wrap(err, "verifying jwt signature")
	}

	var std StandardClaims
	if err = json.Unmarshal(payload, &std); err != nil {
		return errors.Wrap(err, "parsing jwt claims")
	}
	if err = std.validate(audience); err != nil {
		return err
	}

	if err = json.Unmarshal(payload, target); err != nil {
		return errors.Wrap(err, "parsing jwt claims")
	}
	return nil
}

func (c StandardClaims) validate(audience string) error {
	now := time.Now()
	if c.Expiry == 0 {
		return errors.New("jwt has no exp claim")
	}
	if now.After(c.ExpiresAt().Add(temporalLeeway)) {
		return errors.New("jwt is expired")
	}
	if c.NotBefore != 0 && now.Add(temporalLeeway).Before(time.Unix(c.NotBefore, 0)) {
		return errors.New("jwt is not valid yet")
	}
	if c.Audience != audience {
		return errors.Errorf("unexpected jwt audience: %s", c.Audience)
	}
	return nil
}
