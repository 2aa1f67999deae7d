// Package trustpub implements the Trusted Publishing credential exchange:
// verifying OIDC tokens from CI providers and matching them against
// operator-registered trust configurations.
package trustpub

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// UnverifiedToken carries the claims needed to route a JWT before any
// signature verification has happened: the issuer selects the provider and
// the key ID selects the verification key. Nothing in it may be trusted
// for authorization decisions.
type UnverifiedToken struct {
	Issuer string
	KeyID  string
}

// DecodeUnverified splits a compact JWT and decodes its header and payload
// without checking the signature. Signature verification happens later,
// once the issuer's key set has been loaded.
func DecodeUnverified(token string) (UnverifiedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return UnverifiedToken{}, errors.New("malformed jwt")
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return UnverifiedToken{}, errors.Wrap(err, "decoding jwt header")
	}
	var header struct {
		KeyID string `json:"kid"`
	}
	if err = json.Unmarshal(headerJSON, &header); err != nil {
		return UnverifiedToken{}, errors.Wrap(err, "parsing jwt header")
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return UnverifiedToken{}, errors.Wrap(err, "decoding jwt payload")
	}
	var payload struct {
		Issuer string `json:"iss"`
	}
	if err = json.Unmarshal(payloadJSON, &payload); err != nil {
		return UnverifiedToken{}, errors.Wrap(err, "parsing jwt payload")
	}

	return UnverifiedToken{Issuer: payload.Issuer, KeyID: header.KeyID}, nil
}
