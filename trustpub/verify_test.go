package trustpub

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

const testAudience = "registry.example.com"

func newTestKeys(t *testing.T) (jwk.Key, jwk.Key) {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating rsa key: %v", err)
	}
	private, err := jwk.Import(raw)
	if err != nil {
		t.Fatalf("importing private key: %v", err)
	}
	if err = private.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("setting kid: %v", err)
	}
	public, err := jwk.Import(raw.Public())
	if err != nil {
		t.Fatalf("importing public key: %v", err)
	}
	if err = public.Set(jwk.KeyIDKey, "test-key"); err != nil {
		t.Fatalf("setting kid: %v", err)
	}
	return private, public
}

func signClaims(t *testing.T, key jwk.Key, claims any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshaling claims: %v", err)
	}
	signed, err := jws.Sign(payload, jws.WithKey(jwa.RS256(), key))
	if err != nil {
		t.Fatalf("signing claims: %v", err)
	}
	return string(signed)
}

func validClaims() StandardClaims {
	now := time.Now().Unix()
	return StandardClaims{
		Issuer:    "https://issuer.example.com",
		Subject:   "repo:octocat/hello-world",
		Audience:  testAudience,
		JWTID:     "example-id",
		Expiry:    now + 30*60,
		NotBefore: now,
		IssuedAt:  now,
	}
}

func TestVerifyToken(t *testing.T) {
	private, public := newTestKeys(t)
	token := signClaims(t, private, validClaims())

	var got StandardClaims
	if err := VerifyToken(token, public, testAudience, &got); err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if got.JWTID != "example-id" {
		t.Errorf("jti = %q, want %q", got.JWTID, "example-id")
	}
}

func TestVerifyTokenWrongKey(t *testing.T) {
	private, _ := newTestKeys(t)
	_, otherPublic := newTestKeys(t)
	token := signClaims(t, private, validClaims())

	var got StandardClaims
	if err := VerifyToken(token, otherPublic, testAudience, &got); err == nil {
		t.Error("expected verification failure with wrong key")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	private, public := newTestKeys(t)
	claims := validClaims()
	claims.Expiry = time.Now().Add(-5 * time.Minute).Unix()
	token := signClaims(t, private, claims)

	var got StandardClaims
	if err := VerifyToken(token, public, testAudience, &got); err == nil {
		t.Error("expected verification failure for expired token")
	}
}

func TestVerifyTokenNotYetValid(t *testing.T) {
	private, public := newTestKeys(t)
	claims := validClaims()
	claims.NotBefore = time.Now().Add(10 * time.Minute).Unix()
	token := signClaims(t, private, claims)

	var got StandardClaims
	if err := VerifyToken(token, public, testAudience, &got); err == nil {
		t.Error("expected verification failure for not-yet-valid token")
	}
}

func TestVerifyTokenWrongAudience(t *testing.T) {
	private, public := newTestKeys(t)
	claims := validClaims()
	claims.Audience = "somebody-else"
	token := signClaims(t, private, claims)

	var got StandardClaims
	if err := VerifyToken(token, public, testAudience, &got); err == nil {
		t.Error("expected verification failure for wrong audience")
	}
}

func TestVerifyTokenMissingExpiry(t *testing.T) {
	private, public := newTestKeys(t)
	claims := validClaims()
	claims.Expiry = 0
	token := signClaims(t, private, claims)

	var got StandardClaims
	if err := VerifyToken(token, public, testAudience, &got); err == nil {
		t.Error("expected verification failure for token without exp")
	}
}
