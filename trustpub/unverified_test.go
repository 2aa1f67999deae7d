package trustpub

import (
	"encoding/base64"
	"testing"
)

func TestDecodeUnverified(t *testing.T) {
	private, _ := newTestKeys(t)
	token := signClaims(t, private, validClaims())

	got, err := DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified failed: %v", err)
	}
	if got.Issuer != "https://issuer.example.com" {
		t.Errorf("issuer = %q", got.Issuer)
	}
	if got.KeyID != "test-key" {
		t.Errorf("key id = %q", got.KeyID)
	}
}

func TestDecodeUnverifiedMalformed(t *testing.T) {
	inputs := []string{
		"",
		"not-a-jwt",
		"one.two",
		"one.two.three.four",
		"!!!.!!!.!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".e30.sig",
	}
	for _, input := range inputs {
		if _, err := DecodeUnverified(input); err == nil {
			t.Errorf("DecodeUnverified(%q) succeeded, want error", input)
		}
	}
}

func TestDecodeUnverifiedIgnoresSignature(t *testing.T) {
	private, _ := newTestKeys(t)
	token := signClaims(t, private, validClaims())

	// tamper with the signature; decoding must still succeed
	tampered := token[:len(token)-4] + "AAAA"
	if _, err := DecodeUnverified(tampered); err != nil {
		t.Errorf("DecodeUnverified on tampered token failed: %v", err)
	}
}
