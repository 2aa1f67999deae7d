// Package accesstoken implements the opaque ephemeral access tokens handed
// out by the Trusted Publishing token exchange.
//
// A token consists of a fixed prefix, a random alphanumeric string of 31
// characters, and a single-character checksum. Only a SHA-256 hash of the
// random part is ever persisted.
package accesstoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix is prepended to every finalized token. Regular registry API tokens
// never contain an underscore, so the prefix is enough to tell the two
// credential kinds apart.
const Prefix = "crt_tp_"

// rawLength is the length of the random alphanumeric part, without the
// checksum character.
const rawLength = 31

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ParseError describes why a token string could not be parsed. The checksum
// only guards against transmission mistakes, it has no security value.
type ParseError string

// Error implements the error interface
func (e ParseError) Error() string {
	return string(e)
}

const (
	ErrMissingPrefix    ParseError = "missing token prefix"
	ErrInvalidLength    ParseError = "invalid token length"
	ErrInvalidCharacter ParseError = "invalid character in token"
	ErrInvalidChecksum  ParseError = "token checksum mismatch"
)

// AccessToken holds the random part of an ephemeral access token.
type AccessToken struct {
	raw string
}

// maxUnbiasedByte is the largest multiple of len(alphanumeric) that fits
// in a byte. Random bytes at or above it are rejected so each alphabet
// character is drawn with equal probability.
const maxUnbiasedByte = 256 / len(alphanumeric) * len(alphanumeric)

// New generates a new random access token.
func New() (AccessToken, error) {
	raw := make([]byte, 0, rawLength)
	buf := make([]byte, rawLength)
	for len(raw) < rawLength {
		if _, err := rand.Read(buf); err != nil {
			return AccessToken{}, err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			raw = append(raw, alphanumeric[int(b)%len(alphanumeric)])
			if len(raw) == rawLength {
				break
			}
		}
	}
	return AccessToken{raw: string(raw)}, nil
}

// Parse reads a finalized token string back into an AccessToken,
// verifying prefix, length, character set, and checksum.
func Parse(s string) (AccessToken, error) {
	suffix, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return AccessToken{}, ErrMissingPrefix
	}
	if len(suffix) != rawLength+1 {
		return AccessToken{}, ErrInvalidLength
	}
	for i := 0; i < len(suffix); i++ {
		if !isAlphanumeric(suffix[i]) {
			return AccessToken{}, ErrInvalidCharacter
		}
	}
	raw := suffix[:rawLength]
	if suffix[rawLength] != checksum(raw) {
		return AccessToken{}, ErrInvalidChecksum
	}
	return AccessToken{raw: raw}, nil
}

// Finalize returns the full plaintext token, i.e. prefix + random part +
// checksum. This is the only representation ever sent to a client.
func (t AccessToken) Finalize() string {
	return Prefix + t.raw + string(checksum(t.raw))
}

// SHA256 returns the hex-encoded SHA-256 hash of the random part. This is
// the value stored in and looked up from the database.
func (t AccessToken) SHA256() string {
	sum := sha256.Sum256([]byte(t.raw))
	return hex.EncodeToString(sum[:])
}

func isAlphanumeric(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func checksum(raw string) byte {
	var acc byte
	for i := 0; i < len(raw); i++ {
		acc ^= raw[i]
	}
	return alphanumeric[int(acc)%len(alphanumeric)]
}
