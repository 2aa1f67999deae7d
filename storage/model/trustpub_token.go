package model

import (
	"time"

	"gorm.io/datatypes"
)

// Token is an ephemeral Trusted Publishing access token. Only the SHA-256
// hash of the token is stored; the plaintext is returned to the caller of
// the exchange endpoint exactly once.
type Token struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the instant after which the token no longer
	// authenticates
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	// HashedToken is the hex-encoded SHA-256 hash of the token secret
	HashedToken string `gorm:"uniqueIndex" json:"-"`
	// CrateIDs lists the crates this token may publish
	CrateIDs datatypes.JSONSlice[int64] `json:"crate_ids"`
	// TrustpubData records provenance claims from the exchanged JWT for
	// auditing, e.g. repository, run ID and commit SHA
	TrustpubData datatypes.JSON `json:"trustpub_data"`
}

// UsedJTI records the ID of an exchanged JWT so that replays can be
// rejected until the JWT itself has expired.
type UsedJTI struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JTI       string    `gorm:"uniqueIndex" json:"jti"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// TokensStore is the abstraction used by handlers.
type TokensStore interface {
	// InsertUsedJTI records a JWT ID; it returns an AlreadyExistsError
	// when the JTI was seen before
	InsertUsedJTI(jti string, expiresAt time.Time) error
	// Create stores a new token
	Create(token *Token) error
	// FindByHash returns the unexpired token with the given hash
	FindByHash(hashedToken string) (*Token, error)
	// DeleteByHash removes the token with the given hash; missing tokens
	// are not an error
	DeleteByHash(hashedToken string) error
	// SweepExpired removes expired tokens and JTI records, returning the
	// number of rows removed
	SweepExpired(now time.Time) (int64, error)
}
