package model

import (
	"time"
)

// OwnerKind distinguishes the kinds of crate owners. Only user owners may
// manage Trusted Publishing configurations.
type OwnerKind int

const (
	OwnerKindUser OwnerKind = iota
	OwnerKindTeam
)

// Crate is a published package on the registry.
type Crate struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Name is unique case-sensitively; lookups are case-insensitive
	Name string `gorm:"uniqueIndex" json:"name"`
	// Description is shown in listings
	Description string `gorm:"type:text" json:"description,omitempty"`
}

// CrateOwner links a user (or team) to a crate it owns.
type CrateOwner struct {
	CrateID   int64     `gorm:"primaryKey" json:"crate_id"`
	OwnerID   int64     `gorm:"primaryKey" json:"owner_id"`
	OwnerKind OwnerKind `gorm:"primaryKey" json:"owner_kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CratesStore is the abstraction used by handlers.
type CratesStore interface {
	// List returns all crates
	List() ([]Crate, error)
	// Get returns a crate by name; the lookup ignores case
	Get(name string) (*Crate, error)
	// GetByID returns a crate by ID
	GetByID(id int64) (*Crate, error)
	// Create creates a new crate
	Create(name, description string) (*Crate, error)
	// AddOwner registers a user or team as owner of a crate
	AddOwner(crateID, ownerID int64, kind OwnerKind) error
	// IsUserOwner reports whether the user directly owns the crate
	IsUserOwner(crateID, userID int64) (bool, error)
	// UserOwners returns the users that directly own the crate
	UserOwners(crateID int64) ([]User, error)
	// OwnedCrates returns the crates the user directly owns
	OwnedCrates(userID int64) ([]Crate, error)
}
