package model

import (
	"time"
)

// User represents a registry user that can publish crates and manage
// Trusted Publishing configurations for the crates they own.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Username is unique identifier for login
	Username string `gorm:"uniqueIndex" json:"username"`
	// PasswordHash stores a PHC-formatted argon2id hash of the user's password
	PasswordHash string `json:"-"`
	// DisplayName is optional, for UI friendliness
	DisplayName string `json:"display_name"`
	// Email is the user's contact address; notification mails only go to
	// verified addresses
	Email string `json:"email"`
	// EmailVerified indicates whether Email has been confirmed. Creating
	// Trusted Publishing configurations requires a verified address.
	EmailVerified bool `json:"email_verified"`
	// Disabled allows soft-disable of a user without deletion
	Disabled bool `json:"disabled"`
}

// UsersStore abstracts CRUD and authentication helpers for registry users.
type UsersStore interface {
	// Count returns the number of users present in the store
	Count() (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by username
	Get(username string) (*User, error)
	// Create creates a user; the implementation must hash the password
	Create(username, password, displayName, email string) (*User, error)
	// Update updates display name, email and optionally password
	Update(username string, displayName, email, newPassword *string, disabled *bool) (*User, error)
	// SetEmailVerified marks the user's email address as verified or not
	SetEmailVerified(username string, verified bool) error
	// Delete deletes a user by username
	Delete(username string) error
	// Authenticate checks a username/password combo and returns the user
	Authenticate(username, password string) (*User, error)
}
