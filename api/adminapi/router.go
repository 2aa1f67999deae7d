// Package adminapi implements the operator-facing admin API: managing
// registry users, crates and crate ownership. It is meant to sit behind a
// firewall or reverse proxy, the only access control is HTTP Basic
// authentication against the user store.
package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
)

// Options controls optional features of the admin API registration.
type Options struct {
	// UsersEnabled controls whether the user management API is mounted.
	UsersEnabled bool
}

// Register mounts all admin API routes under the provided group.
func Register(r fiber.Router, storages model.Backends, opts *Options) {
	r.Use(authMiddleware(storages.Users))

	registerCrates(r, storages.Crates, storages.Users)
	if opts == nil || opts.UsersEnabled {
		registerUsers(r, storages.Users)
	}
}
