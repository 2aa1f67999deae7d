package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
)

// registerCrates wires handlers for managing crates and their owners.
func registerCrates(r fiber.Router, crates model.CratesStore, users model.UsersStore) {
	g := r.Group("/crates")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := crates.List()
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(list)
	})

	type createReq struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		if req.Name == "" {
			return invalidRequest(c, "name is required")
		}
		crate, err := crates.Create(req.Name, req.Description)
		if err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_request", "error_description": "crate already exists"})
			}
			return serverError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(crate)
	})

	g.Get("/:name", func(c *fiber.Ctx) error {
		crate, err := crates.Get(c.Params("name"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "crate not found")
			}
			return serverError(c, err)
		}
		return c.JSON(crate)
	})

	g.Get("/:name/owners", func(c *fiber.Ctx) error {
		crate, err := crates.Get(c.Params("name"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "crate not found")
			}
			return serverError(c, err)
		}
		owners, err := crates.UserOwners(crate.ID)
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(owners)
	})

	type ownerReq struct {
		Username string `json:"username"`
	}
	g.Post("/:name/owners", func(c *fiber.Ctx) error {
		var req ownerReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		crate, err := crates.Get(c.Params("name"))
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "crate not found")
			}
			return serverError(c, err)
		}
		user, err := users.Get(req.Username)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		if err = crates.AddOwner(crate.ID, user.ID, model.OwnerKindUser); err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_request", "error_description": "user already owns this crate"})
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusCreated)
	})
}
