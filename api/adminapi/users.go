package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
)

// registerUsers wires handlers using a UsersStore abstraction.
func registerUsers(r fiber.Router, users model.UsersStore) {
	g := r.Group("/users")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := users.List()
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(list)
	})

	type createReq struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		if req.Username == "" || req.Password == "" {
			return invalidRequest(c, "username and password are required")
		}
		u, err := users.Create(req.Username, req.Password, req.DisplayName, req.Email)
		if err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_request", "error_description": "user already exists"})
			}
			return serverError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	type updateReq struct {
		DisplayName *string `json:"display_name"`
		Email       *string `json:"email"`
		Password    *string `json:"password"`
		Disabled    *bool   `json:"disabled"`
	}
	g.Put("/:username", func(c *fiber.Ctx) error {
		username := c.Params("username")
		var req updateReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		u, err := users.Update(username, req.DisplayName, req.Email, req.Password, req.Disabled)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.JSON(u)
	})

	g.Get("/:username", func(c *fiber.Ctx) error {
		username := c.Params("username")
		u, err := users.Get(username)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.JSON(u)
	})

	type verifyReq struct {
		Verified bool `json:"verified"`
	}
	g.Put("/:username/email_verification", func(c *fiber.Ctx) error {
		username := c.Params("username")
		var req verifyReq
		if err := c.BodyParser(&req); err != nil {
			return invalidRequest(c, "invalid body")
		}
		if err := users.SetEmailVerified(username, req.Verified); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	g.Delete("/:username", func(c *fiber.Ctx) error {
		username := c.Params("username")
		if err := users.Delete(username); err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return notFound(c, "user not found")
			}
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func invalidRequest(c *fiber.Ctx, description string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "error_description": description})
}

func notFound(c *fiber.Ctx, description string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "error_description": description})
}

func serverError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_error", "error_description": err.Error()})
}
