package trustpubapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/craterio/registry/auth"
	"github.com/craterio/registry/storage/model"
)

// ErrorDetail is a single error message in an API error response.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// ErrorBody is the JSON body of all API error responses.
type ErrorBody struct {
	Errors []ErrorDetail `json:"errors"`
}

func errorJSON(c *fiber.Ctx, status int, detail string) error {
	return c.Status(status).JSON(ErrorBody{Errors: []ErrorDetail{{Detail: detail}}})
}

func badRequest(c *fiber.Ctx, detail string) error {
	return errorJSON(c, fiber.StatusBadRequest, detail)
}

func forbidden(c *fiber.Ctx, detail string) error {
	return errorJSON(c, fiber.StatusForbidden, detail)
}

func notFound(c *fiber.Ctx, detail string) error {
	return errorJSON(c, fiber.StatusNotFound, detail)
}

func conflict(c *fiber.Ctx, detail string) error {
	return errorJSON(c, fiber.StatusConflict, detail)
}

func serverError(c *fiber.Ctx, err error) error {
	log.WithError(err).Error("internal server error")
	return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
}

// ErrorHandler renders errors that escape a handler in the API error
// envelope. It is meant to be used as the fiber.Config ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return errorJSON(c, fiberErr.Code, fiberErr.Message)
	}
	var notFoundErr model.NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFound(c, notFoundErr.Error())
	}
	var existsErr model.AlreadyExistsError
	if errors.As(err, &existsErr) {
		return conflict(c, existsErr.Error())
	}
	var forbiddenErr auth.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return forbidden(c, forbiddenErr.Error())
	}
	return serverError(c, err)
}
