package trustpubapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/auth"
)

// handleRevoke implements token revocation. The token authenticates itself;
// a CI job is expected to revoke its token once the publish is done instead
// of letting it reach its natural expiry.
func handleRevoke(deps Deps) fiber.Handler {
	authenticator := &auth.TokenAuthenticator{Tokens: deps.DB.Tokens}
	return func(c *fiber.Ctx) error {
		header := string(c.Request().Header.Peek("Authorization"))
		token, err := authenticator.Authenticate(header)
		if err != nil {
			if forbiddenErr, ok := err.(auth.ForbiddenError); ok {
				return forbidden(c, forbiddenErr.Error())
			}
			return serverError(c, err)
		}
		if err = deps.DB.Tokens.DeleteByHash(token.HashedToken); err != nil {
			return serverError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
