package trustpubapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
)

// requireUser authenticates the request via HTTP Basic authentication and
// returns the user. When authentication fails the error response has already
// been written and the returned user is nil.
func requireUser(c *fiber.Ctx, users model.UsersStore) (*model.User, error) {
	username, password, ok := parseBasicAuth(c)
	if !ok {
		c.Set("WWW-Authenticate", "Basic realm=registry")
		return nil, forbidden(c, "this action requires authentication")
	}
	user, err := users.Authenticate(username, password)
	if err != nil {
		c.Set("WWW-Authenticate", "Basic realm=registry")
		return nil, forbidden(c, "this action requires authentication")
	}
	return user, nil
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	auth := string(c.Request().Header.Peek("Authorization"))
	if auth == "" {
		return "", "", false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(b)
	i := strings.IndexByte(creds, ':')
	if i < 0 {
		return "", "", false
	}
	return creds[:i], creds[i+1:], true
}
