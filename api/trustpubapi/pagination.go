package trustpubapi

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// pageRequest is a decoded seek pagination request. AfterID is the highest
// config ID of the previous page, or zero on the first page.
type pageRequest struct {
	PerPage int
	AfterID int64
	// Explicit is true when the request carried a seek parameter
	Explicit bool
}

func parsePageRequest(c *fiber.Ctx) (pageRequest, error) {
	page := pageRequest{PerPage: defaultPerPage}
	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return page, errors.New("invalid per_page parameter")
		}
		if perPage > maxPerPage {
			return page, errors.Errorf("cannot request more than %d items", maxPerPage)
		}
		page.PerPage = perPage
	}
	if raw := c.Query("seek"); raw != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return page, errors.New("invalid seek parameter")
		}
		afterID, err := strconv.ParseInt(string(decoded), 10, 64)
		if err != nil || afterID < 0 {
			return page, errors.New("invalid seek parameter")
		}
		page.AfterID = afterID
		page.Explicit = true
	}
	return page, nil
}

func encodeSeek(afterID int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(afterID, 10)))
}

// nextPageParams builds the query string for the next page, preserving the
// filter parameter of the current request.
func nextPageParams(c *fiber.Ctx, perPage int, afterID int64) string {
	params := fmt.Sprintf("per_page=%d&seek=%s", perPage, encodeSeek(afterID))
	if crate := c.Query("crate"); crate != "" {
		params = "crate=" + crate + "&" + params
	} else if userID := c.Query("user_id"); userID != "" {
		params = "user_id=" + userID + "&" + params
	}
	return "?" + params
}
