package server

import (
	"strconv"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/gofiber/fiber/v2"
)

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("%s must be a positive integer", name)
	}
	return id, nil
}

// BindJSON parses the request body into v.
func BindJSON(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperr.Invalid("malformed body: %v", err)
	}
	return nil
}
