package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// PathParam returns the route parameter name with percent-escapes decoded.
// Opaque ids may contain '/' and '+', which clients escape in the path.
func PathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
