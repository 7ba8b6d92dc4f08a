package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// LocalKey is the fiber.Ctx local holding the ray id.
	LocalKey = "ray_id"
	// Header is the request and response header carrying the ray id.
	Header = "X-Ray-ID"
)

// New returns a middleware that tags every request with a ray id. An id sent
// by the caller is reused.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
