package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request identifier; an interrupted saga can be
// traced back to its request through it.
const RequestIDHeader = "X-Request-ID"

// RequestID ensures each request has a stable identifier, generating one when
// the caller did not supply it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Set(RequestIDHeader, id)
		}
		c.Locals(RequestIDHeader, id)
		return c.Next()
	}
}
