package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/types"
)

// APIVersion is the version served when a request does not ask for one
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, rejects unsupported major versions and
// echoes the served version back
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := strings.TrimSpace(c.Get("X-Api-Version", APIVersion))

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = APIVersion
		}
		if !strings.HasPrefix(version, "1.") {
			return types.Validation("unsupported API version %q", version)
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
