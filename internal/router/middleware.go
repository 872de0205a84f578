package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsKey = "app"

// backendPrefixes are served identically to both applications.
var backendPrefixes = []string{"/api", "/functions", "/storage", "/health", "/metrics"}

// Middleware records the routing decision in c.Locals("app") and, for
// development admin requests, rewrites /admin/... to the inner route.
func Middleware(env Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if IsBackend(path) {
			return c.Next()
		}

		host := c.Hostname()
		app := Decide(host, path, env)
		c.Locals(localsKey, app)
		c.Locals("admin_base", BasePath(host, env))

		if app == AppAdmin {
			if inner := StripAdminPrefix(host, path, env); inner != path {
				c.Path(inner)
			}
		}
		return c.Next()
	}
}

// FromCtx returns the application chosen for the request.
func FromCtx(c *fiber.Ctx) App {
	if app, ok := c.Locals(localsKey).(App); ok {
		return app
	}
	return AppPublic
}

// AdminBase returns the admin base path recorded by Middleware.
func AdminBase(c *fiber.Ctx) string {
	base, _ := c.Locals("admin_base").(string)
	return base
}

// IsBackend reports whether path belongs to an API surface shared by both applications.
func IsBackend(path string) bool {
	for _, p := range backendPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
