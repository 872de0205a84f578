package auth

import (
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/engine"
	"agency-cms/internal/router"
)

const (
	SessionCookie = "admin_session"
	APIKeyHeader  = "apikey"
	localsUser    = "user"
)

// SessionFromCookie treats a present and parseable session cookie as
// authenticated.
func SessionFromCookie(c *fiber.Ctx, secret string) (User, bool) {
	raw := c.Cookies(SessionCookie)
	if raw == "" {
		return User{}, false
	}
	user, err := ParseSessionToken(raw, secret)
	if err != nil {
		return User{}, false
	}
	return user, true
}

// RequireSession rejects requests without a valid admin session.
func RequireSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := SessionFromCookie(c, secret)
		if !ok {
			return engine.UnauthorizedError("Authentication required")
		}
		c.Locals(localsUser, user)
		return c.Next()
	}
}

// RequireReadAccess accepts either the backend API key or an admin session.
func RequireReadAccess(apiKey, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key := c.Get(APIKeyHeader); key != "" && key == apiKey {
			return c.Next()
		}
		if user, ok := SessionFromCookie(c, secret); ok {
			c.Locals(localsUser, user)
			return c.Next()
		}
		return engine.UnauthorizedError("Missing API key or session")
	}
}

// GetUser returns the session user set by RequireSession.
func GetUser(c *fiber.Ctx) (User, bool) {
	user, ok := c.Locals(localsUser).(User)
	return user, ok
}

// AdminShellGuard redirects admin shell navigation: unauthenticated requests
// go to <base>/login, authenticated visits to /login go to <base>/.
// Requests for the public application pass through.
func AdminShellGuard(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if router.FromCtx(c) != router.AppAdmin {
			return c.Next()
		}
		base := router.AdminBase(c)
		_, authed := SessionFromCookie(c, secret)
		target := ShellRedirect(c.Path(), authed, base)
		if target != "" {
			return c.Redirect(target, fiber.StatusFound)
		}
		return c.Next()
	}
}

// ShellRedirect returns where an admin shell request for route should go, or
// "" when it may be served as is. route is the inner route, without base.
// Static assets are never redirected.
func ShellRedirect(route string, authed bool, base string) string {
	if path.Ext(route) != "" {
		return ""
	}
	isLogin := strings.TrimSuffix(route, "/") == "/login"
	switch {
	case !authed && !isLogin:
		return base + "/login"
	case authed && isLogin:
		return base + "/"
	default:
		return ""
	}
}
