package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/engine"
)

// Handler serves the admin login endpoints.
type Handler struct {
	gate   *Gate
	secret string
	ttl    time.Duration
	secure bool
}

func NewHandler(gate *Gate, secret string, ttl time.Duration, secureCookie bool) *Handler {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Handler{gate: gate, secret: secret, ttl: ttl, secure: secureCookie}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError("Invalid request body")
	}

	user, err := h.gate.Login(c.UserContext(), body.Username, body.Password)
	if errors.Is(err, ErrLoginTimeout) {
		return engine.TimeoutError(ErrLoginTimeout.Error())
	}
	if err != nil {
		return engine.UnauthorizedError(ErrInvalidCredentials.Error())
	}

	token, err := GenerateSessionToken(user, h.secret, h.ttl)
	if err != nil {
		return engine.NewAppError("INTERNAL_ERROR", 500, "Failed to create session")
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.ttl),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": user})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(c *fiber.Ctx) error {
	user, ok := SessionFromCookie(c, h.secret)
	if !ok {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": user})
}

// RegisterRoutes registers auth routes on the given Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	auth := app.Group("/api/auth")
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/session", h.Session)
}
