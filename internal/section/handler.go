package section

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/engine"
)

// Handler serves public section content.
type Handler struct {
	loader *Loader
}

func NewHandler(loader *Loader) *Handler {
	return &Handler{loader: loader}
}

// Get handles GET /api/site/sections/:section
func (h *Handler) Get(c *fiber.Ctx) error {
	p, err := h.loader.Load(c.UserContext(), c.Params("section"))
	if errors.Is(err, ErrUnknownSection) {
		return engine.NewAppError("UNKNOWN_SECTION", fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": p})
}

// Page handles GET /api/site/page
func (h *Handler) Page(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.loader.Page(c.UserContext())})
}

// RegisterRoutes mounts the public section endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	site := app.Group("/api/site")
	site.Get("/page", h.Page)
	site.Get("/sections/:section", h.Get)
}
