package engine

import (
	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/metadata"
)

// Handler serves the generic tables API used by the section loaders, the
// remote client and the admin editors.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// entityHandler receives the entity named by the :entity route parameter.
type entityHandler func(c *fiber.Ctx, entity *metadata.Entity) error

func (h *Handler) withEntity(next entityHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entity, err := h.repo.Entity(c.Params("entity"))
		if err != nil {
			return err
		}
		return next(c, entity)
	}
}

// readGuard applies privateMW to reads of private entities and readMW to the
// rest. Unknown entities fall through to readMW and then 404.
func (h *Handler) readGuard(readMW, privateMW fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if entity, err := h.repo.Entity(c.Params("entity")); err == nil && entity.Private {
			return privateMW(c)
		}
		return readMW(c)
	}
}

func decodeRecord(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil || body == nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	return body, nil
}

// List handles GET /api/tables/:entity.
func (h *Handler) List(c *fiber.Ctx) error {
	return h.withEntity(func(c *fiber.Ctx, entity *metadata.Entity) error {
		plan, err := ParseQueryParams(c, entity)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		rows, err := h.repo.Find(ctx, plan)
		if err != nil {
			return err
		}
		total, err := h.repo.Count(ctx, plan)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"data": rows,
			"meta": fiber.Map{"limit": plan.Limit, "offset": plan.Offset, "total": total},
		})
	})(c)
}

// GetByID handles GET /api/tables/:entity/:id.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	return h.withEntity(func(c *fiber.Ctx, entity *metadata.Entity) error {
		row, err := h.repo.fetch(c.UserContext(), entity, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": row})
	})(c)
}

// Create handles POST /api/tables/:entity.
func (h *Handler) Create(c *fiber.Ctx) error {
	return h.withEntity(func(c *fiber.Ctx, entity *metadata.Entity) error {
		body, err := decodeRecord(c)
		if err != nil {
			return err
		}
		row, err := h.repo.Insert(c.UserContext(), entity.Name, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": row})
	})(c)
}

// Update handles PATCH /api/tables/:entity/:id. Only the sent fields change.
func (h *Handler) Update(c *fiber.Ctx) error {
	return h.withEntity(func(c *fiber.Ctx, entity *metadata.Entity) error {
		body, err := decodeRecord(c)
		if err != nil {
			return err
		}
		row, err := h.repo.Update(c.UserContext(), entity.Name, c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": row})
	})(c)
}

// Delete handles DELETE /api/tables/:entity/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	return h.withEntity(func(c *fiber.Ctx, entity *metadata.Entity) error {
		id := c.Params("id")
		if err := h.repo.Delete(c.UserContext(), entity.Name, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
	})(c)
}

// Entities handles GET /api/tables.
func (h *Handler) Entities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.repo.Registry().AllEntities()})
}
