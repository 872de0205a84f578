package engine

import "github.com/gofiber/fiber/v2"

// RegisterTableRoutes mounts the tables API. Reads go through readMW (API
// key or session), writes and reads of private entities through writeMW
// (session only).
func RegisterTableRoutes(app *fiber.App, h *Handler, readMW, writeMW fiber.Handler) {
	tables := app.Group("/api/tables")

	entityRead := h.readGuard(readMW, writeMW)
	tables.Get("/", readMW, h.Entities)
	tables.Get("/:entity", entityRead, h.List)
	tables.Get("/:entity/:id", entityRead, h.GetByID)
	tables.Post("/:entity", writeMW, h.Create)
	tables.Patch("/:entity/:id", writeMW, h.Update)
	tables.Delete("/:entity/:id", writeMW, h.Delete)
}

// RegisterStorageRoutes mounts the media upload API and serves stored files.
func RegisterStorageRoutes(app *fiber.App, h *FileHandler, readMW, writeMW fiber.Handler) {
	st := app.Group("/api/storage")
	st.Get("/library", readMW, h.List)
	st.Post("/upload", writeMW, h.Upload)
	st.Delete("/object", writeMW, h.Delete)

	app.Get(h.publicPath+"/*", h.Serve)
}
