package errclass

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"agency-cms/internal/engine"
)

//go:embed templates/error.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/error.html"))

// Reporter receives unexpected errors, such as recovered panics.
type Reporter func(c *fiber.Ctx, err error)

// apiPrefixes always get JSON errors.
var apiPrefixes = []string{"/api/", "/functions/", "/storage/"}

// ErrorHandler is the central Fiber error handler. Known application errors
// keep their JSON envelope; HTML navigations get the rendered error page.
// Errors that are neither AppError nor fiber.Error are logged and reported.
func ErrorHandler(report Reporter) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)
		if appErr.Status >= 500 {
			var fe *fiber.Error
			if !errors.As(err, &fe) {
				log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
				if report != nil {
					report(c, err)
				}
			}
		}

		if wantsHTML(c) {
			in := Input{Status: appErr.Status, Code: appErr.Code, Message: appErr.Message}
			return RenderPage(c, PageFor(in.Kind(), MatchLanguage(c.Get(fiber.HeaderAcceptLanguage))), appErr.Status)
		}
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}
}

// Boundary recovers panics in later handlers. The stack is logged here and
// the panic continues to ErrorHandler as a plain error.
func Boundary() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Printf("PANIC: %s %s: %v\n%s", c.Method(), c.Path(), e, debug.Stack())
		},
	})
}

// RenderPage writes page as HTML with status.
func RenderPage(c *fiber.Ctx, page Page, status int) error {
	var buf bytes.Buffer
	data := struct {
		Lang string
		Page Page
	}{page.lang.String(), page}
	if err := pageTmpl.Execute(&buf, data); err != nil {
		log.Printf("ERROR: render error page: %v", err)
		return c.Status(status).SendString(page.Title)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

func toAppError(err error) *engine.AppError {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &engine.AppError{Code: codeForStatus(fe.Code), Status: fe.Code, Message: fe.Message}
	}
	return &engine.AppError{Code: "INTERNAL_ERROR", Status: fiber.StatusInternalServerError, Message: "Internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusServiceUnavailable:
		return "UNAVAILABLE"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "ERROR"
}

func wantsHTML(c *fiber.Ctx) bool {
	path := c.Path()
	for _, p := range apiPrefixes {
		if strings.HasPrefix(path+"/", p) {
			return false
		}
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), "text/html")
}

// Handler exposes classification to the browser applications.
type Handler struct{}

// Classify handles POST /api/errors/classify
func (Handler) Classify(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return engine.InvalidPayloadError("Invalid request body")
	}
	lang := MatchLanguage(c.Get(fiber.HeaderAcceptLanguage))
	cl := Classify(in, lang)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"classification": cl,
		"page":           PageFor(cl.Kind, lang).Resolve(!in.Offline),
	}})
}

// Page handles GET /api/errors/pages/:kind?online=false
func (Handler) Page(c *fiber.Ctx) error {
	lang := MatchLanguage(c.Get(fiber.HeaderAcceptLanguage))
	page := PageFor(Kind(c.Params("kind")), lang).Resolve(c.QueryBool("online", true))
	return c.JSON(fiber.Map{"data": page})
}

// RegisterRoutes mounts the classification endpoints.
func RegisterRoutes(app *fiber.App) {
	var h Handler
	app.Post("/api/errors/classify", h.Classify)
	app.Get("/api/errors/pages/:kind", h.Page)
}
