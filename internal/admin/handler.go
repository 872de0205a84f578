package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/cmsclient"
	"agency-cms/internal/content"
	"agency-cms/internal/engine"
	"agency-cms/internal/instrument"
)

// SidebarCookie stores the admin sidebar collapse preference.
const SidebarCookie = "admin_sidebar_collapsed"

// SMTPTester sends a test message through the email function.
type SMTPTester interface {
	Test(ctx context.Context, smtp content.SMTPSettings) (cmsclient.EmailResult, error)
}

// SMTPSource returns the stored SMTP settings.
type SMTPSource interface {
	List(ctx context.Context, scope content.Scope) ([]content.SMTPSettings, error)
}

// Preferences are per-browser admin UI settings.
type Preferences struct {
	SidebarCollapsed bool `json:"sidebar_collapsed"`
}

type Handler struct {
	editors *Editors
	smtp    SMTPSource
	tester  SMTPTester
	secure  bool
}

func NewHandler(editors *Editors, smtp SMTPSource, tester SMTPTester, secureCookie bool) *Handler {
	return &Handler{editors: editors, smtp: smtp, tester: tester, secure: secureCookie}
}

// RegisterAdminRoutes mounts the admin API. mw runs before every route and
// is expected to enforce the admin session.
func RegisterAdminRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	admin := app.Group("/api/admin", mw...)

	admin.Get("/editors", h.Collections)
	admin.Get("/editors/:collection", h.List)
	admin.Post("/editors/:collection/save", h.Save)
	admin.Post("/editors/:collection/reorder", h.Reorder)
	admin.Post("/editors/:collection/:id/values", h.Values)
	admin.Delete("/editors/:collection/:id", h.Delete)

	admin.Post("/smtp/test", h.TestSMTP)

	admin.Get("/preferences", h.GetPreferences)
	admin.Put("/preferences", h.PutPreferences)
}

// --- Editor Endpoints ---

func (h *Handler) Collections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.editors.Names()})
}

func (h *Handler) List(c *fiber.Ctx) error {
	ep, err := h.editors.resolve(c)
	if err != nil {
		return err
	}
	return ep.list(c)
}

func (h *Handler) Save(c *fiber.Ctx) error {
	ep, err := h.editors.resolve(c)
	if err != nil {
		return err
	}
	return ep.save(c)
}

func (h *Handler) Reorder(c *fiber.Ctx) error {
	ep, err := h.editors.resolve(c)
	if err != nil {
		return err
	}
	return ep.reorder(c)
}

func (h *Handler) Values(c *fiber.Ctx) error {
	ep, err := h.editors.resolve(c)
	if err != nil {
		return err
	}
	return ep.values(c)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	ep, err := h.editors.resolve(c)
	if err != nil {
		return err
	}
	return ep.remove(c)
}

// --- SMTP ---

// TestSMTP sends a test message. The body may carry {"smtp": {...}} to test
// unsaved settings; otherwise the active stored settings are used.
func (h *Handler) TestSMTP(c *fiber.Ctx) error {
	var body struct {
		SMTP *content.SMTPSettings `json:"smtp"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return engine.InvalidPayloadError("Invalid JSON body")
		}
	}

	smtp := body.SMTP
	if smtp == nil {
		rows, err := h.smtp.List(c.UserContext(), content.Where("is_active", true))
		if err != nil {
			return unwrapAppError(err)
		}
		if len(rows) == 0 {
			return engine.NewAppError("SMTP_NOT_CONFIGURED", fiber.StatusBadRequest, "No active SMTP settings")
		}
		smtp = &rows[0]
	}

	ctx := c.UserContext()
	result, err := h.tester.Test(ctx, *smtp)
	if errors.Is(err, cmsclient.ErrTimeout) {
		return engine.TimeoutError("The SMTP test did not finish in time")
	}
	if err != nil {
		log.Printf("WARN: smtp test via email function: %v", err)
		return unwrapAppError(err)
	}
	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": engine.NewAppError("SMTP_TEST_FAILED", fiber.StatusBadGateway, result.Error),
			"data":  result,
		})
	}
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "smtp.tested", "smtp_settings")
	return c.JSON(fiber.Map{"data": result})
}

// --- Preferences ---

func (h *Handler) GetPreferences(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": readPreferences(c)})
}

func (h *Handler) PutPreferences(c *fiber.Ctx) error {
	var prefs Preferences
	if err := json.Unmarshal(c.Body(), &prefs); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	c.Cookie(&fiber.Cookie{
		Name:     SidebarCookie,
		Value:    strconv.FormatBool(prefs.SidebarCollapsed),
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": prefs})
}

func readPreferences(c *fiber.Ctx) Preferences {
	collapsed, _ := strconv.ParseBool(c.Cookies(SidebarCookie))
	return Preferences{SidebarCollapsed: collapsed}
}
