// Package site serves the public site's interactive endpoints: the contact
// form, the cookie-consent choice and the consent-gated tracking pixel.
package site

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/consent"
	"agency-cms/internal/content"
	"agency-cms/internal/engine"
	"agency-cms/internal/instrument"
	"agency-cms/internal/mailer"
	"agency-cms/internal/tracking"
)

// ContactSubmitter delivers a contact form.
type ContactSubmitter interface {
	Submit(ctx context.Context, form mailer.ContactForm) error
}

// ConsentSettings lists the cookie banner configuration rows.
type ConsentSettings interface {
	List(ctx context.Context, scope content.Scope) ([]content.CookieConsentSettings, error)
}

type Handler struct {
	contact  ContactSubmitter
	settings ConsentSettings
	pixels   *tracking.Provider
	secure   bool
}

func NewHandler(contact ContactSubmitter, settings ConsentSettings, pixels *tracking.Provider, secureCookie bool) *Handler {
	return &Handler{contact: contact, settings: settings, pixels: pixels, secure: secureCookie}
}

// RegisterRoutes mounts the public interactive endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	site := app.Group("/api/site")

	site.Post("/contact", h.Contact)

	site.Get("/consent", h.GetConsent)
	site.Post("/consent", h.SaveConsent)
	site.Delete("/consent", h.ResetConsent)

	site.Get("/tracking", h.Tracking)
	site.Post("/tracking/pageview", h.PageView)
}

// --- Contact ---

func (h *Handler) Contact(c *fiber.Ctx) error {
	var form mailer.ContactForm
	if err := json.Unmarshal(c.Body(), &form); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	if bad := form.Validate(); len(bad) > 0 {
		details := make([]engine.ErrorDetail, len(bad))
		for i, f := range bad {
			details[i] = engine.ErrorDetail{Field: f, Rule: "required", Message: f + " is missing or invalid"}
		}
		return engine.ValidationError(details)
	}

	ctx := c.UserContext()
	err := h.contact.Submit(ctx, form)
	switch {
	case errors.Is(err, mailer.ErrNotConfigured), errors.Is(err, mailer.ErrNoRecipients):
		log.Printf("WARN: contact form received but delivery is not set up: %v", err)
		return engine.NewAppError("CONTACT_UNAVAILABLE", fiber.StatusServiceUnavailable,
			"The contact form is temporarily unavailable")
	case err != nil:
		log.Printf("ERROR: contact form delivery: %v", err)
		return engine.NewAppError("DELIVERY_FAILED", fiber.StatusBadGateway, "Your message could not be sent")
	}
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "contact.submitted", "contact_form")
	return c.JSON(fiber.Map{"data": fiber.Map{"sent": true}})
}

// --- Consent ---

type consentRequest struct {
	Action    string `json:"action"`
	Analytics bool   `json:"analytics"`
	Marketing bool   `json:"marketing"`
}

// banner returns the active consent settings, falling back to built-in copy.
func (h *Handler) banner(ctx context.Context) content.CookieConsentSettings {
	def := content.CookieConsentSettings{
		Title:       "Cookies",
		Message:     "We use cookies to measure traffic and improve the site.",
		AcceptText:  "Accept all",
		DeclineText: "Decline",
		Version:     consent.DefaultVersion,
		IsActive:    true,
	}
	rows, err := h.settings.List(ctx, content.Scope{VisibleOnly: true})
	if err != nil {
		log.Printf("WARN: load cookie consent settings: %v", err)
		return def
	}
	if len(rows) == 0 {
		return def
	}
	row := rows[0]
	if strings.TrimSpace(row.Version) == "" {
		row.Version = consent.DefaultVersion
	}
	return row
}

func (h *Handler) store(ctx context.Context) (*consent.Store, content.CookieConsentSettings) {
	b := h.banner(ctx)
	return consent.NewStore(b.Version, h.secure), b
}

func (h *Handler) GetConsent(c *fiber.Ctx) error {
	st, banner := h.store(c.UserContext())
	record, state := st.Read(c)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"version": st.Version,
		"record":  record,
		"state":   state,
		"banner":  banner,
	}})
}

// SaveConsent handles POST /api/site/consent with action accept, decline or custom.
func (h *Handler) SaveConsent(c *fiber.Ctx) error {
	var req consentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return engine.InvalidPayloadError("Invalid JSON body")
	}
	st, _ := h.store(c.UserContext())

	var (
		state consent.State
		err   error
	)
	switch consent.Value(req.Action) {
	case consent.Accepted, "accept":
		state, err = st.AcceptAll(c)
	case consent.Declined, "decline":
		state, err = st.DeclineAll(c)
	case consent.Custom:
		state, err = st.Save(c, consent.Choice{Analytics: req.Analytics, Marketing: req.Marketing})
	default:
		return engine.InvalidPayloadError("action must be accept, decline or custom")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"version": st.Version, "state": state}})
}

func (h *Handler) ResetConsent(c *fiber.Ctx) error {
	st, _ := h.store(c.UserContext())
	return c.JSON(fiber.Map{"data": fiber.Map{"version": st.Version, "state": st.Reset(c)}})
}

// --- Tracking ---

// Tracking returns the pixel snippet for the visitor's consent state. The
// pixel id is only exposed once analytics consent is granted.
func (h *Handler) Tracking(c *fiber.Ctx) error {
	ctx := c.UserContext()
	st, _ := h.store(ctx)
	_, state := st.Read(c)

	cfg, err := h.pixels.Config(ctx)
	if err != nil {
		log.Printf("WARN: %v", err)
	}
	data := fiber.Map{
		"enabled": cfg.Enabled() && state.HasAnalyticsConsent,
		"consent": state,
		"snippet": string(tracking.Snippet(cfg, state)),
	}
	if state.HasAnalyticsConsent {
		data["pixel_id"] = cfg.PixelID
	}
	return c.JSON(fiber.Map{"data": data})
}

func (h *Handler) PageView(c *fiber.Ctx) error {
	var body struct {
		Path string `json:"path"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return engine.InvalidPayloadError("Invalid JSON body")
		}
	}

	ctx := c.UserContext()
	st, _ := h.store(ctx)
	_, state := st.Read(c)
	cfg, err := h.pixels.Config(ctx)
	if err != nil {
		log.Printf("WARN: %v", err)
	}

	event, ok := tracking.PageView(cfg, state, body.Path)
	if !ok {
		return c.JSON(fiber.Map{"data": fiber.Map{"tracked": false}})
	}
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "tracking.pageview", tracking.IntegrationType)
	return c.JSON(fiber.Map{"data": fiber.Map{"tracked": true, "event": event}})
}
