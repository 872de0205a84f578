package mailer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/content"
)

// FunctionRequest is the body of POST /functions/v1/send-email.
type FunctionRequest struct {
	SMTP    content.SMTPSettings `json:"smtp"`
	To      []string             `json:"to"`
	Subject string               `json:"subject"`
	HTML    string               `json:"html"`
}

// FunctionResponse reports the delivery outcome.
type FunctionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FunctionHandler serves the email function.
type FunctionHandler struct {
	sender  Sender
	timeout time.Duration
}

func NewFunctionHandler(sender Sender, timeout time.Duration) *FunctionHandler {
	return &FunctionHandler{sender: sender, timeout: timeout}
}

// SendEmail handles POST /functions/v1/send-email?action=test|send
func (h *FunctionHandler) SendEmail(c *fiber.Ctx) error {
	var req FunctionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(FunctionResponse{Error: "invalid request body"})
	}

	var msg Message
	switch c.Query("action", "send") {
	case "test":
		to := req.To
		if len(to) == 0 && req.SMTP.FromEmail != "" {
			to = []string{req.SMTP.FromEmail}
		}
		msg = Message{
			To:      to,
			Subject: "SMTP test",
			HTML:    "<p>Your SMTP settings are working.</p>",
		}
	case "send":
		msg = Message{To: req.To, Subject: req.Subject, HTML: req.HTML}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(FunctionResponse{Error: "unknown action"})
	}

	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.sender.Send(ctx, req.SMTP, msg); err != nil {
		log.Printf("WARN: send-email (%s) failed: %v", c.Query("action", "send"), err)
		status := fiber.StatusBadGateway
		if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrNoRecipients) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(FunctionResponse{Error: err.Error()})
	}
	return c.JSON(FunctionResponse{Success: true})
}

// RegisterRoutes mounts the email function.
func RegisterRoutes(app *fiber.App, h *FunctionHandler, mw ...fiber.Handler) {
	handlers := append(mw, h.SendEmail)
	app.Post("/functions/v1/send-email", handlers...)
}
