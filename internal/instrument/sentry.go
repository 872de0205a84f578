package instrument

import (
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/config"
	"agency-cms/internal/router"
)

// NewSentryClient returns a Sentry client, or nil when no DSN is configured.
func NewSentryClient(cfg config.SentryConfig, release string) (*sentry.Client, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return client, nil
}

// Reporter returns an error reporter that captures err in Sentry tagged with
// the request. A nil client yields a reporter that does nothing.
func Reporter(client *sentry.Client) func(c *fiber.Ctx, err error) {
	return func(c *fiber.Ctx, err error) {
		if client == nil || err == nil {
			return
		}
		scope := sentry.NewScope()
		scope.SetTag("trace_id", GetTraceID(c.UserContext()))
		scope.SetTag("app", string(router.FromCtx(c)))
		scope.SetTag("method", c.Method())
		scope.SetTag("route", c.Route().Path)
		scope.SetExtra("path", c.Path())

		hub := sentry.NewHub(client, scope)
		if id := hub.CaptureException(err); id == nil {
			log.Printf("WARN: sentry dropped event for %v", err)
		}
	}
}

// FlushSentry waits up to timeout for buffered events to be sent.
func FlushSentry(client *sentry.Client, timeout time.Duration) {
	if client != nil {
		client.Flush(timeout)
	}
}
