package instrument

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/router"
)

// TraceHeader carries the trace ID in and out of the server.
const TraceHeader = "X-Trace-ID"

// Middleware returns a Fiber middleware that propagates a trace ID, injects
// the instrumenter into the request context and records request metrics.
// A nil Metrics disables recording but trace IDs are still issued.
func Middleware(m *Metrics) fiber.Handler {
	var inst Instrumenter = &NoopInstrumenter{}
	if m != nil {
		inst = NewInstrumenter(m)
	}
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceHeader)
		if traceID == "" {
			traceID = newTraceID()
		}

		ctx := WithTraceID(c.UserContext(), traceID)
		ctx = WithInstrumenter(ctx, inst)
		c.SetUserContext(ctx)
		c.Set(TraceHeader, traceID)

		start := time.Now()
		err := c.Next()
		if m == nil {
			return err
		}

		// The error handler has not run yet, so derive the status from err.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if code, ok := statusOf(err); ok {
				status = code
			}
		}

		route := c.Route().Path
		if status == fiber.StatusNotFound && route == "/" {
			route = "unmatched"
		}
		app := string(router.FromCtx(c))
		m.RequestsTotal.WithLabelValues(app, c.Method(), route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(app, route).Observe(time.Since(start).Seconds())
		return err
	}
}

type statusError interface{ HTTPStatus() int }

func statusOf(err error) (int, bool) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	var se statusError
	if errors.As(err, &se) {
		return se.HTTPStatus(), true
	}
	return 0, false
}
