package instrument

import "context"

// NoopInstrumenter discards all spans. Used when no instrumenter is set on
// the request context, such as in CLI commands and tests.
type NoopInstrumenter struct{}

func (n *NoopInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	return ctx, &NoopSpan{traceID: GetTraceID(ctx)}
}

func (n *NoopInstrumenter) EmitBusinessEvent(ctx context.Context, action, entity string) {}

// NoopSpan discards all data.
type NoopSpan struct{ traceID string }

func (n *NoopSpan) End()                    {}
func (n *NoopSpan) SetStatus(status string) {}
func (n *NoopSpan) TraceID() string         { return n.traceID }
