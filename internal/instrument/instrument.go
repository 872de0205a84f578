// Package instrument provides request tracing, Prometheus metrics and error
// reporting.
package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	instrumenterKey
)

// Instrumenter defines the tracing API handlers use.
type Instrumenter interface {
	StartSpan(ctx context.Context, source, component, action string) (context.Context, Span)
	EmitBusinessEvent(ctx context.Context, action, entity string)
}

// Span is a timed operation.
type Span interface {
	End()
	SetStatus(status string)
	TraceID() string
}

func newTraceID() string {
	return uuid.New().String()
}

// WithTraceID sets the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithInstrumenter sets the instrumenter in the context.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the instrumenter from the context,
// or a NoopInstrumenter if none is set.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if v, ok := ctx.Value(instrumenterKey).(Instrumenter); ok {
		return v
	}
	return &NoopInstrumenter{}
}

// PromInstrumenter records spans and events in Prometheus collectors.
type PromInstrumenter struct {
	metrics *Metrics
}

func NewInstrumenter(m *Metrics) *PromInstrumenter {
	return &PromInstrumenter{metrics: m}
}

// StartSpan starts timing an operation. The span is observed when End is called.
func (i *PromInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	return ctx, &promSpan{
		traceID:   GetTraceID(ctx),
		labels:    [3]string{source, component, action},
		status:    "ok",
		startTime: time.Now(),
		hist:      i.metrics.OperationDuration,
	}
}

// EmitBusinessEvent counts a one-shot domain event.
func (i *PromInstrumenter) EmitBusinessEvent(_ context.Context, action, entity string) {
	i.metrics.BusinessEvents.WithLabelValues(action, entity).Inc()
}

type promSpan struct {
	traceID   string
	labels    [3]string
	status    string
	startTime time.Time
	hist      *prometheus.HistogramVec
	mu        sync.Mutex
	ended     bool
}

func (s *promSpan) TraceID() string { return s.traceID }

func (s *promSpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *promSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.hist.WithLabelValues(s.labels[0], s.labels[1], s.labels[2], s.status).
		Observe(time.Since(s.startTime).Seconds())
}
