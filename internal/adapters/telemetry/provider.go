// Package telemetry implements ports.Tracer with OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// InstrumentationName names the tracer that kiln spans are created with.
const InstrumentationName = "go.trai.ch/kiln"

// Provider lazily builds an SDK tracer provider whose failed spans are
// reported through the logger.
type Provider struct {
	logger ports.Logger
	opts   []sdktrace.TracerProviderOption

	mu sync.Mutex
	tp *sdktrace.TracerProvider
}

// NewProvider creates a Provider. opts are appended to the provider options,
// after the log bridge.
func NewProvider(logger ports.Logger, opts ...sdktrace.TracerProviderOption) *Provider {
	return &Provider{logger: logger, opts: opts}
}

// Tracer returns a no-op tracer unless enabled.
func (p *Provider) Tracer(enabled bool) ports.Tracer {
	if !enabled {
		return NewNoOpTracer()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tp == nil {
		opts := append([]sdktrace.TracerProviderOption{
			sdktrace.WithSpanProcessor(NewLogBridge(p.logger)),
		}, p.opts...)
		p.tp = sdktrace.NewTracerProvider(opts...)
	}
	return NewOTelTracer(p.tp.Tracer(InstrumentationName))
}

// Shutdown flushes and stops the SDK provider if one was built.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tp == nil {
		return nil
	}
	err := p.tp.Shutdown(ctx)
	p.tp = nil
	return err
}

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps an OpenTelemetry tracer.
func NewOTelTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OTelSpan{span: span}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span trace.Span
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span and marks it failed.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	case fmt.Stringer:
		s.span.SetAttributes(attribute.String(key, v.String()))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}
