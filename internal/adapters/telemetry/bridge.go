package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// UnitIDAttribute is the span attribute carrying the unit identity.
const UnitIDAttribute = "unit.id"

// LogBridge implements sdktrace.SpanProcessor by reporting failed spans as
// warnings.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs spans that ended with an error status.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || s.Status().Code != codes.Error {
		return
	}

	desc := s.Status().Description
	if desc == "" {
		desc = "failed"
	}

	name := s.Name()
	for _, kv := range s.Attributes() {
		if string(kv.Key) == UnitIDAttribute {
			name = fmt.Sprintf("%s [%s]", name, kv.Value.AsString())
			break
		}
	}
	b.logger.Warn(fmt.Sprintf("%s: %s (%s)", name, desc, s.EndTime().Sub(s.StartTime())))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}
