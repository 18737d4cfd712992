package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
	var _ sdktrace.SpanProcessor = (*telemetry.LogBridge)(nil)
}

func TestProvider_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := telemetry.NewProvider(mocks.NewMockLogger(ctrl))

	tracer := provider.Tracer(false)
	assert.IsType(t, &telemetry.NoOpTracer{}, tracer)

	ctx := context.Background()
	got, span := tracer.Start(ctx, "unit.source")
	assert.Equal(t, ctx, got)
	span.SetAttribute("unit.id", "styles")
	span.RecordError(errors.New("ignored"))
	span.End()

	require.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_RecordsSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	sr := tracetest.NewSpanRecorder()
	provider := telemetry.NewProvider(log, sdktrace.WithSpanProcessor(sr))

	tracer := provider.Tracer(true)
	ctx, parent := tracer.Start(context.Background(), "unit.source")
	parent.SetAttribute(telemetry.UnitIDAttribute, "styles")
	parent.SetAttribute("unit.blobs", 3)
	parent.SetAttribute("unit.complete", true)
	parent.SetAttribute("unit.ids", []string{"a", "b"})

	_, child := tracer.Start(ctx, "unit.generate")
	child.End()
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "unit.generate", ended[0].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())

	attrs := ended[1].Attributes()
	assert.Contains(t, attrs, attribute.String(telemetry.UnitIDAttribute, "styles"))
	assert.Contains(t, attrs, attribute.Int("unit.blobs", 3))
	assert.Contains(t, attrs, attribute.Bool("unit.complete", true))
	assert.Contains(t, attrs, attribute.StringSlice("unit.ids", []string{"a", "b"}))

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestLogBridge_FailedSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	sr := tracetest.NewSpanRecorder()
	provider := telemetry.NewProvider(log, sdktrace.WithSpanProcessor(sr))
	tracer := provider.Tracer(true)

	log.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.True(t, strings.HasPrefix(msg, "unit.generate [styles]: generation failed"), msg)
	}).Times(1)

	_, span := tracer.Start(context.Background(), "unit.generate")
	span.SetAttribute(telemetry.UnitIDAttribute, "styles")
	span.RecordError(errors.New("generation failed"))
	span.End()

	_, ok := tracer.Start(context.Background(), "unit.hash")
	ok.RecordError(nil)
	ok.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}
