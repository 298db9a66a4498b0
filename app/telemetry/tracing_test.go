package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck())
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true})
	require.ErrorContains(t, err, "otlp endpoint")

	_, err = NewProvider(Config{Enabled: true, OTLPEndpoint: "http://localhost:4318", SampleRate: 2})
	require.ErrorContains(t, err, "sample rate")
}

func TestNewProvider_Tracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	p, err := NewProvider(Config{
		Enabled:      true,
		OTLPEndpoint: "http://localhost:4318",
		SampleRate:   1,
		Environment:  "test",
		ChainID:      "modelreg-test-1",
	})
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestStartQuerySpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartQuerySpan(context.Background(), "model_info", 7)
	AddSpanAttributes(span, attribute.String("rpc.grpc.status_code", "NotFound"))
	RecordError(span, errors.New("no model"))
	span.End()

	_, ok := StartModuleSpan(context.Background(), "registry", "init_genesis")
	SetSpanStatus(ok, true, "")
	ok.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	query := ended[0]
	require.Equal(t, "registry.query.model_info", query.Name())
	require.Equal(t, codes.Error, query.Status().Code)
	require.Contains(t, query.Attributes(), attribute.Int64("registry.requested_height", 7))
	require.Contains(t, query.Attributes(), attribute.String("registry.operation", "model_info"))
	require.Contains(t, query.Attributes(), attribute.String("rpc.grpc.status_code", "NotFound"))

	require.Equal(t, "module.registry.init_genesis", ended[1].Name())
	require.Equal(t, codes.Ok, ended[1].Status().Code)
}
