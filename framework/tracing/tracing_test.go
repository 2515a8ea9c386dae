package tracing_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/tracing"
)

func TestNewProvider_Disabled(t *testing.T) {
	for _, exporter := range []string{"", "none"} {
		provider, err := tracing.NewProvider(context.Background(), config.TraceConfig{Exporter: exporter}, nil)
		require.NoError(t, err)
		require.False(t, provider.Enabled())

		// Creating spans should not panic
		_, span := provider.Tracer().Start(context.Background(), "container.build")
		require.False(t, span.SpanContext().IsValid(), "no-op spans carry no context")
		span.End()

		provider.Install()
		require.NoError(t, provider.Shutdown(context.Background()))
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	provider, err := tracing.NewProvider(context.Background(), config.TraceConfig{
		Exporter:    "stdout",
		ServiceName: "kennel",
	}, &buf)
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "container.build")
	sc := span.SpanContext()
	require.True(t, sc.IsValid(), "span context should be valid")
	span.End()

	// Shutdown flushes the batcher
	require.NoError(t, provider.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "container.build")
	require.Contains(t, buf.String(), "kennel")
}

func TestNewProvider_OTLPExporterIsLazy(t *testing.T) {
	// the grpc exporter does not dial until spans are exported
	provider, err := tracing.NewProvider(context.Background(), config.TraceConfig{
		Exporter:     "otlp",
		OTLPEndpoint: "127.0.0.1:1",
		SampleRate:   0.5,
	}, nil)
	require.NoError(t, err)
	require.True(t, provider.Enabled())
	require.NotNil(t, provider.Tracer())
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := tracing.NewProvider(context.Background(), config.TraceConfig{Exporter: "jaeger"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter type: jaeger")
}
