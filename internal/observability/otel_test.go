package observability

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestStorefrontResourceCarriesDeploymentAttributes(t *testing.T) {
	res, err := storefrontResource(context.Background(), OpenTelemetryConfig{
		ServiceName: "storefrontd",
		ServiceVer:  "1.4.0",
		Environment: "staging",
		CustodyMode: "memory",
	})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "storefrontd", name.AsString())
	env, ok := set.Value(semconv.DeploymentEnvironmentNameKey)
	require.True(t, ok)
	assert.Equal(t, "staging", env.AsString())
	mode, ok := set.Value(attribute.Key("storefront.custody.mode"))
	require.True(t, ok)
	assert.Equal(t, "memory", mode.AsString())
}

func TestStorefrontResourceOmitsUnsetAttributes(t *testing.T) {
	res, err := storefrontResource(context.Background(), OpenTelemetryConfig{ServiceName: "storefrontd"})
	require.NoError(t, err)

	_, ok := res.Set().Value(semconv.DeploymentEnvironmentNameKey)
	assert.False(t, ok)
	_, ok = res.Set().Value(attribute.Key("storefront.custody.mode"))
	assert.False(t, ok)
}

func TestStorefrontSpanProcessorTagsChildSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(storefrontSpanProcessor{}),
		sdktrace.WithSpanProcessor(recorder),
	)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	tracer := provider.Tracer("storefront/test")

	ctx := WithStorefront(context.Background(), "sf-7")
	ctx = context.WithValue(ctx, operationKey, "purchase")
	_, tagged := tracer.Start(ctx, "db.GetListing")
	tagged.End()
	_, plain := tracer.Start(context.Background(), "db.ListPendingEvents")
	plain.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	attrs := spanAttributes(ended[0])
	assert.Equal(t, "sf-7", attrs["storefront.id"])
	assert.Equal(t, "purchase", attrs["storefront.operation"])
	assert.NotContains(t, spanAttributes(ended[1]), "storefront.id")
}

func TestSetupOpenTelemetryDisabledInstallsNothing(t *testing.T) {
	shutdown, err := SetupOpenTelemetry(context.Background(), slog.New(slog.DiscardHandler), OpenTelemetryConfig{
		Enabled:     false,
		CustodyMode: "memory",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestConfiguredSamplerClampsRatio(t *testing.T) {
	assert.True(t, strings.HasPrefix(configuredSampler(2).Description(), "ParentBased{root:AlwaysOnSampler"))
	assert.True(t, strings.HasPrefix(configuredSampler(-1).Description(), "ParentBased{root:AlwaysOffSampler"))
	assert.True(t, strings.HasPrefix(configuredSampler(0.25).Description(), "ParentBased{root:TraceIDRatioBased{0.25}"))
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string)
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
