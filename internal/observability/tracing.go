package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dbTracerName     = "storefront/db"
	engineTracerName = "storefront/engine"
)

type contextKey string

const (
	storefrontIDKey contextKey = "observability.storefront_id"
	requestIDKey    contextKey = "observability.request_id"
	routeKey        contextKey = "observability.route"
	operationKey    contextKey = "observability.operation"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
}

type otelSpan struct {
	inner trace.Span
}

// StartDBSpan starts a database tracing span for one query operation.
func StartDBSpan(ctx context.Context, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", "sqlite"),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	if storefrontID, ok := StorefrontIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("storefront.id", storefrontID))
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, otelSpan{inner: span}
}

// StartEngineSpan starts an internal span around one storefront operation. The
// operation stays on the returned context for logs and child spans.
func StartEngineSpan(ctx context.Context, operation string, listingID uint64) (context.Context, Span) {
	operation = strings.TrimSpace(operation)
	if operation != "" {
		ctx = context.WithValue(ctx, operationKey, operation)
	}
	attrs := []attribute.KeyValue{
		attribute.String("storefront.operation", operation),
	}
	if storefrontID, ok := StorefrontIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("storefront.id", storefrontID))
	}
	if listingID > 0 {
		attrs = append(attrs, attribute.Int64("storefront.listing_id", int64(listingID)))
	}

	ctx, span := otel.Tracer(engineTracerName).Start(ctx, "storefront."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// WithStorefront tags context and the current span with the storefront being operated on.
func WithStorefront(ctx context.Context, storefrontID string) context.Context {
	storefrontID = strings.TrimSpace(storefrontID)
	if storefrontID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, storefrontIDKey, storefrontID)
	if span := trace.SpanFromContext(ctx); span != nil {
		span.SetAttributes(attribute.String("storefront.id", storefrontID))
	}
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// StorefrontIDFromContext extracts the storefront tagged by WithStorefront.
func StorefrontIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(storefrontIDKey).(string)
	return value, ok && value != ""
}

// OperationFromContext extracts the engine operation set by StartEngineSpan.
func OperationFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(operationKey).(string)
	return value, ok && value != ""
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}
