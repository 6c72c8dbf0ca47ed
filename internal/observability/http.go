package observability

import (
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const httpServerName = "storefrontd"

// EchoMiddleware opens the server span for every routed request.
func EchoMiddleware() echo.MiddlewareFunc {
	return otelecho.Middleware(httpServerName, otelecho.WithSkipper(traceSkipper))
}

// EchoSpanEnrichmentMiddleware tags the server span and request context with
// the storefront, listing and delivery named in the route. It must run after
// EchoMiddleware so the span exists.
func EchoSpanEnrichmentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithRequestMetadata(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID), resolvedRoute(c))
			ctx = WithStorefront(ctx, c.Param("id"))
			if attrs := routeIDAttributes(c); len(attrs) > 0 {
				trace.SpanFromContext(ctx).SetAttributes(attrs...)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			// Handlers may replace the request; the request id header is final now.
			ctx = WithRequestMetadata(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID), resolvedRoute(c))
			c.SetRequest(c.Request().WithContext(ctx))
			return err
		}
	}
}

// routeIDAttributes converts numeric route ids into span attributes. Ids that
// do not parse are left to the handler to reject.
func routeIDAttributes(c echo.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id, err := strconv.ParseUint(c.Param("listingID"), 10, 64); err == nil {
		attrs = append(attrs, attribute.Int64("storefront.listing_id", int64(id)))
	}
	if id, err := strconv.ParseInt(c.Param("deliveryID"), 10, 64); err == nil {
		attrs = append(attrs, attribute.Int64("storefront.delivery_id", id))
	}
	return attrs
}

func traceSkipper(c echo.Context) bool {
	requestPath := strings.TrimSpace(c.Request().URL.Path)
	switch {
	case requestPath == "":
		return false
	case requestPath == "/health", requestPath == "/healthz", requestPath == "/live", requestPath == "/ready":
		return true
	case strings.HasPrefix(requestPath, "/custody/v1/admin/"):
		// Local custody seeding.
		return true
	}
	return path.Ext(requestPath) == ".map" || requestPath == "/favicon.ico"
}

func resolvedRoute(c echo.Context) string {
	if route := strings.TrimSpace(c.Path()); route != "" {
		return route
	}
	return strings.TrimSpace(c.Request().URL.Path)
}
