package observability

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// EchoMiddleware returns the HTTP tracing middleware.
func EchoMiddleware(serviceName string) echo.MiddlewareFunc {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "deskrelay"
	}
	return otelecho.Middleware(serviceName, otelecho.WithSkipper(traceSkipper))
}

// EchoRequestMetadataMiddleware stores request id and route on the request context.
func EchoRequestMetadataMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithRequestMetadata(c.Request().Context(), requestID(c), resolvedRoute(c))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func requestID(c echo.Context) string {
	if id := strings.TrimSpace(c.Response().Header().Get(echo.HeaderXRequestID)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
}

func traceSkipper(c echo.Context) bool {
	switch strings.TrimSpace(c.Request().URL.Path) {
	case "/", "/health", "/metrics", "/favicon.ico":
		return true
	default:
		return false
	}
}

func resolvedRoute(c echo.Context) string {
	route := strings.TrimSpace(c.Path())
	if route != "" {
		return route
	}
	return strings.TrimSpace(c.Request().URL.Path)
}
