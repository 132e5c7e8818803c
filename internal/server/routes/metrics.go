package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsRoutes exposes the Prometheus scrape endpoint.
type MetricsRoutes struct {
	handler http.Handler
}

// NewMetricsRoutes constructs the metrics route around an exposition handler.
func NewMetricsRoutes(handler http.Handler) *MetricsRoutes {
	return &MetricsRoutes{handler: handler}
}

// RegisterRoutes registers the metrics endpoint.
func (m *MetricsRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/metrics", echo.WrapHandler(m.handler))
}
