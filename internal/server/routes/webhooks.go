package routes

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

const maxEchoedRunes = 200

// WebhookRoutes registers the helpdesk webhook endpoints.
type WebhookRoutes struct {
	service *relay.Service
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(service *relay.Service) *WebhookRoutes {
	return &WebhookRoutes{service: service}
}

// RegisterRoutes registers webhook endpoints.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/zendesk-webhook", ready("zendesk webhook endpoint active"))
	s.POST("/zendesk-webhook", w.handleZendeskWebhook)
	s.GET("/test-webhook", ready("test webhook endpoint active"))
	s.POST("/test-webhook", handleTestWebhook)
}

func (w *WebhookRoutes) handleZendeskWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	result, err := w.service.HandleWebhook(c.Request().Context(), relay.InboundWebhook{
		Body:        body,
		Signature:   relay.SignatureFromHeaders(c.Request().Header),
		ContentType: c.Request().Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondStatus(c, http.StatusOK, result.Status, result.Message)
}

func handleTestWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":         relay.StatusSuccess,
		"message":        "received",
		"truncated_body": relay.Truncate(string(body), maxEchoedRunes),
	})
}
