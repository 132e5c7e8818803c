package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

// TicketRoutes registers the chat-to-helpdesk ticket endpoint.
type TicketRoutes struct {
	service *relay.Service
	missing func() []string
}

// NewTicketRoutes constructs ticket routes. missing reports unset helpdesk credentials.
func NewTicketRoutes(service *relay.Service, missing func() []string) *TicketRoutes {
	return &TicketRoutes{service: service, missing: missing}
}

// RegisterRoutes registers ticket endpoints.
func (t *TicketRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/create-ticket", t.handleCreateTicket)
}

type createTicketRequest struct {
	Subject           string `json:"subject"`
	Description       string `json:"description"`
	RequesterName     string `json:"requester_name"`
	User              string `json:"user"`
	RequesterIdentity string `json:"requester_identity"`
	DiscordUsername   string `json:"discord_username"`
}

func (r createTicketRequest) ticketRequest() relay.TicketRequest {
	return relay.TicketRequest{
		Subject:           r.Subject,
		Description:       r.Description,
		RequesterName:     firstNonBlank(r.RequesterName, r.User),
		RequesterIdentity: firstNonBlank(r.RequesterIdentity, r.DiscordUsername, r.User),
	}
}

func (t *TicketRoutes) handleCreateTicket(c echo.Context) error {
	if t.missing != nil {
		if missing := t.missing(); len(missing) > 0 {
			return respondError(c, relay.ConfigurationError("service not fully configured", missing...))
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	var req createTicketRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return respondError(c, relay.ValidationError("invalid json payload"))
		}
	}

	result, err := t.service.CreateTicket(c.Request().Context(), req.ticketRequest())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"status":    relay.StatusSuccess,
		"ticket_id": result.TicketID,
		"notified":  result.Notified,
	})
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
