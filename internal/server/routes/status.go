package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/deskrelay/internal/relay"
	"github.com/fr0stylo/deskrelay/internal/zendesk"
)

const (
	serviceName      = "zendesk-discord-forwarder"
	probeMessage     = "🔧 Test message (no sensitive data)"
	defaultProbeWait = 10 * time.Second
)

// HelpdeskProbe checks helpdesk reachability.
type HelpdeskProbe interface {
	Probe(ctx context.Context) (zendesk.ProbeResult, error)
}

// ChatProbe sends a plain chat message.
type ChatProbe interface {
	SendContent(ctx context.Context, content string) (relay.Delivery, error)
}

// StatusConfig wires the status routes.
type StatusConfig struct {
	Missing      func() []string
	Registry     *relay.TicketRegistry
	Helpdesk     HelpdeskProbe
	Chat         ChatProbe
	ProbeTimeout time.Duration
	Now          func() time.Time
}

// StatusRoutes registers liveness and connectivity endpoints.
type StatusRoutes struct {
	cfg StatusConfig
}

// NewStatusRoutes constructs status routes.
func NewStatusRoutes(cfg StatusConfig) *StatusRoutes {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeWait
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StatusRoutes{cfg: cfg}
}

// RegisterRoutes registers status endpoints.
func (r *StatusRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/", r.handleHome)
	s.GET("/health", r.handleHealth)
	s.GET("/test", r.handleConnectivity)
}

func (r *StatusRoutes) missing() []string {
	if r.cfg.Missing == nil {
		return nil
	}
	return r.cfg.Missing()
}

func (r *StatusRoutes) handleHome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":    serviceName,
		"timestamp":  timestamp(r.cfg.Now),
		"configured": len(r.missing()) == 0,
	})
}

func (r *StatusRoutes) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "healthy",
		"configured":      len(r.missing()) == 0,
		"tracked_tickets": r.cfg.Registry.Len(),
		"timestamp":       timestamp(r.cfg.Now),
	})
}

type probeReport struct {
	StatusCode int    `json:"status_code,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

func (r *StatusRoutes) handleConnectivity(c echo.Context) error {
	if missing := r.missing(); len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Status:  relay.StatusError,
			Message: "missing environment variables",
			Missing: missing,
		})
	}

	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]any{
		"app":       "running",
		"timestamp": timestamp(r.cfg.Now),
		"zendesk":   r.probeHelpdesk(ctx),
		"discord":   r.probeChat(ctx),
	})
}

func (r *StatusRoutes) probeHelpdesk(ctx context.Context) probeReport {
	if r.cfg.Helpdesk == nil {
		return probeReport{Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ProbeTimeout)
	defer cancel()

	result, err := r.cfg.Helpdesk.Probe(ctx)
	if err != nil {
		return probeReport{Error: relay.Message(err)}
	}
	return probeReport{StatusCode: result.StatusCode, OK: result.OK}
}

func (r *StatusRoutes) probeChat(ctx context.Context) probeReport {
	if r.cfg.Chat == nil {
		return probeReport{Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.ProbeTimeout)
	defer cancel()

	delivery, err := r.cfg.Chat.SendContent(ctx, probeMessage)
	if err != nil {
		report := probeReport{Error: relay.Message(err)}
		if status, ok := relay.UpstreamStatus(err); ok {
			report.StatusCode = status
		}
		return report
	}
	return probeReport{StatusCode: delivery.StatusCode, OK: true}
}
