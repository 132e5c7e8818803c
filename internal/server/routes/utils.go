package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

type statusResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	StatusCode int      `json:"status_code,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

// respondError maps a relay error onto its JSON error body.
func respondError(c echo.Context, err error) error {
	body := statusResponse{
		Status:  relay.StatusError,
		Message: relay.Message(err),
		Missing: relay.Missing(err),
	}
	if status, ok := relay.UpstreamStatus(err); ok {
		body.StatusCode = status
	}
	return c.JSON(relay.HTTPStatus(err), body)
}

func respondStatus(c echo.Context, code int, status, message string) error {
	return c.JSON(code, statusResponse{Status: status, Message: message})
}

func timestamp(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format(timestampLayout)
}

func ready(message string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respondStatus(c, http.StatusOK, "ready", message)
	}
}
