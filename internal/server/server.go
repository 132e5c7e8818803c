package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/time/rate"

	"github.com/fr0stylo/deskrelay/internal/observability"
)

// RouteRegister registers Echo routes.
type RouteRegister interface {
	RegisterRoutes(s *echo.Echo)
}

// Options tunes the middleware stack.
type Options struct {
	ServiceName  string
	Tracing      bool
	MaxBodyBytes int64
	RateLimitRPS float64
	RateBurst    int
}

// Server holds the Echo instance.
type Server struct {
	e   *echo.Echo
	log *slog.Logger
}

// New creates a new server instance.
func New(log *slog.Logger, opts Options) *Server {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler(log)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	if opts.Tracing {
		e.Use(observability.EchoMiddleware(opts.ServiceName))
	}
	e.Use(observability.EchoRequestMetadataMiddleware())
	e.Use(slogecho.NewWithConfig(log, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		Filters:          []slogecho.Filter{slogecho.IgnorePath("/health", "/metrics")},
	}))
	e.Use(middleware.Recover())
	if opts.MaxBodyBytes > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt(opts.MaxBodyBytes, 10)))
	}
	if opts.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(opts.RateLimitRPS, opts.RateBurst)))
	}

	return &Server{
		e:   e,
		log: log,
	}
}

// RegisterRouter attaches a route registrar.
func (s *Server) RegisterRouter(r RouteRegister) {
	r.RegisterRoutes(s.e)
}

// ServeHTTP lets the server be driven directly by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start(addr string) error {
	err := s.e.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func rateLimiterConfig(rps float64, burst int) middleware.RateLimiterConfig {
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/health", "/metrics":
				return true
			default:
				return false
			}
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	}
}

func jsonErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if text, ok := he.Message.(string); ok && strings.TrimSpace(text) != "" {
				message = strings.ToLower(text)
			} else {
				message = strings.ToLower(http.StatusText(status))
			}
		} else {
			log.ErrorContext(c.Request().Context(), "Unhandled request error", "path", c.Path(), "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, map[string]any{"status": "error", "message": message})
		}
		if writeErr != nil {
			log.ErrorContext(c.Request().Context(), "Failed to write error response", "error", writeErr)
		}
	}
}
