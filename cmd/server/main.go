package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/deskrelay/internal/config"
	"github.com/fr0stylo/deskrelay/internal/discord"
	"github.com/fr0stylo/deskrelay/internal/observability"
	"github.com/fr0stylo/deskrelay/internal/relay"
	"github.com/fr0stylo/deskrelay/internal/server"
	"github.com/fr0stylo/deskrelay/internal/server/routes"
	"github.com/fr0stylo/deskrelay/internal/zendesk"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(os.Stdout, observability.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:       cfg.Observability.Enabled,
		OTLPEndpoint:  cfg.Observability.OTLPEndpoint,
		OTLPHeaders:   cfg.Observability.OTLPHeaders,
		ServiceName:   cfg.Observability.ServiceName,
		ServiceVer:    cfg.Observability.ServiceVer,
		SamplingRatio: cfg.Observability.SamplingRatio,
	})
	if err != nil {
		log.Error("Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error("Failed to flush OpenTelemetry", "error", err)
		}
	}()

	if missing := cfg.Missing(); len(missing) > 0 {
		log.Warn("Relay is not fully configured", "missing", missing)
	}

	metrics := observability.NewMetrics()
	notifier := discord.NewNotifier(cfg.Discord.WebhookURL, cfg.Discord.Timeout,
		discord.WithLogger(log),
		discord.WithMetrics(metrics),
	)
	helpdesk := zendesk.NewClient(cfg.Zendesk.BaseURL,
		zendesk.Credentials{Email: cfg.Zendesk.Email, APIToken: cfg.Zendesk.APIToken},
		cfg.Zendesk.Timeout,
		zendesk.WithLogger(log),
		zendesk.WithMetrics(metrics),
	)
	service := relay.NewService(notifier, helpdesk, relay.Options{
		WebhookSecret:   cfg.Zendesk.WebhookSecret,
		RequesterPrefix: cfg.Relay.RequesterPrefix,
		RequesterDomain: cfg.Relay.RequesterDomain,
		Registry:        relay.NewTicketRegistry(cfg.Relay.RegistrySize),
		Recorder:        metrics,
		Logger:          log,
	})
	if cfg.Zendesk.WebhookSecret == "" {
		log.Warn("ZENDESK_WEBHOOK_SECRET not set, accepting unsigned webhooks")
	}

	srv := server.New(log, server.Options{
		ServiceName:  cfg.Observability.ServiceName,
		Tracing:      cfg.Observability.Enabled,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		RateLimitRPS: cfg.Server.RateLimitRPS,
		RateBurst:    cfg.Server.RateBurst,
	})
	srv.RegisterRouter(routes.NewStatusRoutes(routes.StatusConfig{
		Missing:      cfg.Missing,
		Registry:     service.Registry(),
		Helpdesk:     helpdesk,
		Chat:         notifier,
		ProbeTimeout: cfg.Server.ProbeTimeout,
	}))
	srv.RegisterRouter(routes.NewWebhookRoutes(service))
	srv.RegisterRouter(routes.NewTicketRoutes(service, helpdesk.Missing))
	srv.RegisterRouter(routes.NewMetricsRoutes(metrics.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
