package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fr0stylo/deskrelay/internal/observability"
	"github.com/fr0stylo/deskrelay/internal/relay"
)

const (
	// MaxBodyRunes bounds the embed description body.
	MaxBodyRunes      = 2000
	maxAuthorRunes    = 80
	maxLoggedRunes    = 500
	maxErrorBodyBytes = 64 << 10
	defaultTimeout    = 15 * time.Second
	target            = "discord"
)

// Embed is a Discord rich message object.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedFooter is the small text under an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// WebhookMessage is the body of an execute-webhook call.
type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Notifier delivers relay notifications to a Discord channel webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	metrics    observability.OutboundRecorder
	log        *slog.Logger
	now        func() time.Time
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// WithMetrics records outbound calls.
func WithMetrics(metrics observability.OutboundRecorder) Option {
	return func(n *Notifier) {
		n.metrics = metrics
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// WithClock overrides the embed timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNotifier builds a notifier posting to webhookURL with the given timeout.
func NewNotifier(webhookURL string, timeout time.Duration, opts ...Option) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	n := &Notifier{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: observability.NewHTTPClient(timeout),
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// Notify posts msg as a single embed.
func (n *Notifier) Notify(ctx context.Context, msg relay.Notification) (relay.Delivery, error) {
	return n.post(ctx, "notify", WebhookMessage{Embeds: []Embed{n.BuildEmbed(msg)}})
}

// SendContent posts a plain text message.
func (n *Notifier) SendContent(ctx context.Context, content string) (relay.Delivery, error) {
	return n.post(ctx, "content", WebhookMessage{Content: content})
}

// BuildEmbed formats msg into an embed with a UTC timestamp.
func (n *Notifier) BuildEmbed(msg relay.Notification) Embed {
	body := relay.Truncate(msg.Body, MaxBodyRunes)
	description := body
	if author := strings.TrimSpace(msg.Author); author != "" {
		description = fmt.Sprintf("**From %s:**\n\n%s", relay.Truncate(author, maxAuthorRunes), body)
	}
	embed := Embed{
		Title:       msg.Title,
		Description: description,
		Timestamp:   n.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	if footer := strings.TrimSpace(msg.Footer); footer != "" {
		embed.Footer = &EmbedFooter{Text: footer}
	}
	return embed
}

func (n *Notifier) post(ctx context.Context, operation string, message WebhookMessage) (relay.Delivery, error) {
	if !n.Enabled() {
		return relay.Delivery{}, relay.ConfigurationError("discord webhook not configured", "DISCORD_WEBHOOK_URL")
	}

	raw, err := json.Marshal(message)
	if err != nil {
		return relay.Delivery{}, relay.TransportError(err, "failed to encode discord message")
	}

	ctx, span := observability.StartClientSpan(ctx, target, operation)
	defer span.End()

	started := time.Now()
	delivery, err := n.send(ctx, raw)
	delivery.Duration = time.Since(started)
	if err != nil {
		span.RecordError(err)
		n.record(relay.KindOf(err), delivery.Duration)
		return delivery, err
	}
	n.record(relay.KindNone, delivery.Duration)
	return delivery, nil
}

func (n *Notifier) send(ctx context.Context, raw []byte) (relay.Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return relay.Delivery{}, relay.ConfigurationError("discord webhook url is invalid", "DISCORD_WEBHOOK_URL")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.ErrorContext(ctx, "Discord webhook request failed", "error", err)
		return relay.Delivery{}, relay.TransportError(err, "failed to post to discord")
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		n.log.WarnContext(ctx, "Discord webhook returned error status",
			"status", resp.StatusCode,
			"body", relay.Truncate(strings.TrimSpace(string(payload)), maxLoggedRunes),
		)
		return relay.Delivery{StatusCode: resp.StatusCode}, relay.UpstreamError("discord webhook error", resp.StatusCode, http.StatusBadGateway)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	return relay.Delivery{StatusCode: resp.StatusCode}, nil
}

func (n *Notifier) record(kind relay.Kind, duration time.Duration) {
	if n.metrics == nil {
		return
	}
	outcome := relay.StatusSuccess
	if kind != relay.KindNone {
		outcome = string(kind)
	}
	n.metrics.OutboundRequest(target, outcome, duration)
}

// IsSuccess reports whether a webhook response status counts as delivered.
func IsSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusNoContent
}
