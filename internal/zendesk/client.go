package zendesk

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
	defaultTimeout    = 30 * time.Second
	maxErrorBodyBytes = 64 << 10
	maxLoggedRunes    = 500
	target            = "zendesk"
)

// Credentials authenticate API calls with an API token.
type Credentials struct {
	Email    string
	APIToken string
}

// Client talks to the Zendesk Support API.
type Client struct {
	baseURL     string
	credentials Credentials
	httpClient  *http.Client
	metrics     observability.OutboundRecorder
	log         *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records outbound calls.
func WithMetrics(metrics observability.OutboundRecorder) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// BaseURL returns the API root for a subdomain.
func BaseURL(subdomain string) string {
	subdomain = strings.TrimSpace(subdomain)
	if subdomain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.zendesk.com", subdomain)
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, credentials Credentials, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		credentials: Credentials{
			Email:    strings.TrimSpace(credentials.Email),
			APIToken: strings.TrimSpace(credentials.APIToken),
		},
		httpClient: observability.NewHTTPClient(timeout),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the base URL and credentials are configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.credentials.Email != "" && c.credentials.APIToken != ""
}

// Missing lists the configuration keys the client still needs.
func (c *Client) Missing() []string {
	var missing []string
	if c == nil || c.baseURL == "" {
		missing = append(missing, "ZENDESK_SUBDOMAIN")
	}
	if c == nil || c.credentials.Email == "" {
		missing = append(missing, "ZENDESK_EMAIL")
	}
	if c == nil || c.credentials.APIToken == "" {
		missing = append(missing, "ZENDESK_API_TOKEN")
	}
	return missing
}

type ticketEnvelope struct {
	Ticket ticketPayload `json:"ticket"`
}

type ticketPayload struct {
	Subject   string         `json:"subject"`
	Comment   ticketComment  `json:"comment"`
	Requester ticketIdentity `json:"requester"`
	Tags      []string       `json:"tags,omitempty"`
}

type ticketComment struct {
	Body   string `json:"body"`
	Public bool   `json:"public"`
}

type ticketIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createdTicket struct {
	Ticket struct {
		ID int64 `json:"id"`
	} `json:"ticket"`
}

// CreateTicket creates a public ticket and returns its id. Only 201 Created is success.
func (c *Client) CreateTicket(ctx context.Context, ticket relay.NewTicket) (int64, error) {
	if !c.Enabled() {
		return 0, relay.ConfigurationError("zendesk api not configured", c.Missing()...)
	}

	raw, err := json.Marshal(ticketEnvelope{Ticket: ticketPayload{
		Subject:   ticket.Subject,
		Comment:   ticketComment{Body: ticket.Body, Public: true},
		Requester: ticketIdentity{Name: ticket.RequesterName, Email: ticket.RequesterEmail},
		Tags:      ticket.Tags,
	}})
	if err != nil {
		return 0, relay.TransportError(err, "failed to encode zendesk ticket")
	}

	ctx, span := observability.StartClientSpan(ctx, target, "create_ticket")
	defer span.End()
	started := time.Now()

	id, err := c.createTicket(ctx, raw)
	c.record(relay.KindOf(err), time.Since(started))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return id, nil
}

func (c *Client) createTicket(ctx context.Context, raw []byte) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v2/tickets.json", bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "Zendesk ticket request failed", "error", err)
		return 0, relay.TransportError(err, "failed to reach zendesk api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.log.WarnContext(ctx, "Zendesk API returned non-201 when creating ticket",
			"status", resp.StatusCode,
			"body", relay.Truncate(strings.TrimSpace(string(payload)), maxLoggedRunes),
		)
		return 0, relay.UpstreamError("zendesk api error", resp.StatusCode, http.StatusInternalServerError)
	}

	var created createdTicket
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, relay.UpstreamError("zendesk api returned an unreadable ticket", resp.StatusCode, http.StatusInternalServerError)
	}
	if created.Ticket.ID <= 0 {
		return 0, relay.UpstreamError("zendesk api response is missing the ticket id", resp.StatusCode, http.StatusInternalServerError)
	}
	return created.Ticket.ID, nil
}

// ProbeResult is the outcome of a connectivity check.
type ProbeResult struct {
	StatusCode int
	OK         bool
}

// Probe lists a single ticket to check reachability and credentials.
func (c *Client) Probe(ctx context.Context) (ProbeResult, error) {
	if !c.Enabled() {
		return ProbeResult{}, relay.ConfigurationError("zendesk api not configured", c.Missing()...)
	}

	ctx, span := observability.StartClientSpan(ctx, target, "list_tickets")
	defer span.End()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v2/tickets.json?per_page=1", nil)
	if err != nil {
		return ProbeResult{}, err
	}
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := relay.TransportError(err, "failed to reach zendesk api")
		c.record(relay.KindTransport, time.Since(started))
		span.RecordError(wrapped)
		return ProbeResult{}, wrapped
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))

	result := ProbeResult{StatusCode: resp.StatusCode, OK: resp.StatusCode == http.StatusOK}
	if result.OK {
		c.record(relay.KindNone, time.Since(started))
	} else {
		c.record(relay.KindUpstream, time.Since(started))
	}
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, relay.ConfigurationError("zendesk base url is invalid", "ZENDESK_SUBDOMAIN")
	}
	req.SetBasicAuth(c.credentials.Email+"/token", c.credentials.APIToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) record(kind relay.Kind, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := relay.StatusSuccess
	if kind != relay.KindNone {
		outcome = string(kind)
	}
	c.metrics.OutboundRequest(target, outcome, duration)
}
