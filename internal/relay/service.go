package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Outcome labels reported to the Recorder and in response bodies.
const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
	StatusError   = "error"
)

const (
	defaultRequesterDomain = "example.com"
	defaultSubject         = "Support Request"
	anonymousRequester     = "anonymous"
	ticketTag              = "discord"

	maxSubjectRunes     = 120
	maxDescriptionRunes = 4000
	maxDisplayNameRunes = 80
	maxIdentityRunes    = 64
	maxLogRunes         = 80
)

// Notification is one message for the chat webhook.
type Notification struct {
	Title    string
	Author   string
	Body     string
	TicketID string
	Footer   string
}

// Delivery describes an accepted outbound call.
type Delivery struct {
	StatusCode int
	Duration   time.Duration
}

// Notifier posts notifications to the chat side.
type Notifier interface {
	Notify(ctx context.Context, msg Notification) (Delivery, error)
}

// NewTicket is the helpdesk ticket-creation payload.
type NewTicket struct {
	Subject        string
	Body           string
	RequesterName  string
	RequesterEmail string
	Tags           []string
}

// Helpdesk creates tickets on the helpdesk side.
type Helpdesk interface {
	CreateTicket(ctx context.Context, ticket NewTicket) (int64, error)
}

// Recorder observes request outcomes.
type Recorder interface {
	WebhookEvent(outcome string)
	TicketRequest(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) WebhookEvent(string)  {}
func (nopRecorder) TicketRequest(string) {}

// InboundWebhook is one webhook request as received.
type InboundWebhook struct {
	Body        []byte
	Signature   string
	ContentType string
}

// WebhookResult is the non-error outcome of a webhook request.
type WebhookResult struct {
	Status  string
	Message string
	Comment Comment
}

// TicketRequest is a chat user's ticket-creation request.
type TicketRequest struct {
	Subject           string
	Description       string
	RequesterName     string
	RequesterIdentity string
}

// TicketResult is the outcome of a successful ticket creation.
type TicketResult struct {
	TicketID int64
	Notified bool
}

// Options configures a Service.
type Options struct {
	WebhookSecret   string
	RequesterPrefix string
	RequesterDomain string
	Registry        *TicketRegistry
	Recorder        Recorder
	Logger          *slog.Logger
}

// Service wires verification, normalization, loop suppression and delivery.
type Service struct {
	notifier Notifier
	helpdesk Helpdesk
	guard    LoopGuard
	registry *TicketRegistry
	recorder Recorder
	log      *slog.Logger

	webhookSecret   string
	requesterPrefix string
	requesterDomain string
}

// NewService constructs the relay service.
func NewService(notifier Notifier, helpdesk Helpdesk, opts Options) *Service {
	prefix := strings.ToLower(strings.TrimSpace(opts.RequesterPrefix))
	if prefix == "" {
		prefix = DefaultRequesterPrefix
	}
	domain := strings.TrimSpace(opts.RequesterDomain)
	if domain == "" {
		domain = defaultRequesterDomain
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewTicketRegistry(0)
	}
	var recorder Recorder = nopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		notifier:        notifier,
		helpdesk:        helpdesk,
		guard:           NewLoopGuard(prefix),
		registry:        registry,
		recorder:        recorder,
		log:             log,
		webhookSecret:   opts.WebhookSecret,
		requesterPrefix: prefix,
		requesterDomain: domain,
	}
}

// Registry exposes the ticket registry for diagnostics.
func (s *Service) Registry() *TicketRegistry {
	return s.registry
}

// HandleWebhook verifies, normalizes and forwards one helpdesk webhook event.
func (s *Service) HandleWebhook(ctx context.Context, in InboundWebhook) (WebhookResult, error) {
	result, err := s.handleWebhook(ctx, in)
	if err != nil {
		s.recorder.WebhookEvent(string(KindOf(err)))
	} else {
		s.recorder.WebhookEvent(result.Status)
	}
	return result, err
}

func (s *Service) handleWebhook(ctx context.Context, in InboundWebhook) (WebhookResult, error) {
	if s.webhookSecret != "" && !VerifySignature(in.Body, in.Signature, s.webhookSecret) {
		s.log.WarnContext(ctx, "Zendesk webhook signature verification failed", "signature_present", in.Signature != "")
		return WebhookResult{}, AuthenticationError("signature verification failed")
	}

	if !isJSONContentType(in.ContentType) {
		s.log.DebugContext(ctx, "Unexpected webhook content type, parsing as JSON", "content_type", Truncate(in.ContentType, maxLogRunes))
	}

	payload, err := DecodePayload(in.Body)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to parse webhook payload as JSON", "error", err)
		return WebhookResult{}, ValidationError("invalid json payload")
	}

	comment, ok := Normalize(payload)
	if !ok {
		s.log.InfoContext(ctx, "No comment body found in webhook payload, ignoring", "ticket_id", Truncate(comment.TicketID, 40))
		return WebhookResult{Status: StatusIgnored, Message: "no comment body", Comment: comment}, nil
	}

	if !s.guard.ShouldForward(comment.Author) {
		s.log.InfoContext(ctx, "Ignoring comment from relay-origin author", "author", Truncate(comment.Author, maxLogRunes))
		return WebhookResult{Status: StatusIgnored, Message: "discord-origin comment", Comment: comment}, nil
	}

	if id, err := strconv.ParseInt(comment.TicketID, 10, 64); err == nil {
		if requester, found := s.registry.Lookup(id); found {
			s.log.DebugContext(ctx, "Comment on relay-created ticket", "ticket_id", id, "requester", Truncate(requester, maxLogRunes))
		}
	}

	_, err = s.notifier.Notify(context.WithoutCancel(ctx), Notification{
		Title:    fmt.Sprintf("💬 Update on Ticket #%s", comment.TicketID),
		Author:   comment.Author,
		Body:     comment.Body,
		TicketID: comment.TicketID,
		Footer:   "Zendesk",
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to forward Zendesk comment to Discord", "ticket_id", Truncate(comment.TicketID, 40), "error", err)
		return WebhookResult{Comment: comment}, err
	}

	s.log.InfoContext(ctx, "Forwarded Zendesk comment to Discord", "ticket_id", Truncate(comment.TicketID, 40))
	return WebhookResult{Status: StatusSuccess, Message: "forwarded to discord", Comment: comment}, nil
}

// isJSONContentType reports whether contentType is absent or a JSON media type.
func isJSONContentType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	media, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	media = strings.TrimSpace(media)
	return media == "application/json" || strings.HasSuffix(media, "+json")
}

// CreateTicket opens a helpdesk ticket for a chat user and announces it.
// Identical requests create distinct tickets.
func (s *Service) CreateTicket(ctx context.Context, req TicketRequest) (TicketResult, error) {
	result, err := s.createTicket(ctx, req)
	if err != nil {
		s.recorder.TicketRequest(string(KindOf(err)))
	} else {
		s.recorder.TicketRequest(StatusSuccess)
	}
	return result, err
}

func (s *Service) createTicket(ctx context.Context, req TicketRequest) (TicketResult, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return TicketResult{}, ValidationError("description is required")
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	identity := strings.TrimSpace(req.RequesterIdentity)
	if identity == "" {
		identity = anonymousRequester
	}
	displayName := strings.TrimSpace(req.RequesterName)
	if displayName == "" {
		displayName = identity
	}
	handle := s.RequesterHandle(identity)

	ticketID, err := s.helpdesk.CreateTicket(context.WithoutCancel(ctx), NewTicket{
		Subject:        "Discord: " + Truncate(subject, maxSubjectRunes),
		Body:           Truncate(description, maxDescriptionRunes),
		RequesterName:  fmt.Sprintf("%s (%s)", Truncate(displayName, maxDisplayNameRunes), handle),
		RequesterEmail: handle + "@" + s.requesterDomain,
		Tags:           []string{ticketTag},
	})
	if err != nil {
		s.log.WarnContext(ctx, "Zendesk ticket creation failed", "kind", KindOf(err), "error", err)
		return TicketResult{}, err
	}

	s.registry.Record(ticketID, identity)
	s.log.InfoContext(ctx, "Created Zendesk ticket", "ticket_id", ticketID)

	_, err = s.notifier.Notify(context.WithoutCancel(ctx), Notification{
		Title:    "🎫 New Ticket Created",
		Body:     fmt.Sprintf("**Ticket #%d**\n**User:** %s\n**Subject:** %s", ticketID, Truncate(displayName, maxDisplayNameRunes), Truncate(subject, 200)),
		TicketID: strconv.FormatInt(ticketID, 10),
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to notify Discord about created ticket", "ticket_id", ticketID, "error", err)
		return TicketResult{TicketID: ticketID}, nil
	}
	return TicketResult{TicketID: ticketID, Notified: true}, nil
}

// RequesterHandle returns the synthesized requester handle for a chat identity.
// The handle always starts with the loop-guard sentinel.
func (s *Service) RequesterHandle(identity string) string {
	return s.requesterPrefix + slugIdentity(identity)
}

func slugIdentity(identity string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(identity)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-.")
	if len(slug) > maxIdentityRunes {
		slug = strings.Trim(slug[:maxIdentityRunes], "-.")
	}
	if slug == "" {
		return anonymousRequester
	}
	return slug
}
