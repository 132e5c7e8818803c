package relay_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/deskrelay/internal/relay"
	relaymocks "github.com/fr0stylo/deskrelay/internal/relay/mocks"
)

type countingRecorder struct {
	webhook []string
	tickets []string
}

func (r *countingRecorder) WebhookEvent(outcome string)  { r.webhook = append(r.webhook, outcome) }
func (r *countingRecorder) TicketRequest(outcome string) { r.tickets = append(r.tickets, outcome) }

func newService(t *testing.T, opts relay.Options) (*relay.Service, *relaymocks.MockNotifier, *relaymocks.MockHelpdesk) {
	t.Helper()
	notifier := relaymocks.NewMockNotifier(t)
	helpdesk := relaymocks.NewMockHelpdesk(t)
	return relay.NewService(notifier, helpdesk, opts), notifier, helpdesk
}

func TestHandleWebhookForwardsComment(t *testing.T) {
	recorder := &countingRecorder{}
	svc, notifier, _ := newService(t, relay.Options{Recorder: recorder})

	notifier.EXPECT().Notify(mock.Anything, mock.MatchedBy(func(msg relay.Notification) bool {
		return strings.Contains(msg.Title, "42") && msg.Body == "Thanks!" && msg.Author == "Jane"
	})).Return(relay.Delivery{StatusCode: http.StatusNoContent}, nil).Once()

	result, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{
		Body: []byte(`{"ticket":{"id":42,"comment":{"body":"Thanks!","author":{"name":"Jane"}}}}`),
	})
	require.NoError(t, err)
	require.Equal(t, relay.StatusSuccess, result.Status)
	require.Equal(t, "42", result.Comment.TicketID)
	require.Equal(t, []string{relay.StatusSuccess}, recorder.webhook)
}

func TestHandleWebhookIgnoresRelayOriginAuthor(t *testing.T) {
	svc, _, _ := newService(t, relay.Options{})

	result, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{
		Body: []byte(`{"ticket":{"id":7,"comment":{"body":"fyi","author":{"name":"discord-bot99"}}}}`),
	})
	require.NoError(t, err)
	require.Equal(t, relay.StatusIgnored, result.Status)
}

func TestHandleWebhookIgnoresMissingBody(t *testing.T) {
	svc, _, _ := newService(t, relay.Options{})

	result, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: []byte(`{"ticket":{"id":3}}`)})
	require.NoError(t, err)
	require.Equal(t, relay.StatusIgnored, result.Status)
	require.Equal(t, "no comment body", result.Message)
}

func TestHandleWebhookLogsUnexpectedContentType(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, _, _ := newService(t, relay.Options{Logger: log})

	_, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{
		Body:        []byte(`{"ticket":{"id":3}}`),
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	require.Contains(t, logs.String(), "Unexpected webhook content type")
	require.Contains(t, logs.String(), `"content_type":"text/plain"`)

	logs.Reset()
	_, err = svc.HandleWebhook(context.Background(), relay.InboundWebhook{
		Body:        []byte(`{"ticket":{"id":3}}`),
		ContentType: "application/json; charset=utf-8",
	})
	require.NoError(t, err)
	require.NotContains(t, logs.String(), "Unexpected webhook content type")
}

func TestHandleWebhookRejectsInvalidJSON(t *testing.T) {
	recorder := &countingRecorder{}
	svc, _, _ := newService(t, relay.Options{Recorder: recorder})

	_, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: []byte(`{not json`)})
	require.Error(t, err)
	require.Equal(t, relay.KindValidation, relay.KindOf(err))
	require.Equal(t, []string{string(relay.KindValidation)}, recorder.webhook)
}

func TestHandleWebhookVerifiesSignatureWhenSecretSet(t *testing.T) {
	svc, notifier, _ := newService(t, relay.Options{WebhookSecret: "s3cret"})
	body := []byte(`{"ticket_id":11,"body":"signed","author_name":"Agent"}`)

	_, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: body, Signature: "sha256=00"})
	require.Equal(t, relay.KindAuthentication, relay.KindOf(err))

	_, err = svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: body})
	require.Equal(t, relay.KindAuthentication, relay.KindOf(err))

	notifier.EXPECT().Notify(mock.Anything, mock.Anything).Return(relay.Delivery{StatusCode: http.StatusOK}, nil).Once()
	result, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: body, Signature: relay.Sign(body, "s3cret")})
	require.NoError(t, err)
	require.Equal(t, relay.StatusSuccess, result.Status)
}

func TestHandleWebhookSurfacesDeliveryFailure(t *testing.T) {
	recorder := &countingRecorder{}
	svc, notifier, _ := newService(t, relay.Options{Recorder: recorder})

	notifier.EXPECT().Notify(mock.Anything, mock.Anything).
		Return(relay.Delivery{StatusCode: http.StatusTooManyRequests}, relay.UpstreamError("discord webhook error", http.StatusTooManyRequests, http.StatusBadGateway)).
		Once()

	_, err := svc.HandleWebhook(context.Background(), relay.InboundWebhook{Body: []byte(`{"body":"hi"}`)})
	require.Error(t, err)
	require.Equal(t, http.StatusBadGateway, relay.HTTPStatus(err))
	require.Equal(t, []string{string(relay.KindUpstream)}, recorder.webhook)
}

func TestHandleWebhookDetachesOutboundContext(t *testing.T) {
	svc, notifier, _ := newService(t, relay.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier.EXPECT().Notify(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ relay.Notification) (relay.Delivery, error) {
			require.NoError(t, ctx.Err())
			return relay.Delivery{StatusCode: http.StatusNoContent}, nil
		}).Once()

	_, err := svc.HandleWebhook(ctx, relay.InboundWebhook{Body: []byte(`{"body":"hi"}`)})
	require.NoError(t, err)
}

func TestCreateTicketRequiresDescription(t *testing.T) {
	recorder := &countingRecorder{}
	svc, _, _ := newService(t, relay.Options{Recorder: recorder})

	_, err := svc.CreateTicket(context.Background(), relay.TicketRequest{Subject: "Help", Description: "   "})
	require.Equal(t, relay.KindValidation, relay.KindOf(err))
	require.Equal(t, []string{string(relay.KindValidation)}, recorder.tickets)
}

func TestCreateTicketSynthesizesRequester(t *testing.T) {
	svc, notifier, helpdesk := newService(t, relay.Options{RequesterDomain: "relay.test"})

	helpdesk.EXPECT().CreateTicket(mock.Anything, relay.NewTicket{
		Subject:        "Discord: Login broken",
		Body:           "I cannot log in",
		RequesterName:  "Jane Doe (discord-jane-1234)",
		RequesterEmail: "discord-jane-1234@relay.test",
		Tags:           []string{"discord"},
	}).Return(int64(101), nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.MatchedBy(func(msg relay.Notification) bool {
		return msg.Title == "🎫 New Ticket Created" && strings.Contains(msg.Body, "#101") && msg.TicketID == "101"
	})).Return(relay.Delivery{StatusCode: http.StatusNoContent}, nil).Once()

	result, err := svc.CreateTicket(context.Background(), relay.TicketRequest{
		Subject:           "Login broken",
		Description:       "I cannot log in",
		RequesterName:     "Jane Doe",
		RequesterIdentity: "Jane#1234",
	})
	require.NoError(t, err)
	require.Equal(t, relay.TicketResult{TicketID: 101, Notified: true}, result)

	requester, ok := svc.Registry().Lookup(101)
	require.True(t, ok)
	require.Equal(t, "Jane#1234", requester)
}

func TestCreateTicketDefaults(t *testing.T) {
	svc, notifier, helpdesk := newService(t, relay.Options{})

	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.MatchedBy(func(ticket relay.NewTicket) bool {
		return ticket.Subject == "Discord: Support Request" &&
			ticket.RequesterName == "anonymous (discord-anonymous)" &&
			ticket.RequesterEmail == "discord-anonymous@example.com"
	})).Return(int64(5), nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.Anything).Return(relay.Delivery{}, nil).Once()

	_, err := svc.CreateTicket(context.Background(), relay.TicketRequest{Description: "help"})
	require.NoError(t, err)
}

func TestCreateTicketCreatedRequesterIsSuppressedByLoopGuard(t *testing.T) {
	svc, notifier, helpdesk := newService(t, relay.Options{})

	var created relay.NewTicket
	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.Anything).
		Run(func(_ context.Context, ticket relay.NewTicket) { created = ticket }).
		Return(int64(9), nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.Anything).Return(relay.Delivery{}, nil).Once()

	_, err := svc.CreateTicket(context.Background(), relay.TicketRequest{Description: "help", RequesterName: "Alex", RequesterIdentity: "alex"})
	require.NoError(t, err)
	require.False(t, relay.NewLoopGuard("").ShouldForward(created.RequesterName))
}

func TestCreateTicketIsNotIdempotent(t *testing.T) {
	svc, notifier, helpdesk := newService(t, relay.Options{})

	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.Anything).Return(int64(2), nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.Anything).Return(relay.Delivery{}, nil).Twice()

	req := relay.TicketRequest{Subject: "Same", Description: "Same"}
	first, err := svc.CreateTicket(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.CreateTicket(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, first.TicketID, second.TicketID)
}

func TestCreateTicketNotifyFailureKeepsSuccess(t *testing.T) {
	recorder := &countingRecorder{}
	svc, notifier, helpdesk := newService(t, relay.Options{Recorder: recorder})

	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.Anything).Return(int64(77), nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.Anything).
		Return(relay.Delivery{}, relay.TransportError(errors.New("timeout"), "failed to post to discord")).Once()

	result, err := svc.CreateTicket(context.Background(), relay.TicketRequest{Description: "help"})
	require.NoError(t, err)
	require.Equal(t, int64(77), result.TicketID)
	require.False(t, result.Notified)
	require.Equal(t, []string{relay.StatusSuccess}, recorder.tickets)
}

func TestCreateTicketHelpdeskFailureSkipsNotify(t *testing.T) {
	svc, _, helpdesk := newService(t, relay.Options{})

	helpdesk.EXPECT().CreateTicket(mock.Anything, mock.Anything).
		Return(int64(0), relay.UpstreamError("zendesk api error", http.StatusUnprocessableEntity, http.StatusInternalServerError)).Once()

	_, err := svc.CreateTicket(context.Background(), relay.TicketRequest{Description: "help"})
	require.Equal(t, relay.KindUpstream, relay.KindOf(err))
	require.Zero(t, svc.Registry().Len())
}

func TestRequesterHandle(t *testing.T) {
	svc := relay.NewService(nil, nil, relay.Options{})

	cases := map[string]string{
		"Jane#1234":     "discord-jane-1234",
		"  bob.smith_ ": "discord-bob.smith_",
		"!!!":           "discord-anonymous",
		"Ünïcode User":  "discord-n-code-user",
	}
	cases[strings.Repeat("a", 100)] = "discord-" + strings.Repeat("a", 64)
	for identity, want := range cases {
		require.Equal(t, want, svc.RequesterHandle(identity), identity)
	}
}
