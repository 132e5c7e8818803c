package zendesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

func TestClientCreateTicket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/tickets.json" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "agent@acme.test/token" || pass != "tok" {
			t.Fatalf("unexpected basic auth: %q ok=%v", user, ok)
		}
		var payload map[string]map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		ticket := payload["ticket"]
		if ticket["subject"] != "Discord: Help" {
			t.Fatalf("unexpected subject: %#v", ticket["subject"])
		}
		comment := ticket["comment"].(map[string]any)
		if comment["body"] != "Please help" || comment["public"] != true {
			t.Fatalf("unexpected comment: %#v", comment)
		}
		requester := ticket["requester"].(map[string]any)
		if requester["email"] != "discord-jane@example.com" {
			t.Fatalf("unexpected requester: %#v", requester)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ticket":{"id":4242,"subject":"Discord: Help"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{Email: "agent@acme.test", APIToken: "tok"}, time.Second)
	id, err := client.CreateTicket(context.Background(), relay.NewTicket{
		Subject:        "Discord: Help",
		Body:           "Please help",
		RequesterName:  "Jane (discord-jane)",
		RequesterEmail: "discord-jane@example.com",
		Tags:           []string{"discord"},
	})
	if err != nil {
		t.Fatalf("CreateTicket error = %v", err)
	}
	if id != 4242 {
		t.Fatalf("unexpected ticket id: got=%d want=%d", id, 4242)
	}
}

func TestClientCreateTicketRequiresCreated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ticket":{"id":1}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{Email: "a@b.c", APIToken: "tok"}, time.Second)
	_, err := client.CreateTicket(context.Background(), relay.NewTicket{Subject: "s", Body: "b"})
	if relay.KindOf(err) != relay.KindUpstream {
		t.Fatalf("unexpected kind: %s", relay.KindOf(err))
	}
	if status, _ := relay.UpstreamStatus(err); status != http.StatusOK {
		t.Fatalf("unexpected upstream status: got=%d want=%d", status, http.StatusOK)
	}
	if relay.HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("unexpected response status: got=%d want=%d", relay.HTTPStatus(err), http.StatusInternalServerError)
	}
}

func TestClientCreateTicketRejectsMissingID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ticket":{}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Credentials{Email: "a@b.c", APIToken: "tok"}, time.Second)
	if _, err := client.CreateTicket(context.Background(), relay.NewTicket{Body: "b"}); relay.KindOf(err) != relay.KindUpstream {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientUnconfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(BaseURL(""), Credentials{Email: "a@b.c"}, 0)
	if client.Enabled() {
		t.Fatal("expected client to be disabled")
	}
	_, err := client.CreateTicket(context.Background(), relay.NewTicket{Body: "b"})
	if relay.KindOf(err) != relay.KindConfiguration {
		t.Fatalf("unexpected kind: %s", relay.KindOf(err))
	}
	missing := relay.Missing(err)
	if len(missing) != 2 || missing[0] != "ZENDESK_SUBDOMAIN" || missing[1] != "ZENDESK_API_TOKEN" {
		t.Fatalf("unexpected missing keys: %v", missing)
	}
}

func TestClientProbe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "1" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if _, pass, _ := r.BasicAuth(); pass != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"tickets":[]}`))
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL, Credentials{Email: "a@b.c", APIToken: "tok"}, time.Second).Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe error = %v", err)
	}
	if !result.OK || result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected probe result: %#v", result)
	}

	result, err = NewClient(srv.URL, Credentials{Email: "a@b.c", APIToken: "wrong"}, time.Second).Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe error = %v", err)
	}
	if result.OK || result.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected probe result: %#v", result)
	}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	if got := BaseURL(" acme "); got != "https://acme.zendesk.com" {
		t.Fatalf("unexpected base url: %q", got)
	}
}
