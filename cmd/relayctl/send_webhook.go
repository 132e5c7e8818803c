package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

type commentPayload struct {
	Ticket commentTicket `json:"ticket"`
}

type commentTicket struct {
	ID      json.RawMessage `json:"id"`
	Comment ticketComment   `json:"comment"`
}

type ticketComment struct {
	Body   string        `json:"body"`
	Author commentAuthor `json:"author"`
}

type commentAuthor struct {
	Name string `json:"name"`
}

func newSendWebhookCmd() *cobra.Command {
	var configPath string
	var flags sendConfig
	cmd := &cobra.Command{
		Use:   "send-webhook",
		Short: "POST a signed sample comment webhook to a running relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSendConfig(configPath, flags)
			if err != nil {
				return err
			}
			return runSendWebhook(cmd.Context(), cmd.OutOrStdout(), &http.Client{Timeout: 10 * time.Second}, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML profile")
	cmd.Flags().StringVar(&flags.BaseURL, "url", "", "relay base URL (default http://localhost:5000)")
	cmd.Flags().StringVar(&flags.Secret, "secret", "", "webhook signing secret (default ZENDESK_WEBHOOK_SECRET)")
	cmd.Flags().StringVar(&flags.TicketID, "ticket-id", "", "ticket id in the payload")
	cmd.Flags().StringVar(&flags.Author, "author", "", "comment author name")
	cmd.Flags().StringVar(&flags.Body, "body", "", "comment body")
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "repeat delay between sends, e.g. 5s")
	cmd.Flags().IntVar(&flags.Count, "count", 0, "number of webhooks to send")
	return cmd
}

func runSendWebhook(ctx context.Context, out io.Writer, client *http.Client, cfg sendConfig) error {
	interval, err := cfg.interval()
	if err != nil {
		return err
	}
	for i := 0; i < cfg.Count; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		status, err := sendWebhook(ctx, client, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Webhook status: %s\n", status)
	}
	return nil
}

func buildCommentPayload(cfg sendConfig) ([]byte, error) {
	return json.Marshal(commentPayload{Ticket: commentTicket{
		ID: ticketIDLiteral(cfg.TicketID),
		Comment: ticketComment{
			Body:   cfg.Body,
			Author: commentAuthor{Name: cfg.Author},
		},
	}})
}

// ticketIDLiteral keeps numeric ids numeric and quotes anything else.
func ticketIDLiteral(id string) json.RawMessage {
	id = strings.TrimSpace(id)
	if _, err := json.Number(id).Int64(); err == nil {
		return json.RawMessage(id)
	}
	quoted, _ := json.Marshal(id)
	return quoted
}

func sendWebhook(ctx context.Context, client *http.Client, cfg sendConfig) (string, error) {
	body, err := buildCommentPayload(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/zendesk-webhook", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if cfg.Secret != "" {
		request.Header.Set(relay.SignatureHeader, relay.Sign(body, cfg.Secret))
	}

	resp, err := client.Do(request)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("webhook failed: %s: %s", resp.Status, relay.Truncate(strings.TrimSpace(string(payload)), 200))
	}
	return fmt.Sprintf("%s %s", resp.Status, strings.TrimSpace(string(payload))), nil
}
