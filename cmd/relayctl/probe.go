package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fr0stylo/deskrelay/internal/config"
	"github.com/fr0stylo/deskrelay/internal/discord"
	"github.com/fr0stylo/deskrelay/internal/relay"
	"github.com/fr0stylo/deskrelay/internal/zendesk"
)

func newProbeCmd() *cobra.Command {
	var skipDiscord bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check Zendesk and Discord connectivity with the relay environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			helpdesk := zendesk.NewClient(cfg.Zendesk.BaseURL,
				zendesk.Credentials{Email: cfg.Zendesk.Email, APIToken: cfg.Zendesk.APIToken},
				cfg.Server.ProbeTimeout,
			)
			var chat *discord.Notifier
			if !skipDiscord {
				chat = discord.NewNotifier(cfg.Discord.WebhookURL, cfg.Server.ProbeTimeout)
			}
			return runProbe(cmd.Context(), cmd.OutOrStdout(), helpdesk, chat)
		},
	}
	cmd.Flags().BoolVar(&skipDiscord, "skip-discord", false, "do not post a test message to Discord")
	return cmd
}

func runProbe(ctx context.Context, out io.Writer, helpdesk *zendesk.Client, chat *discord.Notifier) error {
	failed := false

	result, err := helpdesk.Probe(ctx)
	switch {
	case err != nil:
		failed = true
		fmt.Fprintf(out, "zendesk: error: %s %v\n", relay.Message(err), relay.Missing(err))
	case !result.OK:
		failed = true
		fmt.Fprintf(out, "zendesk: status %d\n", result.StatusCode)
	default:
		fmt.Fprintf(out, "zendesk: ok (status %d)\n", result.StatusCode)
	}

	if chat != nil {
		delivery, err := chat.SendContent(ctx, "🔧 Test message from relayctl (no sensitive data)")
		if err != nil {
			failed = true
			fmt.Fprintf(out, "discord: error: %s\n", relay.Message(err))
		} else {
			fmt.Fprintf(out, "discord: ok (status %d)\n", delivery.StatusCode)
		}
	}

	if failed {
		return fmt.Errorf("connectivity probe failed")
	}
	return nil
}
