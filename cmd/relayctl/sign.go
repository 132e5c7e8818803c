package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fr0stylo/deskrelay/internal/relay"
)

func newSignCmd() *cobra.Command {
	var secret, file string
	cmd := &cobra.Command{
		Use:   "sign [body]",
		Short: "Print the webhook signature header for a body",
		Long: `Computes the X-Zendesk-Webhook-Signature value for a body given as an
argument, read from --file, or read from stdin. The secret defaults to
ZENDESK_WEBHOOK_SECRET.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = strings.TrimSpace(os.Getenv("ZENDESK_WEBHOOK_SECRET"))
			}
			if secret == "" {
				return fmt.Errorf("a secret is required (--secret or ZENDESK_WEBHOOK_SECRET)")
			}
			body, err := readBody(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", relay.SignatureHeader, relay.Sign(body, secret))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "webhook signing secret")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the body from a file")
	return cmd
}

func readBody(stdin io.Reader, args []string, file string) ([]byte, error) {
	switch {
	case len(args) == 1:
		return []byte(args[0]), nil
	case file != "":
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return body, nil
	default:
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return body, nil
	}
}
