package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Operator tooling for the Zendesk to Discord relay",
	Long: `relayctl signs and replays helpdesk webhooks against a running relay
and checks connectivity to Zendesk and Discord with the relay's own
environment configuration.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newSignCmd(), newSendWebhookCmd(), newProbeCmd())
}
