package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type sendConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Secret   string `mapstructure:"secret"`
	TicketID string `mapstructure:"ticket_id"`
	Author   string `mapstructure:"author"`
	Body     string `mapstructure:"body"`
	Interval string `mapstructure:"interval"`
	Count    int    `mapstructure:"count"`
}

// loadSendConfig reads an optional YAML profile; non-empty flag values win.
func loadSendConfig(path string, flags sendConfig) (sendConfig, error) {
	cfg := sendConfig{
		BaseURL:  "http://localhost:5000",
		TicketID: "1",
		Author:   "Support Agent",
		Body:     "Test comment from relayctl",
		Count:    1,
	}

	if strings.TrimSpace(path) != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return sendConfig{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return sendConfig{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	override(&cfg.BaseURL, flags.BaseURL)
	override(&cfg.Secret, flags.Secret)
	override(&cfg.TicketID, flags.TicketID)
	override(&cfg.Author, flags.Author)
	override(&cfg.Body, flags.Body)
	override(&cfg.Interval, flags.Interval)
	if flags.Count > 0 {
		cfg.Count = flags.Count
	}
	if cfg.Secret == "" {
		cfg.Secret = strings.TrimSpace(os.Getenv("ZENDESK_WEBHOOK_SECRET"))
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return sendConfig{}, fmt.Errorf("base_url is required")
	}
	if strings.TrimSpace(cfg.Body) == "" {
		return sendConfig{}, fmt.Errorf("body is required")
	}
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if _, err := cfg.interval(); err != nil {
		return sendConfig{}, err
	}
	return cfg, nil
}

func (c sendConfig) interval() (time.Duration, error) {
	if strings.TrimSpace(c.Interval) == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(c.Interval))
	if err != nil {
		return 0, fmt.Errorf("invalid interval duration: %w", err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return parsed, nil
}

func override(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
