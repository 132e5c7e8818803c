package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Zendesk       ZendeskConfig
	Discord       DiscordConfig
	Relay         RelayConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Port         int
	MaxBodyBytes int64
	RateLimitRPS float64
	RateBurst    int
	ProbeTimeout time.Duration
}

type ZendeskConfig struct {
	Subdomain     string
	BaseURL       string
	Email         string
	APIToken      string
	WebhookSecret string
	Timeout       time.Duration
}

type DiscordConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

type RelayConfig struct {
	RequesterPrefix string
	RequesterDomain string
	RegistrySize    int
}

type ObservabilityConfig struct {
	Enabled       bool
	OTLPEndpoint  string
	OTLPHeaders   map[string]string
	ServiceName   string
	ServiceVer    string
	SamplingRatio float64
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("relay_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("port", 0)
	v.SetDefault("relay_port", 5000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("zendesk_subdomain", "")
	v.SetDefault("zendesk_base_url", "")
	v.SetDefault("zendesk_email", "")
	v.SetDefault("zendesk_api_token", "")
	v.SetDefault("zendesk_webhook_secret", "")
	v.SetDefault("zendesk_timeout", "30s")
	v.SetDefault("discord_webhook_url", "")
	v.SetDefault("discord_timeout", "15s")
	v.SetDefault("relay_requester_prefix", "discord-")
	v.SetDefault("relay_requester_domain", "example.com")
	v.SetDefault("relay_probe_timeout", "10s")
	v.SetDefault("relay_max_body_bytes", 1<<20)
	v.SetDefault("relay_rate_limit_rps", 0)
	v.SetDefault("relay_rate_limit_burst", 20)
	v.SetDefault("relay_ticket_registry_size", 1024)
	v.SetDefault("relay_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_service_name", "deskrelay")
	v.SetDefault("relay_version", "dev")
	v.SetDefault("relay_otel_sampling_ratio", 1.0)

	port := v.GetInt("port")
	if port == 0 {
		port = v.GetInt("relay_port")
	}
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %d", port)
	}

	zendeskTimeout, err := durationValue(v, "zendesk_timeout")
	if err != nil {
		return Config{}, err
	}
	discordTimeout, err := durationValue(v, "discord_timeout")
	if err != nil {
		return Config{}, err
	}
	probeTimeout, err := durationValue(v, "relay_probe_timeout")
	if err != nil {
		return Config{}, err
	}

	maxBody := v.GetInt64("relay_max_body_bytes")
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	rps := v.GetFloat64("relay_rate_limit_rps")
	if rps < 0 {
		rps = 0
	}
	burst := v.GetInt("relay_rate_limit_burst")
	if burst <= 0 {
		burst = 20
	}
	registrySize := v.GetInt("relay_ticket_registry_size")
	if registrySize <= 0 {
		registrySize = 1024
	}

	samplingRatio := v.GetFloat64("relay_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "deskrelay"
	}
	serviceVersion := strings.TrimSpace(v.GetString("relay_version"))
	if serviceVersion == "" {
		serviceVersion = "dev"
	}
	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))

	prefix := strings.ToLower(strings.TrimSpace(v.GetString("relay_requester_prefix")))
	if prefix == "" {
		prefix = "discord-"
	}
	domain := strings.TrimSpace(v.GetString("relay_requester_domain"))
	if domain == "" {
		domain = "example.com"
	}

	subdomain := strings.TrimSpace(v.GetString("zendesk_subdomain"))
	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("zendesk_base_url")), "/")
	if baseURL == "" && subdomain != "" {
		baseURL = fmt.Sprintf("https://%s.zendesk.com", subdomain)
	}

	return Config{
		Environment: resolveEnvironment(v),
		Server: ServerConfig{
			Port:         port,
			MaxBodyBytes: maxBody,
			RateLimitRPS: rps,
			RateBurst:    burst,
			ProbeTimeout: probeTimeout,
		},
		Zendesk: ZendeskConfig{
			Subdomain:     subdomain,
			BaseURL:       baseURL,
			Email:         strings.TrimSpace(v.GetString("zendesk_email")),
			APIToken:      strings.TrimSpace(v.GetString("zendesk_api_token")),
			WebhookSecret: strings.TrimSpace(v.GetString("zendesk_webhook_secret")),
			Timeout:       zendeskTimeout,
		},
		Discord: DiscordConfig{
			WebhookURL: strings.TrimSpace(v.GetString("discord_webhook_url")),
			Timeout:    discordTimeout,
		},
		Relay: RelayConfig{
			RequesterPrefix: prefix,
			RequesterDomain: domain,
			RegistrySize:    registrySize,
		},
		Observability: ObservabilityConfig{
			Enabled:       v.GetBool("relay_otel_enabled") || otlpEndpoint != "",
			OTLPEndpoint:  otlpEndpoint,
			OTLPHeaders:   parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers")),
			ServiceName:   serviceName,
			ServiceVer:    serviceVersion,
			SamplingRatio: samplingRatio,
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		},
	}, nil
}

// Missing lists the environment keys required for full operation that are unset.
func (c Config) Missing() []string {
	var missing []string
	if c.Zendesk.BaseURL == "" {
		missing = append(missing, "ZENDESK_SUBDOMAIN")
	}
	if c.Zendesk.Email == "" {
		missing = append(missing, "ZENDESK_EMAIL")
	}
	if c.Zendesk.APIToken == "" {
		missing = append(missing, "ZENDESK_API_TOKEN")
	}
	if c.Discord.WebhookURL == "" {
		missing = append(missing, "DISCORD_WEBHOOK_URL")
	}
	return missing
}

// Configured reports whether both sides of the relay have credentials.
func (c Config) Configured() bool {
	return len(c.Missing()) == 0
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// durationValue accepts Go duration strings or bare seconds.
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid %s: %q", strings.ToUpper(key), raw)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", strings.ToUpper(key), raw)
	}
	return d, nil
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"relay_env", "app_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
