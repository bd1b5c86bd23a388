package config

import "github.com/compresr/bot-gateway/internal/redact"

// SafeView is the redacted rendering of Config suitable for a startup
// log line: the bot token is shown as first4…last4, the webhook secret
// is fully masked, and URLs keep only their scheme and host.
type SafeView struct {
	BotTokenMasked string `json:"bot_token"`
	BotHost        string `json:"bot_host"`
	HealthPort     int    `json:"health_port"`
	WebhookPort    int    `json:"webhook_port"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	HasWebhookSecret bool `json:"has_webhook_secret"`
	RequestTimeoutMs int64 `json:"request_timeout_ms"`
	MaxRetries       int   `json:"max_retries"`
	RateLimitPerMin  int   `json:"rate_limit_per_minute"`
	LogLevel         string `json:"log_level"`
}

// SafeView renders c without leaking the bot token or webhook secret.
func (c *Config) SafeView() SafeView {
	view := SafeView{
		BotTokenMasked:   redact.Token(c.Bot.Token),
		BotHost:          c.Bot.Host,
		HealthPort:       c.Server.HealthPort,
		WebhookPort:      c.Server.WebhookPort,
		HasWebhookSecret: c.Webhook.Secret != "",
		RequestTimeoutMs: c.Retry.RequestTimeout.Milliseconds(),
		MaxRetries:       c.Retry.MaxRetries,
		RateLimitPerMin:  c.Limits.RateLimitPerMinute,
		LogLevel:         c.Logging.Level,
	}
	if c.Webhook.URL != "" {
		view.WebhookURL = redact.URL(c.Webhook.URL)
	}
	return view
}
