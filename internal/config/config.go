// Package config loads and validates gateway configuration.
//
// FILES:
//   - config.go:   Root Config struct, Load(), Validate()
//   - defaults.go: Centralised defaults and clamp bounds
//   - safeview.go: Secret-redacted view for logging
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root gateway configuration. A YAML file supplies the
// baseline; environment variables from spec.md §6 are applied on top
// as overrides, per applyEnvOverrides.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bot     BotConfig     `yaml:"bot"`
	Retry   RetryConfig   `yaml:"retry"`
	Limits  LimitsConfig  `yaml:"limits"`
	Webhook WebhookConfig `yaml:"webhook"`
	Logging LoggingConfig `yaml:"logging"`
	Debug   bool          `yaml:"debug"`
}

// ServerConfig holds the ports the gateway's own listeners bind to.
type ServerConfig struct {
	HealthPort  int `yaml:"health_port"`
	WebhookPort int `yaml:"webhook_port"`
}

// BotConfig identifies the upstream bot platform account this gateway
// speaks for.
type BotConfig struct {
	Token string `yaml:"token"` // format \d+:[A-Za-z0-9_-]+
	Host  string `yaml:"host"`  // upstream API host, e.g. api.example-bot-platform.org
}

// RetryConfig controls the transport attempt loop (component J).
type RetryConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// LimitsConfig controls the global rate limiter (component E).
type LimitsConfig struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// WebhookConfig controls the inbound webhook receiver.
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

var botTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default} references
// inside a YAML document before it is parsed, so operators can template
// the file without a separate templating pass.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads and parses configuration from a YAML file. A missing path
// is not an error: the gateway can run purely from environment
// variables (a common deployment shape for a single-bot process).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				cfg = &Config{}
			} else {
				return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
			}
		} else {
			loaded, err := LoadFromBytes(data)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromBytes parses configuration from raw YAML bytes, expanding
// ${VAR:-default} references first. It does not apply env overrides or
// defaults; callers that want those should go through Load.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies the spec.md §6 environment variables on top
// of whatever the YAML file (if any) already set. Environment variables
// always win, so container/orchestration deployments never need to
// bake secrets into a file.
func (c *Config) applyEnvOverrides() {
	if v := firstNonEmptyEnv("BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("BOT_HOST"); v != "" {
		c.Bot.Host = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if ms, err := parseIntEnv(v); err == nil {
			c.Retry.RequestTimeout = clampDuration(time.Duration(ms)*time.Millisecond, MinRequestTimeout, MaxRequestTimeout)
		}
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := parseIntEnv(v); err == nil {
			c.Retry.MaxRetries = clampInt(n, MinMaxRetries, MaxMaxRetries)
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := parseIntEnv(v); err == nil {
			c.Limits.RateLimitPerMinute = clampInt(n, MinRateLimitPerMinute, MaxRateLimitPerMinute)
		}
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Webhook.Secret = v
	}
	if v := os.Getenv("WEBHOOK_PORT"); v != "" {
		if n, err := parseIntEnv(v); err == nil {
			c.Server.WebhookPort = n
		}
	}
	if v := os.Getenv("HEALTH_PORT"); v != "" {
		if n, err := parseIntEnv(v); err == nil {
			c.Server.HealthPort = n
		}
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.Debug = v == "1" || v == "true"
	}
}

func firstNonEmptyEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func parseIntEnv(v string) (int, error) {
	var n int
	_, err := fmt.Sscanf(v, "%d", &n)
	return n, err
}

// applyDefaults fills in every field not explicitly configured.
func (c *Config) applyDefaults() {
	if c.Retry.RequestTimeout == 0 {
		c.Retry.RequestTimeout = DefaultRequestTimeout
	} else {
		c.Retry.RequestTimeout = clampDuration(c.Retry.RequestTimeout, MinRequestTimeout, MaxRequestTimeout)
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = DefaultMaxRetries
	} else {
		c.Retry.MaxRetries = clampInt(c.Retry.MaxRetries, MinMaxRetries, MaxMaxRetries)
	}
	if c.Limits.RateLimitPerMinute == 0 {
		c.Limits.RateLimitPerMinute = DefaultRateLimitPerMinute
	} else {
		c.Limits.RateLimitPerMinute = clampInt(c.Limits.RateLimitPerMinute, MinRateLimitPerMinute, MaxRateLimitPerMinute)
	}
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = DefaultHealthPort
	}
	if c.Server.WebhookPort == 0 {
		c.Server.WebhookPort = DefaultWebhookPort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required (set BOT_TOKEN)")
	}
	if !botTokenPattern.MatchString(c.Bot.Token) {
		return fmt.Errorf("bot.token does not match the expected \\d+:[A-Za-z0-9_-]+ format")
	}
	if c.Bot.Host == "" {
		return fmt.Errorf("bot.host is required")
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level %q is not one of debug|info|notice|warning|error|critical", c.Logging.Level)
	}
	if c.Server.HealthPort < 1 || c.Server.HealthPort > 65535 {
		return fmt.Errorf("server.health_port out of range: %d", c.Server.HealthPort)
	}
	if c.Server.WebhookPort < 1 || c.Server.WebhookPort > 65535 {
		return fmt.Errorf("server.webhook_port out of range: %d", c.Server.WebhookPort)
	}
	return nil
}
