package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/compresr/bot-gateway/internal/config"
	"github.com/compresr/bot-gateway/internal/ratelimit"
	"github.com/compresr/bot-gateway/internal/tui"
)

// runSetupWizard walks an operator through the settings config.Config
// needs and writes the result to outPath as YAML: bot token, webhook
// URL/secret, rate-limit, log format, and debug logging. Confirms
// before overwriting an existing file.
func runSetupWizard(outPath string) error {
	tui.PrintBanner()
	tui.PrintHeader("Gateway Setup")

	fields := []tui.WizardField{
		{
			ID:          "token",
			Label:       "Bot token",
			Description: "format: digits:alphanumeric, e.g. 123456:AbC-def",
			Type:        tui.FieldTypePassword,
			Required:    true,
		},
		{
			ID:          "host",
			Label:       "Bot platform host",
			Description: "e.g. api.example-bot-platform.org",
			Type:        tui.FieldTypeText,
			Value:       "api.example-bot-platform.org",
			Required:    true,
		},
		{
			ID:          "webhook_url",
			Label:       "Webhook URL",
			Description: "public HTTPS URL the bot platform will POST updates to; leave blank to skip",
			Type:        tui.FieldTypeText,
		},
		{
			ID:          "webhook_secret",
			Label:       "Webhook secret",
			Description: "shared secret checked against the inbound X-...-Secret-Token header",
			Type:        tui.FieldTypePassword,
		},
		{
			ID:          "rate_limit",
			Label:       "Rate limit (calls/minute)",
			Description: fmt.Sprintf("%d-%d, default %d", config.MinRateLimitPerMinute, config.MaxRateLimitPerMinute, config.DefaultRateLimitPerMinute),
			Type:        tui.FieldTypeText,
			Value:       strconv.Itoa(config.DefaultRateLimitPerMinute),
		},
		{
			ID:          "log_format",
			Label:       "Log format",
			Description: "console is readable in a terminal, json is for log aggregation",
			Type:        tui.FieldTypeSelect,
			Options: []tui.MenuItem{
				{Label: "console"},
				{Label: "json"},
			},
		},
		{
			ID:          "debug",
			Label:       "Debug logging",
			Description: "verbose logging of every upstream call",
			Type:        tui.FieldTypeYesNo,
		},
	}

	result, err := tui.RunWizard("Bot Gateway Setup", fields)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if _, err := os.Stat(outPath); err == nil {
		if !tui.PromptYesNo(fmt.Sprintf("%s already exists. Overwrite?", outPath), false) {
			return fmt.Errorf("setup cancelled: %s already exists", outPath)
		}
	}

	cfg := &config.Config{
		Bot: config.BotConfig{
			Token: stringValue(result, "token"),
			Host:  stringValue(result, "host"),
		},
		Webhook: config.WebhookConfig{
			URL:    stringValue(result, "webhook_url"),
			Secret: stringValue(result, "webhook_secret"),
		},
		Logging: config.LoggingConfig{
			Format: selectValue(result, "log_format", "console"),
		},
		Debug: boolValue(result, "debug"),
	}
	if n, err := strconv.Atoi(stringValue(result, "rate_limit")); err == nil {
		cfg.Limits.RateLimitPerMinute = ratelimit.ClampBudget(n)
	}

	tui.PrintStep("validating configuration")
	if err := cfg.Validate(); err != nil {
		tui.PrintWarn(fmt.Sprintf("configuration has a problem you'll need to fix by hand: %v", err))
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	tui.PrintSuccess(fmt.Sprintf("wrote %s", outPath))
	tui.PrintInfo("start the gateway with: bot-gateway serve --config " + outPath)
	return nil
}

func stringValue(r *tui.WizardResult, id string) string {
	v, _ := r.Values[id].(string)
	return v
}

func boolValue(r *tui.WizardResult, id string) bool {
	v, _ := r.Values[id].(bool)
	return v
}

func selectValue(r *tui.WizardResult, id, fallback string) string {
	if v, ok := r.Values[id+"_value"].(string); ok && v != "" {
		return v
	}
	return fallback
}
