package config

import "time"

// Defaults and clamp bounds for every environment-configurable setting
// in spec.md §6, centralised the way the retrieval pack's defaults.go
// groups magic numbers by concern rather than scattering them across
// call sites.
const (
	DefaultRequestTimeout = 30 * time.Second
	MinRequestTimeout     = 5 * time.Second
	MaxRequestTimeout     = 120 * time.Second

	DefaultMaxRetries = 3
	MinMaxRetries     = 0
	MaxMaxRetries     = 10

	DefaultRateLimitPerMinute = 30
	MinRateLimitPerMinute     = 1
	MaxRateLimitPerMinute     = 60

	DefaultHealthPort  = 8081
	DefaultWebhookPort = 8443

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	WebhookQueueCapacity = 1000
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "notice": true,
	"warning": true, "error": true, "critical": true,
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
