package gateway

import "strings"

// Category is one of spec.md §7's seven mutually exclusive failure
// categories, used to label the errors_total metric.
type Category string

const (
	CategoryValidation  Category = "VALIDATION"
	CategoryClient      Category = "CLIENT"
	CategoryServer      Category = "SERVER"
	CategoryNetwork     Category = "NETWORK"
	CategoryRateLimited Category = "RATE_LIMITED"
	CategoryTimeout     Category = "TIMEOUT"
	CategoryCircuitOpen Category = "CIRCUIT_OPEN"
)

// classify implements §7's first-match-wins classification rule.
func classify(description string, errorCode *int) Category {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "timeout"):
		return CategoryTimeout
	case strings.Contains(lower, "circuit breaker"):
		return CategoryCircuitOpen
	case errorCode == nil:
		return CategoryNetwork
	case *errorCode == 429:
		return CategoryRateLimited
	case *errorCode >= 500:
		return CategoryServer
	case *errorCode >= 400:
		return CategoryClient
	default:
		return CategoryServer
	}
}
