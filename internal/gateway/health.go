// health.go implements the health aggregator (component L): three
// endpoints of increasing cost — live (process up), ready (safe to
// receive traffic), and the full status breakdown for operators
// debugging a degraded gateway.
package gateway

import (
	"time"

	"github.com/compresr/bot-gateway/internal/breaker"
)

// CheckStatus is one subsystem's health verdict.
type CheckStatus string

const (
	CheckOK       CheckStatus = "ok"
	CheckDegraded CheckStatus = "degraded"
	CheckDown     CheckStatus = "down"
)

// Checks is the per-subsystem breakdown behind the overall verdict.
type Checks struct {
	Breaker     CheckStatus `json:"breaker"`
	RateLimiter CheckStatus `json:"rate_limiter"`
}

// Status is the full health snapshot returned by GET /health.
type Status struct {
	Overall       CheckStatus `json:"overall"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Timestamp     time.Time   `json:"timestamp"`
	Checks        Checks      `json:"checks"`
}

// Status aggregates the breaker phase and global-limiter saturation
// into the three-tier verdict: an open breaker is "down" outright since
// no traffic can get through; a saturated limiter alone is "degraded"
// since its refusals last only until its trailing window frees a slot.
func (p *Pipeline) Status() Status {
	breakerCheck := CheckOK
	switch p.Breaker.Phase() {
	case breaker.StateOpen:
		breakerCheck = CheckDown
	case breaker.StateHalfOpen:
		breakerCheck = CheckDegraded
	}

	limiterCheck := CheckOK
	if p.Global.Saturated() {
		limiterCheck = CheckDegraded
	}

	overall := CheckOK
	switch {
	case breakerCheck == CheckDown:
		overall = CheckDown
	case breakerCheck == CheckDegraded || limiterCheck == CheckDegraded:
		overall = CheckDegraded
	}

	return Status{
		Overall:       overall,
		UptimeSeconds: int64(p.Uptime().Seconds()),
		Timestamp:     time.Now(),
		Checks: Checks{
			Breaker:     breakerCheck,
			RateLimiter: limiterCheck,
		},
	}
}

// Ready reports whether the gateway should currently receive traffic:
// anything short of an open breaker is ready, since "degraded" still
// accepts requests, if fewer of them.
func (p *Pipeline) Ready() bool {
	return p.Breaker.Phase() != breaker.StateOpen
}

// Live reports whether the process itself is healthy. The pipeline
// never enters a state where it can't answer this, so it always
// returns true once constructed; a dedicated method exists so the HTTP
// layer has a single obvious place to call for the liveness probe.
func (p *Pipeline) Live() bool {
	return true
}
