// Pipeline is the request pipeline driver (component K): it owns the
// cache, both rate limiters, the breaker, the metrics registry, and the
// upstream client, and orchestrates one invocation through
// validate -> cache -> breaker -> global limit -> per-destination limit
// -> upload encode -> transport (with retry) -> post-processing.
//
// Follows spec.md §4.K's ordering: one long-lived value holding its
// collaborators, invoked per request rather than reconstructed.
package gateway

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/compresr/bot-gateway/internal/breaker"
	"github.com/compresr/bot-gateway/internal/cache"
	"github.com/compresr/bot-gateway/internal/methods"
	"github.com/compresr/bot-gateway/internal/model"
	"github.com/compresr/bot-gateway/internal/monitoring"
	"github.com/compresr/bot-gateway/internal/ratelimit"
	"github.com/compresr/bot-gateway/internal/retry"
	"github.com/compresr/bot-gateway/internal/upload"
	"github.com/compresr/bot-gateway/internal/upstream"
	"github.com/compresr/bot-gateway/internal/validate"
)

// Pipeline owns every piece of shared, process-local state a single
// invocation touches.
type Pipeline struct {
	Cache          *cache.Cache
	Global         *ratelimit.Global
	PerDest        *ratelimit.PerDestination
	Breaker        *breaker.Breaker
	Metrics        *monitoring.Metrics
	Upstream       *upstream.Client
	Logger         *monitoring.Logger
	DefaultTimeout time.Duration
	DefaultRetries int
	startedAt      time.Time
}

// NewPipeline wires a fresh Pipeline. Every field is a distinct
// process-local resource, per spec.md §9's dependency-injection note:
// tests construct a fresh Pipeline per case rather than reaching for a
// package-level singleton.
func NewPipeline(upstreamClient *upstream.Client, metrics *monitoring.Metrics, logger *monitoring.Logger, rateLimitPerMinute, defaultRetries int, defaultTimeout time.Duration) *Pipeline {
	p := &Pipeline{
		Cache:          cache.New(),
		Global:         ratelimit.NewGlobal(rateLimitPerMinute),
		PerDest:        ratelimit.NewPerDestination(),
		Metrics:        metrics,
		Upstream:       upstreamClient,
		Logger:         logger,
		DefaultTimeout: defaultTimeout,
		DefaultRetries: defaultRetries,
		startedAt:      time.Now(),
	}
	p.Breaker = breaker.New(func(from, to breaker.State) {
		if to == breaker.StateOpen {
			metrics.BreakerTripsTotal.Inc()
		}
		metrics.BreakerState.Set(phaseGauge(to))
	})
	return p
}

func phaseGauge(s breaker.State) float64 {
	switch s {
	case breaker.StateClosed:
		return 0
	case breaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Invoke drives one method call through the full pipeline per §4.K.
func (p *Pipeline) Invoke(ctx context.Context, req model.InvocationRequest) *model.Envelope {
	start := time.Now()
	desc := methods.Lookup(req.Method)

	vr := validate.Validate(req.Method, req.Params)
	if !vr.OK {
		p.recordFailure(req.Method, CategoryValidation)
		return model.Failure("Validation failed: "+vr.Error(), nil)
	}
	params := vr.Normalized
	if params == nil {
		params = req.Params
	}

	if desc != nil && desc.Cacheable {
		if cached, hit := p.Cache.Lookup(req.Method, params); hit {
			p.Metrics.CacheHitsTotal.WithLabelValues(req.Method, "hit").Inc()
			return model.Success(cached)
		}
		p.Metrics.CacheHitsTotal.WithLabelValues(req.Method, "miss").Inc()
	}

	if adm := p.Breaker.Admit(); !adm.Allowed {
		p.recordFailure(req.Method, CategoryCircuitOpen)
		return model.Failure("Request refused: circuit breaker open", model.IntPtr(503))
	}

	if !req.Options.SkipGlobalLimit {
		if adm := p.Global.Admit(); !adm.Allowed {
			p.Metrics.RateLimitHitsTotal.WithLabelValues("global").Inc()
			p.recordFailure(req.Method, CategoryRateLimited)
			secs := int(math.Ceil(float64(adm.WaitMs) / 1000))
			return model.FailureWithRetryAfter(
				fmt.Sprintf("Rate limit exceeded. Wait %d seconds.", secs), 429, secs)
		}
	}

	var destID string
	var destKind model.DestinationKind
	var destScoped bool
	if desc != nil && desc.DestinationScoped {
		if raw, present := params[desc.DestinationField]; present {
			destID, destKind = model.ClassifyDestination(raw)
			destScoped = true
			if adm := p.PerDest.AdmitFor(destID, destKind); !adm.Allowed {
				p.Metrics.RateLimitHitsTotal.WithLabelValues("per_chat").Inc()
				p.recordFailure(req.Method, CategoryRateLimited)
				secs := int(math.Ceil(float64(adm.WaitMs) / 1000))
				return model.FailureWithRetryAfter("Per-chat rate limit exceeded.", 429, secs)
			}
		}
	}

	uploadDesc := desc
	if uploadDesc == nil {
		uploadDesc = &methods.Descriptor{Name: req.Method}
	}
	prepared, err := upload.Prepare(uploadDesc, params)
	if err != nil {
		p.recordFailure(req.Method, CategoryClient)
		return model.Failure(err.Error(), model.IntPtr(400))
	}

	maxRetries := p.DefaultRetries
	if req.Options.MaxRetries != nil {
		maxRetries = *req.Options.MaxRetries
	}
	timeout := p.DefaultTimeout
	if req.Options.Timeout > 0 {
		timeout = req.Options.Timeout
	}

	var lastEnvelope *model.Envelope
	result := retry.Run(ctx, maxRetries, func(ctx context.Context) (retry.Outcome, error) {
		if !req.Options.SkipGlobalLimit {
			p.Global.Record()
		}
		env, outcome, err := p.Upstream.Do(ctx, req.Method, prepared.Body, prepared.ContentType, timeout)
		// Reset on every attempt, including a failing one, so a stale
		// envelope from an earlier retriable attempt never survives past
		// a later attempt that produced no envelope at all.
		lastEnvelope = env
		return outcome, err
	})

	for _, reason := range result.RetryReasons {
		p.Metrics.RetriesTotal.WithLabelValues(string(reason)).Inc()
	}

	if lastEnvelope == nil {
		p.Breaker.OnFailure(nil)
		category := CategoryNetwork
		if result.Outcome.Timeout {
			category = CategoryTimeout
		}
		p.recordFailure(req.Method, category)
		p.observeDuration(req.Method, start)
		msg := "upstream request failed"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		if category == CategoryTimeout {
			msg = "upstream request timeout: " + msg
		}
		return model.Failure(msg, nil)
	}

	if lastEnvelope.OK {
		p.Breaker.OnSuccess()
		if desc != nil && desc.Cacheable {
			p.Cache.Store(req.Method, params, lastEnvelope.Result, desc.CacheTTL)
		}
		if destScoped {
			p.PerDest.RecordFor(destID, destKind)
		}
		p.Metrics.InvocationsTotal.WithLabelValues(req.Method, "success").Inc()
		p.observeDuration(req.Method, start)
		return lastEnvelope
	}

	p.Breaker.OnFailure(lastEnvelope.ErrorCode)
	category := classify(lastEnvelope.Description, lastEnvelope.ErrorCode)
	p.recordFailure(req.Method, category)
	p.observeDuration(req.Method, start)
	return lastEnvelope
}

func (p *Pipeline) recordFailure(method string, category Category) {
	p.Metrics.InvocationsTotal.WithLabelValues(method, "failure").Inc()
	p.Metrics.ErrorsTotal.WithLabelValues(string(category)).Inc()
}

func (p *Pipeline) observeDuration(method string, start time.Time) {
	p.Metrics.InvocationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// Uptime reports how long this Pipeline (and by extension the process,
// in normal operation) has been running.
func (p *Pipeline) Uptime() time.Duration {
	return time.Since(p.startedAt)
}
