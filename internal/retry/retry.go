// Package retry implements the transport-attempt loop (component J):
// classification of an attempt's outcome into retriable/non-retriable,
// and the delay schedule between attempts.
package retry

import (
	"context"
	"time"
)

// Reason labels a retry for the retries_total{reason} metric.
type Reason string

const (
	ReasonRateLimit   Reason = "rate_limit"
	ReasonServerError Reason = "server_error"
	ReasonTimeout     Reason = "timeout"
	ReasonNetwork     Reason = "network"
)

const maxBackoffMs = 30_000

// Outcome is what a single attempt produced, in the shape the engine
// needs to classify it: a successful envelope (OK true, no error code
// at all), a failed envelope carrying an error code, or a
// transport-level failure with no parsed envelope at all. OK and
// ErrorCode==nil are not interchangeable: a nil ErrorCode occurs on
// both a success and a transport failure, so OK is what disambiguates
// them.
type Outcome struct {
	OK                bool
	ErrorCode         *int
	RetryAfterSeconds *int
	Timeout           bool
	Transport         bool // true when the attempt never produced a parsed reply
}

// Classify reports whether an outcome should be retried and, if so,
// which reason to attribute the retry to. A successful envelope is
// never retried, regardless of ErrorCode, which a success leaves nil.
func Classify(o Outcome) (retry bool, reason Reason) {
	if o.OK {
		return false, ""
	}
	if o.Timeout {
		return true, ReasonTimeout
	}
	if o.Transport || o.ErrorCode == nil {
		return true, ReasonNetwork
	}
	switch {
	case *o.ErrorCode == 429:
		return true, ReasonRateLimit
	case *o.ErrorCode >= 500:
		return true, ReasonServerError
	default:
		return false, ""
	}
}

// Delay computes the wait before attempt i (0-based, counting the
// attempt that just failed) per spec.md §4.J: honour a server-supplied
// retry-after in seconds exactly, otherwise exponential backoff capped
// at 30s.
func Delay(i int, o Outcome) time.Duration {
	if o.RetryAfterSeconds != nil {
		return time.Duration(*o.RetryAfterSeconds) * time.Second
	}
	ms := 1000 << uint(i)
	if ms > maxBackoffMs || ms <= 0 {
		ms = maxBackoffMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Attempt is a single call to the upstream platform.
type Attempt func(ctx context.Context) (Outcome, error)

// Result is what Run returns: the final outcome (or error) plus the
// number of attempts it took and every reason a retry was triggered.
type Result struct {
	Outcome      Outcome
	Err          error
	Attempts     int
	RetryReasons []Reason
}

// Run executes attempt at most 1+maxRetries times, sleeping between
// attempts per Delay, honouring ctx cancellation both during the call
// and during the backoff sleep.
func Run(ctx context.Context, maxRetries int, attempt Attempt) Result {
	var last Outcome
	var lastErr error
	var reasons []Reason

	for i := 0; i <= maxRetries; i++ {
		outcome, err := attempt(ctx)
		last, lastErr = outcome, err

		if err == nil {
			retryable, reason := Classify(outcome)
			if !retryable {
				return Result{Outcome: outcome, Attempts: i + 1, RetryReasons: reasons}
			}
			if i == maxRetries {
				return Result{Outcome: outcome, Attempts: i + 1, RetryReasons: reasons}
			}
			reasons = append(reasons, reason)

			select {
			case <-ctx.Done():
				return Result{Outcome: Outcome{Timeout: true}, Err: ctx.Err(), Attempts: i + 1, RetryReasons: reasons}
			case <-time.After(Delay(i, outcome)):
			}
			continue
		}

		// Transport-level error (no parsed envelope at all). An attempt
		// that reports a timeout keeps that classification.
		failed := Outcome{Transport: true}
		if outcome.Timeout {
			failed = Outcome{Timeout: true}
		}
		if i == maxRetries {
			return Result{Outcome: failed, Err: err, Attempts: i + 1, RetryReasons: reasons}
		}
		_, reason := Classify(failed)
		reasons = append(reasons, reason)

		select {
		case <-ctx.Done():
			return Result{Outcome: Outcome{Timeout: true}, Err: ctx.Err(), Attempts: i + 1, RetryReasons: reasons}
		case <-time.After(Delay(i, Outcome{})):
		}
	}

	return Result{Outcome: last, Err: lastErr, Attempts: maxRetries + 1, RetryReasons: reasons}
}
