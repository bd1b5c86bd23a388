package retry

import (
	"context"
	"testing"
	"time"
)

func TestClassifySuccessNeverRetries(t *testing.T) {
	// A successful envelope carries no error code at all (model.Success
	// leaves ErrorCode nil); OK is what distinguishes this from a
	// codeless transport failure, which also retries=true.
	if retry, _ := Classify(Outcome{OK: true}); retry {
		t.Fatal("expected a successful outcome with a nil error code not to retry")
	}
}

func TestClassifyRateLimitRetries(t *testing.T) {
	code := 429
	retry, reason := Classify(Outcome{ErrorCode: &code})
	if !retry || reason != ReasonRateLimit {
		t.Fatalf("expected rate_limit retry, got retry=%v reason=%v", retry, reason)
	}
}

func TestClassifyServerErrorRetries(t *testing.T) {
	code := 503
	retry, reason := Classify(Outcome{ErrorCode: &code})
	if !retry || reason != ReasonServerError {
		t.Fatalf("expected server_error retry, got retry=%v reason=%v", retry, reason)
	}
}

func TestClassifyClientErrorDoesNotRetry(t *testing.T) {
	code := 400
	if retry, _ := Classify(Outcome{ErrorCode: &code}); retry {
		t.Fatal("expected a non-429 4xx outcome not to retry")
	}
}

func TestClassifyNoCodeRetriesAsNetwork(t *testing.T) {
	retry, reason := Classify(Outcome{})
	if !retry || reason != ReasonNetwork {
		t.Fatalf("expected network retry for a codeless outcome, got retry=%v reason=%v", retry, reason)
	}
}

func TestDelayHonoursServerRetryAfter(t *testing.T) {
	secs := 2
	d := Delay(0, Outcome{RetryAfterSeconds: &secs})
	if d != 2*time.Second {
		t.Fatalf("expected exactly 2s, got %v", d)
	}
}

func TestDelayExponentialBackoffCapped(t *testing.T) {
	if Delay(0, Outcome{}) != time.Second {
		t.Fatalf("expected 1s for attempt 0, got %v", Delay(0, Outcome{}))
	}
	if Delay(10, Outcome{}) != 30*time.Second {
		t.Fatalf("expected the cap of 30s for a large attempt index, got %v", Delay(10, Outcome{}))
	}
}

func TestRunStopsAfterASingleSuccessWithNoErrorCode(t *testing.T) {
	calls := 0
	result := Run(context.Background(), 3, func(ctx context.Context) (Outcome, error) {
		calls++
		return Outcome{OK: true}, nil
	})
	if calls != 1 {
		t.Fatalf("expected exactly one attempt for an ordinary success, got %d", calls)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected Attempts=1, got %d", result.Attempts)
	}
}

func TestRunStopsOnNonRetriableClientError(t *testing.T) {
	calls := 0
	code := 400
	result := Run(context.Background(), 3, func(ctx context.Context) (Outcome, error) {
		calls++
		return Outcome{ErrorCode: &code}, nil
	})
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected Attempts=1, got %d", result.Attempts)
	}
}

func TestRunRetriesUpToMaxRetries(t *testing.T) {
	calls := 0
	code := 500
	result := Run(context.Background(), 2, func(ctx context.Context) (Outcome, error) {
		calls++
		return Outcome{ErrorCode: &code}, nil
	})
	if calls != 3 {
		t.Fatalf("expected 1+maxRetries=3 attempts, got %d", calls)
	}
	if len(result.RetryReasons) != 2 {
		t.Fatalf("expected 2 retry reasons recorded, got %d", len(result.RetryReasons))
	}
}

func TestRunHonoursServerSuppliedDelayBetweenAttempts(t *testing.T) {
	calls := 0
	code429 := 429
	secs := 1
	start := time.Now()
	result := Run(context.Background(), 1, func(ctx context.Context) (Outcome, error) {
		calls++
		if calls == 1 {
			return Outcome{ErrorCode: &code429, RetryAfterSeconds: &secs}, nil
		}
		return Outcome{OK: true}, nil
	})
	elapsed := time.Since(start)
	if elapsed < time.Second {
		t.Fatalf("expected at least 1s between attempts, got %v", elapsed)
	}
	if result.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", result.Attempts)
	}
}
