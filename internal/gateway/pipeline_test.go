package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/compresr/bot-gateway/internal/model"
	"github.com/compresr/bot-gateway/internal/monitoring"
	"github.com/compresr/bot-gateway/internal/upstream"
)

// rewriteToHTTP forces every outbound request's scheme back to http so
// a Pipeline's upstream.Client (which always builds an https:// URL)
// can be pointed at a plain httptest.Server.
type rewriteToHTTP struct{}

func (rewriteToHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	return http.DefaultTransport.RoundTrip(req)
}

func newTestPipeline(t *testing.T, handler http.HandlerFunc, rateLimitPerMinute, defaultRetries int) (*Pipeline, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)
	host := strings.TrimPrefix(srv.URL, "http://")

	client := srv.Client()
	client.Transport = rewriteToHTTP{}

	upstreamClient := upstream.New(host, "12345:abc", client)
	logger := monitoring.New(monitoring.LoggerConfig{Level: "error", Format: "json", Output: "stderr"})
	metrics := monitoring.NewMetrics()

	p := NewPipeline(upstreamClient, metrics, logger, rateLimitPerMinute, defaultRetries, time.Second)
	return p, srv.Close
}

func TestCacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true,"result":{"id":42}}`))
	}, 30, 0)
	defer closeSrv()

	req := model.InvocationRequest{Method: "get_chat", Params: map[string]any{"chat_id": "42"}}

	first := p.Invoke(t.Context(), req)
	if !first.OK {
		t.Fatalf("expected first call to succeed, got %+v", first)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one network call to prime the cache, got %d", calls.Load())
	}

	second := p.Invoke(t.Context(), req)
	if !second.OK {
		t.Fatalf("expected cached call to succeed, got %+v", second)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a cache hit to skip the network, but call count is now %d", calls.Load())
	}
	if string(second.Result) != string(first.Result) {
		t.Fatalf("expected the cached result to match the original: %s vs %s", second.Result, first.Result)
	}
}

func TestOrdinarySuccessNeverTriggersADuplicateSend(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}, 30, 3)
	defer closeSrv()

	req := model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "1", "text": "hi"}}
	env := p.Invoke(t.Context(), req)

	if !env.OK {
		t.Fatalf("expected success, got %+v", env)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a successful envelope with no error code to stop after exactly one attempt, got %d (a nil ErrorCode on success must never be mistaken for a retriable network failure)", calls.Load())
	}
}

func TestNonRetriableClientErrorStopsAfterOneAttempt(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"bad request"}`))
	}, 30, 3)
	defer closeSrv()

	req := model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "100", "text": "hi"}}
	env := p.Invoke(t.Context(), req)

	if env.OK {
		t.Fatal("expected a failed envelope")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt for a non-retriable 400, got %d", calls.Load())
	}
	if p.Breaker.Phase().String() != "closed" {
		t.Fatalf("expected a 400 to never trip the breaker, phase is %s", p.Breaker.Phase())
	}
}

func TestBreakerOpensAfterFiveConsecutiveQualifyingFailures(t *testing.T) {
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":500,"description":"internal error"}`))
	}, 30, 0)
	defer closeSrv()

	req := model.InvocationRequest{Method: "get_identity"}

	for i := 0; i < 5; i++ {
		env := p.Invoke(t.Context(), req)
		if env.OK {
			t.Fatalf("expected failure on attempt %d", i+1)
		}
	}
	if p.Breaker.Phase().String() != "open" {
		t.Fatalf("expected breaker to be open after 5 qualifying failures, got %s", p.Breaker.Phase())
	}

	sixth := p.Invoke(t.Context(), req)
	if sixth.Description != "Request refused: circuit breaker open" {
		t.Fatalf("expected the sixth call to be refused by the open breaker, got %+v", sixth)
	}
	if sixth.ErrorCode == nil || *sixth.ErrorCode != 503 {
		t.Fatalf("expected a 503 on breaker refusal, got %v", sixth.ErrorCode)
	}
}

func TestNonQualifyingFailuresNeverTripTheBreaker(t *testing.T) {
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"bad request"}`))
	}, 30, 0)
	defer closeSrv()

	req := model.InvocationRequest{Method: "get_identity"}
	for i := 0; i < 10; i++ {
		p.Invoke(t.Context(), req)
	}
	if p.Breaker.Phase().String() != "closed" {
		t.Fatalf("expected repeated 400s to never qualify as breaker failures, got %s", p.Breaker.Phase())
	}
}

func TestPerDestinationPrivateLimitBlocksRapidSuccession(t *testing.T) {
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}, 30, 0)
	defer closeSrv()

	req := model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "500", "text": "hi"}}

	first := p.Invoke(t.Context(), req)
	if !first.OK {
		t.Fatalf("expected the first send to a private chat to succeed, got %+v", first)
	}

	second := p.Invoke(t.Context(), req)
	if second.OK {
		t.Fatal("expected a second send within the private min inter-arrival window to be refused")
	}
	if second.ErrorCode == nil || *second.ErrorCode != 429 {
		t.Fatalf("expected a 429 on per-destination refusal, got %v", second.ErrorCode)
	}
}

func TestPerDestinationBudgetsAreIndependent(t *testing.T) {
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}, 30, 0)
	defer closeSrv()

	reqA := model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "1001", "text": "a"}}
	reqB := model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "1002", "text": "b"}}

	if env := p.Invoke(t.Context(), reqA); !env.OK {
		t.Fatalf("expected first send to chat 1001 to succeed, got %+v", env)
	}
	if env := p.Invoke(t.Context(), reqA); env.OK {
		t.Fatal("expected second immediate send to chat 1001 to be refused")
	}
	if env := p.Invoke(t.Context(), reqB); !env.OK {
		t.Fatalf("expected chat 1002's independent budget to allow its first send, got %+v", env)
	}
}

func TestRetryHonoursServerSuppliedDelay(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"slow down","parameters":{"retry_after_seconds":0}}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{"delivered":true}}`))
	}, 30, 1)
	defer closeSrv()

	req := model.InvocationRequest{Method: "get_identity"}
	start := time.Now()
	env := p.Invoke(t.Context(), req)

	if !env.OK {
		t.Fatalf("expected the retried call to eventually succeed, got %+v", env)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly 2 attempts (initial 429 then a retry), got %d", calls.Load())
	}
	if elapsed := time.Since(start); elapsed >= time.Second {
		t.Fatalf("expected the server-supplied 0s delay to replace the 1s default backoff, took %v", elapsed)
	}
}

func TestTransportFailureOnFinalRetryOverridesAnEarlierParsedEnvelope(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			// A retriable but non-qualifying 429 on the first attempt.
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"slow down"}`))
			return
		}
		// The final attempt fails at the transport level, which must
		// win over the first attempt's stale parsed envelope.
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	client := srv.Client()
	client.Transport = rewriteToHTTP{}
	upstreamClient := upstream.New(host, "12345:abc", client)
	logger := monitoring.New(monitoring.LoggerConfig{Level: "error", Format: "json", Output: "stderr"})
	p := NewPipeline(upstreamClient, monitoring.NewMetrics(), logger, 30, 1, time.Second)

	env := p.Invoke(t.Context(), model.InvocationRequest{Method: "get_identity"})
	if env.OK {
		t.Fatalf("expected the final transport failure to win, got %+v", env)
	}
	if env.ErrorCode != nil {
		t.Fatalf("expected a transport failure to carry no error code (not the stale 429), got %v", env.ErrorCode)
	}
	if p.Breaker.Phase().String() != "closed" {
		t.Fatalf("expected a single qualifying transport failure not to open the breaker by itself, got %s", p.Breaker.Phase())
	}
}

func TestTransportFailureClassifiesAsNetworkAndDoesNotCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hijack and close the connection so the client sees a transport
		// error rather than a parsed reply.
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	client := srv.Client()
	client.Transport = rewriteToHTTP{}
	upstreamClient := upstream.New(host, "12345:abc", client)
	logger := monitoring.New(monitoring.LoggerConfig{Level: "error", Format: "json", Output: "stderr"})
	p := NewPipeline(upstreamClient, monitoring.NewMetrics(), logger, 30, 0, time.Second)

	env := p.Invoke(t.Context(), model.InvocationRequest{Method: "get_chat", Params: map[string]any{"chat_id": "1"}})
	if env.OK {
		t.Fatal("expected a transport failure")
	}
	if _, hit := p.Cache.Lookup("get_chat", map[string]any{"chat_id": "1"}); hit {
		t.Fatal("expected a transport failure to never populate the cache")
	}
}

func TestCacheHitNeverConsumesGlobalBudget(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true,"result":{"id":7}}`))
	}, 1, 0)
	defer closeSrv()

	req := model.InvocationRequest{Method: "get_chat", Params: map[string]any{"chat_id": "7"}}
	if env := p.Invoke(t.Context(), req); !env.OK {
		t.Fatalf("expected the priming call to succeed, got %+v", env)
	}

	for i := 0; i < 5; i++ {
		if env := p.Invoke(t.Context(), req); !env.OK {
			t.Fatalf("expected cache hit #%d to succeed without touching the 1/min budget, got %+v", i, env)
		}
	}
}

func TestValidationFailureNeverReachesTheNetwork(t *testing.T) {
	var calls atomic.Int32
	p, closeSrv := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}, 30, 0)
	defer closeSrv()

	env := p.Invoke(t.Context(), model.InvocationRequest{Method: "send_text", Params: map[string]any{"chat_id": "1"}})
	if env.OK {
		t.Fatal("expected validation to fail for a missing required field")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected validation failure to never reach the network, got %d calls", calls.Load())
	}
}
