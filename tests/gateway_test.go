// Package tests holds black-box end-to-end scenarios driven entirely
// through the gateway's HTTP surface, kept as its own integration
// package: every request here goes over net/http against a real
// httptest.Server, never by calling package-internal functions
// directly.
package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/bot-gateway/internal/gateway"
	"github.com/compresr/bot-gateway/internal/monitoring"
	"github.com/compresr/bot-gateway/internal/upstream"
)

// rewriteToHTTP forces every outbound request back to plain HTTP so the
// gateway's upstream client (which always builds an https:// URL) can
// be pointed at a local httptest.Server.
type rewriteToHTTP struct{}

func (rewriteToHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	return http.DefaultTransport.RoundTrip(req)
}

// testGateway bundles a running tool-surface test server with the
// upstream stub it talks to, so each scenario can script the upstream's
// replies independently.
type testGateway struct {
	Tool     *httptest.Server
	upstream *httptest.Server
}

func newTestGateway(t *testing.T, upstreamHandler http.HandlerFunc) *testGateway {
	t.Helper()

	upstreamSrv := httptest.NewServer(upstreamHandler)
	host := strings.TrimPrefix(upstreamSrv.URL, "http://")

	client := upstreamSrv.Client()
	client.Transport = rewriteToHTTP{}

	upstreamClient := upstream.New(host, "12345:abc", client)
	logger := monitoring.New(monitoring.LoggerConfig{Level: "error", Format: "json", Output: "stderr"})
	metrics := monitoring.NewMetrics()
	pipeline := gateway.NewPipeline(upstreamClient, metrics, logger, 30, 1, time.Second)
	srv := gateway.NewServer(pipeline, logger, 1000, 1000)

	toolSrv := httptest.NewServer(srv.Handler())

	return &testGateway{Tool: toolSrv, upstream: upstreamSrv}
}

func (g *testGateway) close() {
	g.Tool.Close()
	g.upstream.Close()
}

func (g *testGateway) callFlat(t *testing.T, method string, params map[string]any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(params)
	require.NoError(t, err)

	resp, err := http.Post(g.Tool.URL+"/tools/"+method, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestCacheHitSkipsNetworkOverHTTP(t *testing.T) {
	var calls atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true,"result":{"id":99}}`))
	})
	defer g.close()

	status, first := g.callFlat(t, "get_chat", map[string]any{"chat_id": "99"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, first["ok"])
	assert.EqualValues(t, 1, calls.Load())

	status, second := g.callFlat(t, "get_chat", map[string]any{"chat_id": "99"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, second["ok"])
	assert.EqualValues(t, 1, calls.Load(), "a cache hit must not reach the upstream")
}

func TestNonRetriableClientErrorReturns400OverHTTP(t *testing.T) {
	var calls atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"bad request"}`))
	})
	defer g.close()

	status, body := g.callFlat(t, "send_text", map[string]any{"chat_id": "1", "text": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["ok"])
	assert.EqualValues(t, 1, calls.Load())
}

func TestBreakerOpensAfterFiveFailuresOverHTTP(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":500,"description":"internal error"}`))
	})
	defer g.close()

	for i := 0; i < 5; i++ {
		status, _ := g.callFlat(t, "get_identity", nil)
		assert.Equal(t, http.StatusBadGateway, status)
	}

	status, body := g.callFlat(t, "get_identity", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body["description"], "circuit breaker open")
}

func TestPerDestinationLimitOverHTTP(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})
	defer g.close()

	status, _ := g.callFlat(t, "send_text", map[string]any{"chat_id": "7001", "text": "a"})
	require.Equal(t, http.StatusOK, status)

	status, body := g.callFlat(t, "send_text", map[string]any{"chat_id": "7001", "text": "b"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["ok"])
}

func TestMetaFindThenCallOverHTTP(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"id":1}}`))
	})
	defer g.close()

	findBody, _ := json.Marshal(map[string]any{"query": "send_text", "limit": 5})
	resp, err := http.Post(g.Tool.URL+"/tools/find", "application/json", bytes.NewReader(findBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var findResult struct {
		Methods []struct {
			Name string `json:"name"`
		} `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&findResult))
	require.NotEmpty(t, findResult.Methods)
	assert.Equal(t, "send_text", findResult.Methods[0].Name)

	callBody, _ := json.Marshal(map[string]any{
		"name":      "send_text",
		"arguments": map[string]any{"chat_id": "1", "text": "hello"},
	})
	resp2, err := http.Post(g.Tool.URL+"/tools/call", "application/json", bytes.NewReader(callBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestHealthEndpointsOverHTTP(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})
	defer g.close()

	for _, path := range []string{"/health", "/ready", "/live"} {
		resp, err := http.Get(g.Tool.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "expected %s to report healthy before any failures", path)
	}
}
