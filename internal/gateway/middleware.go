// middleware.go carries the ambient HTTP concerns that wrap every
// handler: panic recovery, per-IP admission throttling, security
// headers, and request-id propagation for log correlation.
//
// The panicRecovery/security-header/clientIP shape follows the usual
// net/http middleware layering; the per-IP limiter itself is built on
// golang.org/x/time/rate's token bucket rather than a hand-rolled
// bucket map.
package gateway

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/compresr/bot-gateway/internal/monitoring"
)

// ipLimiter buckets inbound HTTP requests by client IP, independent of
// the pipeline's own per-destination and global limiters: this one
// protects the server from a single noisy client, not the upstream
// platform from aggregate load.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(requestsPerSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// perIPRateLimit refuses a request outright when its source IP has
// exhausted its token bucket, before any pipeline resource is touched.
func perIPRateLimit(l *ipLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.allow(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP trusts X-Forwarded-For only when the direct peer is
// localhost (i.e. a reverse proxy on the same host); otherwise it uses
// RemoteAddr, so a client can never forge its way into the header.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if host == "127.0.0.1" || host == "::1" || host == "localhost" {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	return host
}

// panicRecovery converts a panic in any downstream handler into a 500
// instead of tearing down the whole server, logging the recovered
// value for diagnosis.
func panicRecovery(logger *monitoring.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("recovered from panic")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"ok":false,"description":"internal server error","error_code":500}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders attaches the small set of defensive headers that
// apply uniformly regardless of route.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// requestID attaches a fresh correlation id to the request context (or
// propagates an inbound one) and echoes it back as a response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := monitoring.WithRequestIDContext(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// chain composes middleware in the order listed, outermost first.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
