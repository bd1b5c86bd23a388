// server.go is the inbound tool-protocol HTTP transport: it decodes a
// client's call into a model.InvocationRequest, drives it through the
// Pipeline, and serializes the resulting envelope back out. Two call
// shapes are supported side by side, per spec.md §6/§9: "flat" (one
// route per method) and "meta" (find/call indirection for clients that
// enumerate the surface dynamically), plus a long-lived streamable
// connection for clients that want to pipeline several calls without
// a new TCP handshake per invocation.
//
// Handlers are split one-per-concern; the streamable transport is
// built on coder/websocket, since spec.md §1 names "HTTP-with-optional-
// auth framing for a streamable tool protocol" as an in-scope
// transport.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/tidwall/sjson"

	"github.com/compresr/bot-gateway/internal/model"
	"github.com/compresr/bot-gateway/internal/monitoring"
)

// Server wires the Pipeline to HTTP. It holds no request state of its
// own; every method is safe for concurrent use because Pipeline is.
type Server struct {
	pipeline  *Pipeline
	logger    *monitoring.Logger
	ipLimiter *ipLimiter
}

// NewServer builds a Server with its own per-IP throttle, independent
// of whatever throttle a sibling webhook server runs.
func NewServer(p *Pipeline, logger *monitoring.Logger, requestsPerSecond float64, burst int) *Server {
	return &Server{
		pipeline:  p,
		logger:    logger,
		ipLimiter: newIPLimiter(requestsPerSecond, burst),
	}
}

// Handler builds the full mux with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools/call", s.handleCall)
	mux.HandleFunc("/tools/find", s.handleFind)
	mux.HandleFunc("/tools/", s.handleFlatInvoke)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)

	return chain(mux, panicRecovery2(s.logger), securityHeaders, requestID,
		func(h http.Handler) http.Handler { return perIPRateLimit(s.ipLimiter, h) })
}

func panicRecovery2(logger *monitoring.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return panicRecovery(logger, next) }
}

// callRequest is the meta shape's call() envelope: a method name plus
// its argument object, mirroring the flat shape's method-in-URL /
// params-in-body split but bundled into one JSON body.
type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// findRequest is the meta shape's find() query.
type findRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req findRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	results := Find(req.Query, req.Category, req.Limit)
	writeJSON(w, http.StatusOK, map[string]any{"methods": results})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	env := s.pipeline.Invoke(r.Context(), model.InvocationRequest{Method: req.Name, Params: req.Arguments})
	writeEnvelope(w, env)
}

// handleFlatInvoke serves one-route-per-method calls at
// POST /tools/{method}, params in the JSON request body.
func (s *Server) handleFlatInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	method := r.URL.Path[len("/tools/"):]
	if method == "" || method == "call" || method == "find" {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}

	var params map[string]any
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	env := s.pipeline.Invoke(r.Context(), model.InvocationRequest{Method: method, Params: params})
	writeEnvelope(w, env)
}

// streamFrame is one message on the /stream connection: a method
// invocation tagged with a caller-chosen id so replies can be matched
// to requests out of order.
type streamFrame struct {
	ID     string         `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// handleStream upgrades to a websocket connection and services any
// number of invocations over it until the client disconnects, per
// spec.md §1's "HTTP-with-optional-auth framing for a streamable tool
// protocol". The handler performs no authentication of its own, and
// the pipeline itself has no notion of client identity.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	for {
		readCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}

		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.writeStreamError(r.Context(), conn, "", "invalid JSON frame")
			continue
		}

		env := s.pipeline.Invoke(r.Context(), model.InvocationRequest{Method: frame.Method, Params: frame.Params})
		s.writeStreamEnvelope(r.Context(), conn, frame.ID, env)
	}
}

func (s *Server) writeStreamEnvelope(ctx context.Context, conn *websocket.Conn, id string, env *model.Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		return
	}
	tagged, err := sjson.SetBytes(body, "id", id)
	if err != nil {
		tagged = body
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = conn.Write(writeCtx, websocket.MessageText, tagged)
}

func (s *Server) writeStreamError(ctx context.Context, conn *websocket.Conn, id, description string) {
	s.writeStreamEnvelope(ctx, conn, id, model.Failure(description, nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Status())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.pipeline.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"live": s.pipeline.Live()})
}

func writeEnvelope(w http.ResponseWriter, env *model.Envelope) {
	status := http.StatusOK
	if !env.OK {
		status = statusForEnvelope(env)
	}
	writeJSON(w, status, env)
}

// statusForEnvelope maps a failed envelope's error_code to the HTTP
// status the transport layer reports; the envelope itself, carried in
// the body, is the source of truth for clients that need the code.
func statusForEnvelope(env *model.Envelope) int {
	if env.ErrorCode == nil {
		return http.StatusBadGateway
	}
	switch *env.ErrorCode {
	case 400:
		return http.StatusBadRequest
	case 429:
		return http.StatusTooManyRequests
	case 503:
		return http.StatusServiceUnavailable
	default:
		if *env.ErrorCode >= 500 {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, model.Failure(description, model.IntPtr(status)))
}
