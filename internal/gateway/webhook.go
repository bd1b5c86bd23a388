// webhook.go is the inbound webhook receiver: the bot platform POSTs
// updates here instead of the gateway polling for them. Updates are
// queued for whatever consumer drains them (out of scope for this
// pipeline per spec.md's non-goals on interpreting update payloads)
// and capped so a slow or absent consumer can't grow the queue
// without bound.
package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/compresr/bot-gateway/internal/config"
	"github.com/compresr/bot-gateway/internal/monitoring"
)

// WebhookReceiver accepts inbound updates over HTTP and holds them in a
// bounded in-memory queue. It never parses an update beyond peeking
// its id for logging: interpreting update payloads is explicitly out
// of the pipeline's scope.
type WebhookReceiver struct {
	secret   string
	capacity int
	logger   *monitoring.Logger

	mu    sync.Mutex
	queue [][]byte
}

// NewWebhookReceiver builds a receiver bounded at capacity entries,
// dropping the oldest queued update on overflow so a backlog never
// grows past the configured limit.
func NewWebhookReceiver(cfg config.WebhookConfig, capacity int, logger *monitoring.Logger) *WebhookReceiver {
	if capacity <= 0 {
		capacity = config.WebhookQueueCapacity
	}
	return &WebhookReceiver{secret: cfg.Secret, capacity: capacity, logger: logger}
}

// Handler serves the inbound webhook routes: POST / and POST /webhook
// accept updates, GET /health reports queue depth. Every other path
// gets a 404, including unregistered paths under "/" that
// http.ServeMux's catch-all pattern would otherwise dispatch here.
func (w *WebhookReceiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleRoot)
	mux.HandleFunc("/webhook", w.handleUpdate)
	mux.HandleFunc("/health", w.handleHealth)
	return mux
}

// handleRoot is bound to ServeMux's "/" catch-all pattern, which
// matches every path with no more specific registration. It accepts
// only the exact root path and 404s everything else.
func (wr *WebhookReceiver) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	wr.handleUpdate(w, r)
}

func (wr *WebhookReceiver) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if wr.secret != "" {
		if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != wr.secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	updateID := gjson.GetBytes(body, "update_id").String()
	wr.enqueue(body)
	wr.logger.Debug().Str("update_id", updateID).Msg("queued inbound webhook update")

	w.WriteHeader(http.StatusOK)
}

func (wr *WebhookReceiver) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "pending": wr.Pending()})
}

// enqueue appends update, dropping the oldest entry first if the queue
// is already at capacity.
func (wr *WebhookReceiver) enqueue(update []byte) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if len(wr.queue) >= wr.capacity {
		wr.queue = wr.queue[1:]
	}
	wr.queue = append(wr.queue, update)
}

// Drain removes and returns every queued update, in arrival order.
func (wr *WebhookReceiver) Drain() [][]byte {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	out := wr.queue
	wr.queue = nil
	return out
}

// Pending reports how many updates are currently queued.
func (wr *WebhookReceiver) Pending() int {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return len(wr.queue)
}
