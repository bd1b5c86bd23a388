// gateway.go is the top-level wiring: it turns a loaded Config into a
// running Pipeline plus the two HTTP listeners (the tool-protocol
// server and the webhook receiver) that sit in front of it.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/compresr/bot-gateway/internal/config"
	"github.com/compresr/bot-gateway/internal/monitoring"
	"github.com/compresr/bot-gateway/internal/upstream"
)

const (
	perIPRequestsPerSecond = 5.0
	perIPBurst             = 10
	shutdownTimeout        = 10 * time.Second
)

// Gateway owns everything a running process needs: the pipeline, the
// two HTTP servers, and the metrics/logging collaborators they share.
type Gateway struct {
	Pipeline *Pipeline
	Metrics  *monitoring.Metrics
	Logger   *monitoring.Logger
	Webhook  *WebhookReceiver

	toolServer     *Server
	webhookHandler http.Handler
	cfg            *config.Config
}

// New wires a Gateway from a loaded, validated Config.
func New(cfg *config.Config, logger *monitoring.Logger) *Gateway {
	metrics := monitoring.NewMetrics()
	client := upstream.New(cfg.Bot.Host, cfg.Bot.Token, &http.Client{})
	pipeline := NewPipeline(client, metrics, logger, cfg.Limits.RateLimitPerMinute, cfg.Retry.MaxRetries, cfg.Retry.RequestTimeout)

	webhook := NewWebhookReceiver(cfg.Webhook, config.WebhookQueueCapacity, logger)
	toolServer := NewServer(pipeline, logger, perIPRequestsPerSecond, perIPBurst)

	return &Gateway{
		Pipeline:       pipeline,
		Metrics:        metrics,
		Logger:         logger,
		Webhook:        webhook,
		toolServer:     toolServer,
		webhookHandler: webhook.Handler(),
		cfg:            cfg,
	}
}

// ToolAndHealthHandler serves the tool-invocation surface plus the
// health/ready/live endpoints and /metrics, all on the health port per
// spec.md §6.
func (g *Gateway) ToolAndHealthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", g.toolServer.Handler())
	mux.Handle("/metrics", g.Metrics.Handler())
	return mux
}

// WebhookHandler serves the inbound webhook surface on its own port,
// isolated from the tool-protocol surface so a webhook flood can't
// starve outbound tool calls of server resources.
func (g *Gateway) WebhookHandler() http.Handler {
	return g.webhookHandler
}

// Run starts both listeners and blocks until ctx is cancelled or either
// server fails to start.
func (g *Gateway) Run(ctx context.Context) error {
	toolSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.cfg.Server.HealthPort),
		Handler: g.ToolAndHealthHandler(),
	}
	webhookSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.cfg.Server.WebhookPort),
		Handler: g.WebhookHandler(),
	}

	errCh := make(chan error, 2)
	go func() { errCh <- toolSrv.ListenAndServe() }()
	go func() { errCh <- webhookSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		toolSrv.Shutdown(shutdownCtx)
		webhookSrv.Shutdown(shutdownCtx)
		g.Pipeline.Cache.Close()
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return err
	}
}
