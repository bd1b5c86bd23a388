// Package upstream is the single HTTPS client that talks to the bot
// platform: POST https://{host}/bot{token}/{method} with either a JSON
// or multipart body, decoding the reply into the shared envelope shape.
//
// Grounded on external/llm.go's CallLLM: context-scoped timeout,
// LimitReader-bounded body read, and a truncated error body in
// diagnostics, adapted from a multi-provider LLM caller down to the
// bot platform's one wire format. The token is interpolated directly
// into the URL path exactly as the platform requires and is never
// written to a log field.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/compresr/bot-gateway/internal/model"
	"github.com/compresr/bot-gateway/internal/retry"
)

// maxResponseSize bounds how much of a reply body is read into memory,
// guarding against a misbehaving or malicious upstream.
const maxResponseSize = 20 * 1024 * 1024

const maxErrorBodyLen = 500

// Client issues invocations against one bot platform host with one
// bot token. It is safe for concurrent use; http.Client already is.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
}

// New builds a Client. httpClient may be nil, in which case a default
// client with no built-in timeout is used (the per-call timeout comes
// from the context passed to Do).
func New(host, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{host: host, token: token, httpClient: httpClient}
}

// Do issues one HTTP attempt for method with the given body/contentType
// and a per-call timeout, returning a retry.Outcome the retry engine
// can classify plus the decoded envelope when one was successfully
// parsed.
func (c *Client) Do(ctx context.Context, method string, body []byte, contentType string, timeout time.Duration) (*model.Envelope, retry.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("https://%s/bot%s/%s", c.host, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Outcome{Transport: true}, fmt.Errorf("failed to build request for method %s: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Outcome{Timeout: true}, err
		}
		return nil, retry.Outcome{Transport: true}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, retry.Outcome{Transport: true}, fmt.Errorf("failed to read reply body: %w", err)
	}

	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		body := string(raw)
		if len(body) > maxErrorBodyLen {
			body = body[:maxErrorBodyLen] + "... (truncated)"
		}
		return nil, retry.Outcome{Transport: true}, fmt.Errorf("failed to parse reply for method %s: %w (body: %s)", method, err, body)
	}

	outcome := retry.Outcome{OK: env.OK, ErrorCode: env.ErrorCode}
	if env.Parameters != nil {
		outcome.RetryAfterSeconds = env.Parameters.RetryAfterSeconds
	}
	return &env, outcome, nil
}
