// Package notify delivers run results to an outbound webhook.
package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
)

// SignatureHeader carries the HMAC over the request body when a secret is
// configured.
const SignatureHeader = "X-HSCL-Signature"

// Webhook posts JSON payloads to a configured URL. A connection-level failure
// is reported as status 0 rather than an error so callers can surface it as a
// terminal event without aborting.
type Webhook struct {
	url    string
	secret string
	client *httpclient.Client
}

// NewWebhook creates a webhook notifier. An empty URL yields a disabled
// notifier whose Notify reports ok=false.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: httpclient.New(httpclient.Config{Timeout: 20 * time.Second}),
	}
}

// SetClient overrides the HTTP client. Used in tests.
func (w *Webhook) SetClient(c *httpclient.Client) { w.client = c }

// Configured reports whether a destination URL is set.
func (w *Webhook) Configured() bool { return w.url != "" }

// Notify posts the payload. ok is false when no URL is configured (the call
// was skipped). status 0 with a non-empty text denotes a connection-level
// failure.
func (w *Webhook) Notify(ctx context.Context, payload any) (status int, text string, ok bool) {
	if !w.Configured() {
		return 0, "", false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordWebhook("n8n", false)
		return 0, fmt.Sprintf("marshal payload: %v", err), true
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if w.secret != "" {
		headers[SignatureHeader] = sign(body, w.secret)
	}

	resp, err := w.client.Do(ctx, "POST", w.url, nil, headers, body)
	if err != nil {
		metrics.RecordWebhook("n8n", false)
		return 0, err.Error(), true
	}

	metrics.RecordWebhook("n8n", resp.OK())
	return resp.StatusCode, string(resp.Body), true
}

// sign computes "sha256=<hex hmac>" over the body.
func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
