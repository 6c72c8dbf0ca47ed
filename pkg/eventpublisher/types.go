// Package eventpublisher delivers storefront outbox events to downstream
// indexers as signed CloudEvents batches.
package eventpublisher

import (
	"net/http"
	"time"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "X-Storefront-Signature"
	// WebhookPath is appended to the configured endpoint.
	WebhookPath = "/webhooks/storefront"
	// DefaultSource is the CloudEvents source used when none is configured.
	DefaultSource = "storefront"

	batchContentType = "application/cloudevents-batch+json"
)

// Client publishes event batches to one downstream endpoint.
type Client struct {
	Endpoint   string
	Token      string
	Secret     string
	Source     string
	Timeout    time.Duration
	HTTPClient *http.Client
}
