package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iterworks/juvo-backend/pkg/logging"
)

const webhookTimeout = 15 * time.Second

// WebhookSender relays emails to an external automation webhook (the
// institution's notification workflow) instead of a mail provider. The
// receiver owns the actual delivery.
type WebhookSender struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWebhookSender creates a webhook relay sender.
func NewWebhookSender(url string, httpClient *http.Client, logger *logging.Logger) *WebhookSender {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: webhookTimeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookSender{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}
}

type webhookPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts the message to the configured webhook. Transport failures are
// returned to the caller; a non-2xx response from the workflow is logged as a
// warning but not treated as a delivery failure, since the receiving side
// acknowledges asynchronously.
func (s *WebhookSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.httpClient == nil {
		return fmt.Errorf("notify: webhook sender not configured")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	body, err := json.Marshal(webhookPayload{To: msg.To, Subject: msg.Subject, HTML: html})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: webhook send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Warn("webhook returned non-OK status", "status", resp.StatusCode, "body", string(respBody), "to", msg.To)
		return nil
	}

	s.logger.Info("email relayed to webhook", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*WebhookSender)(nil)
