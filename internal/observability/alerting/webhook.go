package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ChainGate/internal/gate"
)

// WebhookNotifier POSTs the full alert event as JSON to an arbitrary URL.
type WebhookNotifier struct {
	name       string
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier builds a webhook notifier. A nil client gets a short
// default timeout so a dead endpoint cannot block the consumer for long.
func NewWebhookNotifier(name, url string, httpClient *http.Client) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook url cannot be empty")
	}
	if name == "" {
		name = "webhook"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{name: name, url: url, httpClient: httpClient}, nil
}

// Name implements Notifier.
func (n *WebhookNotifier) Name() string { return n.name }

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(map[string]any{
		"decision_id":   event.DecisionID,
		"validation_id": event.ValidationID,
		"from":          event.From,
		"to":            event.To,
		"chain_id":      event.ChainID,
		"verdict":       event.Verdict,
		"allowed":       event.Allowed,
		"error_code":    event.ErrorCode,
		"message":       event.Message,
		"severity":      string(event.Severity),
		"occurred_at":   event.OccurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// SlackNotifier posts a compact text summary to a Slack incoming webhook.
type SlackNotifier struct {
	url        string
	httpClient *http.Client
}

// NewSlackNotifier builds a Slack notifier.
func NewSlackNotifier(url string, httpClient *http.Client) (*SlackNotifier, error) {
	if url == "" {
		return nil, errors.New("slack webhook url cannot be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackNotifier{url: url, httpClient: httpClient}, nil
}

// Name implements Notifier.
func (n *SlackNotifier) Name() string { return "slack" }

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	label := event.Verdict
	if event.ErrorCode != "" {
		label = event.ErrorCode
	}
	text := fmt.Sprintf("*[%s]* %s\ntx %s -> %s on %s\n%s",
		event.Severity, label, event.From, event.To,
		gate.ChainName(event.ChainID), event.Message)
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver slack notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}
