package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookMailer POSTs each message as JSON to a mail relay.
type WebhookMailer struct {
	endpoint string
	client   *http.Client
}

func NewWebhookMailer(endpoint string, timeout time.Duration) *WebhookMailer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookMailer{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

func (m *WebhookMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.post(ctx, Message{Kind: KindPasswordReset, To: to, Link: link})
}

func (m *WebhookMailer) post(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("mail webhook failed with status %d", resp.StatusCode)
}
