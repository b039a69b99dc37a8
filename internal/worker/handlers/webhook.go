package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SendWebhook handles send-webhook jobs. Payload: {url, body?}. The body is
// re-serialized and POSTed as JSON; any non-2xx response is a failed attempt
// so delivery is retried with backoff.
func (s *Set) SendWebhook(ctx context.Context, payload map[string]any) error {
	url, ok := payload["url"].(string)
	if !ok || url == "" {
		return fmt.Errorf("send-webhook payload missing url")
	}

	body, err := json.Marshal(payload["body"])
	if err != nil {
		return fmt.Errorf("failed to encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook delivery failed: endpoint returned %d", resp.StatusCode)
	}

	return nil
}
