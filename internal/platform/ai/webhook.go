package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookClient posts to a chat webhook (an n8n-style automation endpoint)
// and reads the reply out of whichever field the workflow happened to name it.
type WebhookClient struct {
	url    string
	client *http.Client
}

func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookRequest struct {
	SessionID string `json:"sessionId"`
	ChatInput string `json:"chatInput"`
}

// replyFields is the order in which known response field names are tried.
var replyFields = []string{"output", "text", "reply"}

func (c *WebhookClient) Generate(ctx context.Context, sessionID, input string) (string, error) {
	body, err := json.Marshal(webhookRequest{SessionID: sessionID, ChatInput: input})
	if err != nil {
		return "", fmt.Errorf("marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	for _, field := range replyFields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	// No known field carried a reply; an empty answer is indistinguishable
	// from a broken workflow.
	return "", fmt.Errorf("%w: empty response", ErrUnavailable)
}
