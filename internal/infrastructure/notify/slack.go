package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"SocialPulse/internal/ports"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// Slack posts run digests to a channel via the Web API.
type Slack struct {
	botToken string
	channel  string
	client   *http.Client
	apiURL   string
}

var _ ports.Notifier = (*Slack)(nil)

// NewSlack registers bot token and channel.
func NewSlack(botToken, channel string) *Slack {
	return &Slack{
		botToken: botToken,
		channel:  channel,
		client:   &http.Client{Timeout: 5 * time.Second},
		apiURL:   slackPostMessageURL,
	}
}

// PublishDigest posts a text message to the configured channel.
func (s *Slack) PublishDigest(ctx context.Context, digest string) error {
	if s.botToken == "" || s.channel == "" {
		return fmt.Errorf("slack notifier misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"channel": s.channel,
		"text":    digest,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack error: %s", resp.Status)
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack error: %s", result.Error)
	}

	return nil
}
