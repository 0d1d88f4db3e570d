package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// APIMailer delivers through an HTTP email provider: JSON POST with a bearer
// key. Lead and template ids ride in custom headers so provider event
// webhooks can echo them back to us.
type APIMailer struct {
	url    string
	apiKey string
	from   string
	client *http.Client
	log    *zap.SugaredLogger
}

func NewAPIMailer(url, apiKey, from string, log *zap.SugaredLogger) *APIMailer {
	return &APIMailer{
		url:    url,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: sendTimeout},
		log:    log,
	}
}

type apiSendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type apiSendResponse struct {
	ID string `json:"id"`
}

func (m *APIMailer) Send(ctx context.Context, msg Message) (*Receipt, error) {
	payload, err := json.Marshal(apiSendRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mail api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mail api returned %d: %s", resp.StatusCode, detail)
	}

	var out apiSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode mail response: %w", err)
	}
	m.log.Debugw("email accepted by provider", "to", msg.To, "message_id", out.ID)
	return &Receipt{MessageID: out.ID}, nil
}

var _ Mailer = (*APIMailer)(nil)
