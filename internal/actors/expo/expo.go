package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultURL is the Expo push API endpoint.
const DefaultURL = "https://exp.host/--/api/v2/push/send"

// PushSender delivers push notifications through the Expo push service.
type PushSender struct {
	url    string
	client *http.Client
}

// PushSenderArgs are the mandatory arguments for the creation of a PushSender.
type PushSenderArgs struct {
	// URL is the push endpoint. Empty means DefaultURL.
	URL string
}

// PushSenderOptArgs are the optional arguments for building a PushSender.
type PushSenderOptArgs = func(*PushSender)

// WithHTTPClient overrides the HTTP client. Useful for testing.
func WithHTTPClient(client *http.Client) PushSenderOptArgs {
	return func(p *PushSender) {
		p.client = client
	}
}

// NewPushSender creates a new PushSender.
func NewPushSender(args PushSenderArgs, optArgs ...PushSenderOptArgs) (*PushSender, error) {
	p := &PushSender{
		url:    args.URL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	if p.url == "" {
		p.url = DefaultURL
	}
	for _, opt := range optArgs {
		opt(p)
	}
	return p, nil
}

// pushMessage is one entry in the Expo batch payload.
type pushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

// SendPush sends the same notification to every token in one batch request.
func (p *PushSender) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	batch := make([]pushMessage, len(tokens))
	for i, token := range tokens {
		batch[i] = pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Sound: "default",
			Data:  data,
		}
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push endpoint returned status %d: %s", resp.StatusCode, raw)
	}

	var decoded pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}

	// Error tickets are per-recipient problems (stale or revoked tokens).
	// They must not fail the tickets that were accepted, so they are only
	// logged. The batch as a whole failed only when no ticket went through.
	failed := 0
	for i, ticket := range decoded.Data {
		if ticket.Status != "error" {
			continue
		}
		failed++
		fields := log.Fields{"ticket": i, "message": ticket.Message}
		if i < len(tokens) {
			fields["token"] = tokens[i]
		}
		log.WithFields(fields).Warn("push ticket rejected")
	}
	if failed > 0 && failed == len(decoded.Data) {
		return errors.New("all push tickets rejected")
	}
	return nil
}
