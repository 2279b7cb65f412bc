package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/devtimer/internal/logger"
)

// StatusError is returned when the relay answers with a non-2xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay: status %d", e.Status)
	}
	return fmt.Sprintf("relay: status %d: %s", e.Status, e.Message)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// Client talks to a relay server.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a relay client. baseURL is the server root, e.g.
// "http://localhost:8787".
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the relay root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Generate asks the relay for a short completion of prompt.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := c.post(ctx, PathAI, AIRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", err
	}

	var result AIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("relay: unmarshal ai response: %w", err)
	}
	c.log.Debug("relay: ai reply (%d chars)", len(result.Text))
	return result.Text, nil
}

// Synthesize asks the relay for MP3 audio of text spoken with voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	audio, err := c.post(ctx, PathTTS, TTSRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("relay: empty audio response")
	}
	c.log.Debug("relay: tts audio %d bytes", len(audio))
	return audio, nil
}

// Health reports whether the relay answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathHealth, nil)
	if err != nil {
		return fmt.Errorf("relay: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay: request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("relay: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("relay: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("relay: POST %s (%d bytes)", path, len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("relay: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody ErrorResponse
		_ = json.Unmarshal(respBody, &errBody)
		return nil, &StatusError{Status: resp.StatusCode, Message: errBody.Error}
	}
	return respBody, nil
}
