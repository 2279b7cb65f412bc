package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Upstream = (*GeminiUpstream)(nil)

// GeminiUpstream answers completions with Google's Gemini API. It has no
// speech support.
type GeminiUpstream struct {
	client *genai.Client
}

// NewGeminiUpstream creates a Gemini client for apiKey.
func NewGeminiUpstream(ctx context.Context, apiKey string) (*GeminiUpstream, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiUpstream{client: cli}, nil
}

// Complete generates a short answer to prompt.
func (g *GeminiUpstream) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			MaxOutputTokens: CompletionMaxTokens,
			Temperature:     genai.Ptr[float32](CompletionTemperature),
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code != 0 {
			return "", &UpstreamError{Status: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// Speech is not offered by this provider.
func (g *GeminiUpstream) Speech(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	return nil, errors.New("gemini: speech not supported")
}
