package relay

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Upstream is the model provider behind the relay.
type Upstream interface {
	// Complete returns a short completion for a single user prompt.
	Complete(ctx context.Context, model, prompt string) (string, error)
	// Speech returns MP3 audio of text spoken with voice. The caller
	// closes the reader.
	Speech(ctx context.Context, text, voice string) (io.ReadCloser, error)
}

// UpstreamError is a non-2xx answer from the provider. The relay answers
// with the same status.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// Upstream generation settings.
const (
	CompletionMaxTokens   = 150
	CompletionTemperature = 0.7
	SpeechModel           = "gpt-4o-mini-tts"
)

// Router sends completions for "gemini*" models to Gemini when configured
// and everything else to OpenAI.
type Router struct {
	OpenAI Upstream
	Gemini Upstream
}

// Complete picks the provider by model name.
func (r *Router) Complete(ctx context.Context, model, prompt string) (string, error) {
	if r.Gemini != nil && strings.HasPrefix(strings.ToLower(model), "gemini") {
		return r.Gemini.Complete(ctx, model, prompt)
	}
	if r.OpenAI == nil {
		return "", fmt.Errorf("relay: no provider configured for model %q", model)
	}
	return r.OpenAI.Complete(ctx, model, prompt)
}

// Speech always uses OpenAI.
func (r *Router) Speech(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	if r.OpenAI == nil {
		return nil, fmt.Errorf("relay: no speech provider configured")
	}
	return r.OpenAI.Speech(ctx, text, voice)
}
