package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// Compile-time interface check.
var _ Upstream = (*OpenAIUpstream)(nil)

// OpenAIUpstream calls the OpenAI chat and speech APIs.
type OpenAIUpstream struct {
	client *openai.Client
}

// NewOpenAIUpstream creates an OpenAI upstream. baseURL overrides the API
// root and is mainly for tests; empty keeps the default.
func NewOpenAIUpstream(apiKey, baseURL string) *OpenAIUpstream {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIUpstream{client: openai.NewClientWithConfig(cfg)}
}

// Complete sends prompt as a single user message.
func (o *OpenAIUpstream) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   CompletionMaxTokens,
		Temperature: CompletionTemperature,
	})
	if err != nil {
		return "", openAIError("OpenAI", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Speech synthesizes MP3 audio.
func (o *OpenAIUpstream) Speech(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, openAIError("TTS", err)
	}
	return resp.ReadCloser, nil
}

// openAIError turns provider failures that carry an HTTP status into
// *UpstreamError. Anything else is returned wrapped.
func openAIError(label string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("%s %d", label, apiErr.HTTPStatusCode)
		}
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Message: msg}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := fmt.Sprintf("%s %d", label, reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("openai: %w", err)
}
