// Package relay implements the HTTP relay that keeps the model provider's
// API key off the client, and the client used to call it.
package relay

// Request and response bodies shared by the server and the client.

// AIRequest is the body of POST /api/ai.
type AIRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

// AIResponse is the success body of POST /api/ai.
type AIResponse struct {
	Text string `json:"text"`
}

// TTSRequest is the body of POST /api/tts.
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// Limits enforced by the relay.
const (
	MaxPromptLength = 2000
	MaxTextLength   = 1000
)

// Endpoint paths.
const (
	PathHealth  = "/api/health"
	PathAI      = "/api/ai"
	PathTTS     = "/api/tts"
	PathMetrics = "/metrics"
)
