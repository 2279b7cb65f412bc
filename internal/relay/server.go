package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// DefaultPort is the relay's listen port when none is configured.
const DefaultPort = 8787

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error messages returned to callers.
const (
	msgRateLimited   = "Rate limit exceeded. Try again later."
	msgMissingPrompt = "Missing prompt"
	msgInvalidPrompt = "Invalid prompt"
	msgLongPrompt    = "Prompt too long (max 2000 chars)"
	msgMissingText   = "Missing text"
	msgInvalidText   = "Invalid text"
	msgLongText      = "Text too long (max 1000 chars)"
	msgInvalidVoice  = "Invalid voice parameter"
	msgServerError   = "Server error"
)

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithRateLimiter replaces the default per-caller limiter.
func WithRateLimiter(l *RateLimiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithCORSOrigins restricts cross-origin access. Empty allows any origin.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

// WithMetrics replaces the metrics collectors.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// Server proxies coach completions and speech to the model provider.
type Server struct {
	upstream Upstream
	limiter  *RateLimiter
	metrics  *Metrics
	origins  []string
	log      *logger.Logger
	handler  http.Handler
}

// NewServer creates a relay over upstream. A nil upstream answers every
// model call with a server error.
func NewServer(upstream Upstream, log *logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		upstream: upstream,
		limiter:  NewRateLimiter(DefaultRateLimit, DefaultRateWindow),
		metrics:  NewMetrics(),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	mux.HandleFunc("POST "+PathAI, s.handleAI)
	mux.HandleFunc("POST "+PathTTS, s.handleTTS)
	mux.Handle("GET "+PathMetrics, s.metrics.Handler())

	s.handler = withRequestID(withCORS(s.origins, s.withMetrics(mux)))
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("DevTimer relay on http://localhost%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay: shutdown: %w", err)
	}
	s.log.Info("relay stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}

	body := decodeBody(w, r)
	prompt, ok := body["prompt"]
	if !ok || isFalsy(prompt) {
		writeError(w, http.StatusBadRequest, msgMissingPrompt)
		return
	}
	promptText, ok := prompt.(string)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidPrompt)
		return
	}
	if utf8.RuneCountInString(promptText) > MaxPromptLength {
		writeError(w, http.StatusBadRequest, msgLongPrompt)
		return
	}

	model := domain.DefaultModel
	if m, ok := body["model"].(string); ok && m != "" {
		model = m
	}

	if s.upstream == nil {
		s.log.Error("ai: no upstream configured")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	text, err := s.upstream.Complete(r.Context(), model, promptText)
	if err != nil {
		s.upstreamFailure(w, PathAI, "OpenAI", err)
		return
	}
	writeJSON(w, http.StatusOK, AIResponse{Text: text})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}

	body := decodeBody(w, r)
	text, ok := body["text"]
	if !ok || isFalsy(text) {
		writeError(w, http.StatusBadRequest, msgMissingText)
		return
	}
	input, ok := text.(string)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidText)
		return
	}
	if utf8.RuneCountInString(input) > MaxTextLength {
		writeError(w, http.StatusBadRequest, msgLongText)
		return
	}

	voice := domain.DefaultRemoteVoice
	if raw, present := body["voice"]; present {
		v, isString := raw.(string)
		if !isString || !domain.IsRemoteVoice(v) {
			writeError(w, http.StatusBadRequest, msgInvalidVoice)
			return
		}
		voice = v
	}

	if s.upstream == nil {
		s.log.Error("tts: no upstream configured")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	audio, err := s.upstream.Speech(r.Context(), input, voice)
	if err != nil {
		s.upstreamFailure(w, PathTTS, "TTS", err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		s.log.Warn("tts: streaming audio: %v", err)
	}
}

// allow applies the per-caller rate limit and writes 429 when exceeded.
func (s *Server) allow(w http.ResponseWriter, r *http.Request) bool {
	ip := clientIP(r)
	if s.limiter.Allow(ip) {
		return true
	}
	s.metrics.rateLimited.Inc()
	s.log.Debug("rate limited %s on %s", ip, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, msgRateLimited)
	return false
}

// upstreamFailure passes provider statuses through and hides everything
// else behind a generic 500.
func (s *Server) upstreamFailure(w http.ResponseWriter, endpoint, label string, err error) {
	s.metrics.upstreamErr.WithLabelValues(endpoint).Inc()

	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.Status >= 400 {
		s.log.Error("%s error: %d %s", label, upErr.Status, upErr.Message)
		msg := upErr.Message
		if msg == "" {
			msg = fmt.Sprintf("%s %d", label, upErr.Status)
		}
		writeError(w, upErr.Status, msg)
		return
	}

	s.log.Error("%s endpoint error: %v", endpoint, err)
	writeError(w, http.StatusInternalServerError, msgServerError)
}

// decodeBody reads a JSON object. Anything unreadable is an empty object,
// so validation reports the missing field.
func decodeBody(w http.ResponseWriter, r *http.Request) map[string]any {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}

// isFalsy reports JSON values that count as absent: null, "", 0 and false.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case bool:
		return !x
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
