package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/relay"
)

// recordingRelay is a fake relay /api/ai endpoint.
type recordingRelay struct {
	mu       sync.Mutex
	status   int
	text     string
	requests []relay.AIRequest
}

func (r *recordingRelay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body relay.AIRequest
	_ = json.NewDecoder(req.Body).Decode(&body)

	r.mu.Lock()
	r.requests = append(r.requests, body)
	status, text := r.status, r.text
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(relay.ErrorResponse{Error: "Server error"})
		return
	}
	json.NewEncoder(w).Encode(relay.AIResponse{Text: text})
}

func (r *recordingRelay) sent() []relay.AIRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relay.AIRequest(nil), r.requests...)
}

func newRemoteCoach(t *testing.T, fake *recordingRelay) *Coach {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	log := logger.New(logger.LevelOff, nil)
	return New(relay.NewClient(srv.URL, log), log)
}

func focusRequest(mins int) domain.FeedbackRequest {
	return domain.FeedbackRequest{
		Context: domain.FeedbackContext{
			Phase:             domain.PhaseFocus,
			FocusMinutes:      mins,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
			CompletedFocus:    1,
		},
		Default: "default message",
		Coach:   domain.DefaultCoachPreferences(),
	}
}

func TestRemoteFeedback(t *testing.T) {
	fake := &recordingRelay{text: "  Walk for two minutes.  "}
	c := newRemoteCoach(t, fake)

	got, err := c.Feedback(context.Background(), focusRequest(25))
	require.NoError(t, err)
	assert.Equal(t, "Walk for two minutes.", got)

	require.Len(t, fake.sent(), 1)
	sent := fake.sent()[0]
	assert.Equal(t, domain.DefaultModel, sent.Model)
	assert.True(t, strings.HasPrefix(sent.Prompt, "You are a concise, encouraging productivity coach.\nContext: {"))
	assert.Contains(t, sent.Prompt, `"phase":"focus"`)
	assert.Contains(t, sent.Prompt, `"focusMins":25`)
	assert.NotContains(t, sent.Prompt, "User request:")
}

func TestRemoteFailureReturnsDefault(t *testing.T) {
	fake := &recordingRelay{status: http.StatusInternalServerError}
	c := newRemoteCoach(t, fake)

	got, err := c.Feedback(context.Background(), focusRequest(25))
	require.NoError(t, err)
	assert.Equal(t, "default message", got)
}

func TestRemoteEmptyTextReturnsDefault(t *testing.T) {
	fake := &recordingRelay{text: ""}
	c := newRemoteCoach(t, fake)

	got, _ := c.Feedback(context.Background(), focusRequest(25))
	assert.Equal(t, "default message", got)
}

func TestUnreachableRelayReturnsDefault(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := New(relay.NewClient("http://127.0.0.1:1", log), log)

	got, _ := c.Feedback(context.Background(), focusRequest(25))
	assert.Equal(t, "default message", got)
}

func TestDemoLineForOneMinuteFocus(t *testing.T) {
	fake := &recordingRelay{text: "should not be used"}
	c := newRemoteCoach(t, fake)

	got, _ := c.Feedback(context.Background(), focusRequest(1))
	assert.Equal(t, "Great 1-min test! Take a quick stretch. Roll your shoulders, look away from the screen. When you're back, you're ready for a real focus session.", got)
	assert.Empty(t, fake.sent())

	// A question disables the demo line.
	req := focusRequest(1)
	req.Question = "any tip?"
	got, _ = c.Feedback(context.Background(), req)
	assert.Equal(t, "should not be used", got)
}

func TestLocalGeneration(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	c := New(nil, log, WithPicker(func(n int) int { return n - 1 }))

	req := focusRequest(30)
	req.Coach.LocalGeneration = true
	got, _ := c.Feedback(context.Background(), req)
	assert.Equal(t, "Great work! You finished a 30-minute focus block. Take a 5-minute stretch and hydrate. Prep 1 small next step for a smooth restart.", got)

	req.Question = "help"
	got, _ = c.Feedback(context.Background(), req)
	assert.Equal(t, "Stand up, breathe 3 times, then commit to 10 solid minutes.", got)

	brk := domain.FeedbackRequest{
		Context: domain.FeedbackContext{Phase: domain.PhaseShortBreak, FocusMinutes: 25},
		Default: "break default",
		Coach:   domain.CoachPreferences{LocalGeneration: true},
	}
	got, _ = c.Feedback(context.Background(), brk)
	assert.Equal(t, "break default", got)

	brk.Default = ""
	got, _ = c.Feedback(context.Background(), brk)
	assert.Equal(t, "Keep your momentum: short stretch, then ease back into your next focus sprint.", got)
}

func TestFocusTipAndSummary(t *testing.T) {
	fake := &recordingRelay{status: http.StatusBadGateway}
	c := newRemoteCoach(t, fake)
	cfg := domain.DefaultTimerConfig()
	state := domain.TimerState{Phase: domain.PhaseShortBreak, CompletedFocus: 3}
	prefs := domain.CoachPreferences{Model: "gpt-4o"}

	tip := c.FocusTip(context.Background(), cfg, state, prefs)
	assert.Equal(t, "Try the 3-2-1 launch: 3 deep breaths, 2 distractions removed, 1 clear goal.", tip)

	summary := c.Summary(context.Background(), cfg, state, prefs)
	assert.Equal(t, "You've completed 3 focus cycle(s). Keep the cadence; a short stretch and hydration before the next block will keep your energy steady.", summary)

	require.Len(t, fake.sent(), 2)
	assert.Equal(t, "gpt-4o", fake.sent()[0].Model)
	assert.True(t, strings.HasSuffix(fake.sent()[0].Prompt, "\nUser request: Give me one concrete tip to stay focused for the next block."))
	assert.NotContains(t, fake.sent()[0].Prompt, "longBreakMins")
	assert.Contains(t, fake.sent()[1].Prompt, `"phase":"short"`)
}

func TestLongPromptIsTruncated(t *testing.T) {
	fake := &recordingRelay{text: "ok"}
	c := newRemoteCoach(t, fake)

	req := focusRequest(25)
	req.Question = strings.Repeat("é", 3000)
	_, _ = c.Feedback(context.Background(), req)

	require.Len(t, fake.sent(), 1)
	assert.Equal(t, 2000, utf8.RuneCountInString(fake.sent()[0].Prompt))
}
