package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/storage"
)

// fakeCoach returns a fixed answer. When gate is non-nil every call blocks
// until the gate is closed.
type fakeCoach struct {
	mu    sync.Mutex
	text  string
	err   error
	gate  chan struct{}
	calls []domain.FeedbackRequest
}

func (f *fakeCoach) Feedback(ctx context.Context, req domain.FeedbackRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return f.text, f.err
}

func (f *fakeCoach) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// mockAnnouncer collects announced messages.
type mockAnnouncer struct {
	mu       sync.Mutex
	messages []string
	prefs    []domain.VoicePreferences
}

func (m *mockAnnouncer) Announce(_ context.Context, msg string, prefs domain.VoicePreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	m.prefs = append(m.prefs, prefs)
	return nil
}

func (m *mockAnnouncer) announced() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

func testConfig() domain.TimerConfig {
	return domain.TimerConfig{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, CyclesUntilLong: 4}
}

func newTestTimer(coach domain.FeedbackSource, ann domain.Announcer) *Timer {
	log := logger.New(logger.LevelOff, nil)
	prefs := domain.Preferences{Voice: domain.DefaultVoicePreferences(), Coach: domain.DefaultCoachPreferences()}
	return New(testConfig(), prefs, coach, ann, log, WithRestartDelay(5*time.Millisecond))
}

func TestNextPhaseCycleLaw(t *testing.T) {
	for i := 1; i <= 8; i++ {
		want := domain.PhaseShortBreak
		if i%4 == 0 {
			want = domain.PhaseLongBreak
		}
		assert.Equal(t, want, NextPhase(domain.PhaseFocus, i, 4), "completed=%d", i)
	}
	assert.Equal(t, domain.PhaseFocus, NextPhase(domain.PhaseShortBreak, 3, 4))
	assert.Equal(t, domain.PhaseFocus, NextPhase(domain.PhaseLongBreak, 4, 4))
	assert.Equal(t, domain.PhaseLongBreak, NextPhase(domain.PhaseFocus, 1, 1))
}

func TestDefaultSuggestion(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t,
		"Great work! You finished a 25-minute focus block. Take a 5-minute stretch break to reset your mind.",
		DefaultSuggestion(domain.PhaseFocus, cfg))
	assert.Equal(t,
		"Break done! Get ready for another 25-minute deep-focus sprint",
		DefaultSuggestion(domain.PhaseShortBreak, cfg))
	assert.Equal(t,
		"Long break complete. Easing back into a 25-minute focus block will keep momentum.",
		DefaultSuggestion(domain.PhaseLongBreak, cfg))
}

func TestResetRestoresFullDuration(t *testing.T) {
	tm := newTestTimer(nil, nil)

	for _, p := range []domain.Phase{domain.PhaseFocus, domain.PhaseShortBreak, domain.PhaseLongBreak} {
		require.NoError(t, tm.SelectPhase(p))
		tm.Start()
		tm.tick()
		tm.tick()
		tm.Reset()

		s := tm.Snapshot()
		assert.False(t, s.Running)
		assert.Equal(t, testConfig().Seconds(p), s.RemainingSeconds, "phase %s", p)
	}
}

func TestTickOnlyWhileRunning(t *testing.T) {
	tm := newTestTimer(nil, nil)
	full := testConfig().Seconds(domain.PhaseFocus)

	tm.tick()
	assert.Equal(t, full, tm.Snapshot().RemainingSeconds)

	tm.Start()
	tm.tick()
	tm.tick()
	assert.Equal(t, full-2, tm.Snapshot().RemainingSeconds)
	assert.True(t, tm.Snapshot().Running)

	tm.Pause()
	tm.tick()
	assert.Equal(t, full-2, tm.Snapshot().RemainingSeconds)
}

func TestPauseIsIdempotent(t *testing.T) {
	tm := newTestTimer(nil, nil)
	tm.Start()
	tm.tick()

	tm.Pause()
	first := tm.Snapshot()
	tm.Pause()
	assert.Equal(t, first, tm.Snapshot())

	tm.Start()
	tm.Start()
	assert.True(t, tm.Snapshot().Running)
	assert.Equal(t, first.RemainingSeconds, tm.Snapshot().RemainingSeconds)
}

func TestEditRemaining(t *testing.T) {
	tm := newTestTimer(nil, nil)

	require.NoError(t, tm.EditRemaining(100000))
	assert.Equal(t, domain.MaxRemainingSeconds, tm.Snapshot().RemainingSeconds)

	require.NoError(t, tm.EditRemaining(-3))
	assert.Equal(t, 0, tm.Snapshot().RemainingSeconds)

	tm.Start()
	assert.ErrorIs(t, tm.EditRemaining(10), domain.ErrNotPaused)
}

func TestEditToZeroDoesNotComplete(t *testing.T) {
	coach := &fakeCoach{text: "hi"}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	require.NoError(t, tm.EditRemaining(0))
	tm.Wait()
	assert.Equal(t, 0, coach.callCount())
	assert.Empty(t, ann.announced())

	// Start from zero restarts the whole phase.
	tm.Start()
	assert.Equal(t, testConfig().Seconds(domain.PhaseFocus), tm.Snapshot().RemainingSeconds)
}

func TestFocusCompletionAnnouncesCoachText(t *testing.T) {
	coach := &fakeCoach{text: "Stretch and hydrate."}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	require.NoError(t, tm.EditRemaining(1))
	tm.Start()
	tm.tick()
	tm.Wait()

	assert.Equal(t, []string{"Stretch and hydrate."}, ann.announced())

	s := tm.Snapshot()
	assert.Equal(t, 1, s.CompletedFocus)
	assert.Equal(t, domain.PhaseShortBreak, s.Phase)
	assert.Equal(t, 300, s.RemainingSeconds)
	assert.True(t, s.Running, "next phase auto-starts")

	require.Equal(t, 1, coach.callCount())
	req := coach.calls[0]
	assert.Equal(t, domain.PhaseFocus, req.Context.Phase)
	assert.Equal(t, 1, req.Context.CompletedFocus)
	assert.Equal(t, "Session complete", req.Context.Note)
	assert.Equal(t, DefaultSuggestion(domain.PhaseFocus, testConfig()), req.Default)
}

func TestCoachFailureFallsBackToDefault(t *testing.T) {
	coach := &fakeCoach{err: errors.New("relay down")}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	tm.Skip()
	tm.Wait()

	assert.Equal(t, []string{DefaultSuggestion(domain.PhaseFocus, testConfig())}, ann.announced())
	assert.Equal(t, domain.PhaseShortBreak, tm.Snapshot().Phase)
}

func TestEmptyCoachTextFallsBackToDefault(t *testing.T) {
	coach := &fakeCoach{text: "   "}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	require.NoError(t, tm.SelectPhase(domain.PhaseLongBreak))
	tm.Skip()
	tm.Wait()

	assert.Equal(t, []string{DefaultSuggestion(domain.PhaseLongBreak, testConfig())}, ann.announced())
	s := tm.Snapshot()
	assert.Equal(t, domain.PhaseFocus, s.Phase)
	assert.Equal(t, 0, s.CompletedFocus, "breaks do not count")
}

func TestLongBreakEveryFourthFocus(t *testing.T) {
	tm := newTestTimer(&fakeCoach{}, &mockAnnouncer{})

	tm.Restore(domain.PhaseFocus, 1, 3)
	tm.Skip()
	tm.Wait()
	s := tm.Snapshot()
	assert.Equal(t, 4, s.CompletedFocus)
	assert.Equal(t, domain.PhaseLongBreak, s.Phase)
	assert.Equal(t, 900, s.RemainingSeconds)

	tm.Restore(domain.PhaseFocus, 1, 4)
	tm.Skip()
	tm.Wait()
	s = tm.Snapshot()
	assert.Equal(t, 5, s.CompletedFocus)
	assert.Equal(t, domain.PhaseShortBreak, s.Phase)
}

func TestSecondCompletionIgnoredWhilePipelineRuns(t *testing.T) {
	coach := &fakeCoach{text: "ok", gate: make(chan struct{})}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	tm.Skip()
	require.Eventually(t, func() bool { return coach.callCount() == 1 }, time.Second, time.Millisecond)
	tm.Skip()
	tm.Skip()

	close(coach.gate)
	tm.Wait()

	assert.Equal(t, 1, coach.callCount())
	assert.Len(t, ann.announced(), 1)
	assert.Equal(t, 1, tm.Snapshot().CompletedFocus)
}

func TestResetDiscardsInFlightFeedback(t *testing.T) {
	coach := &fakeCoach{text: "late answer", gate: make(chan struct{})}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	tm.Start()
	tm.Skip()
	require.Eventually(t, func() bool { return coach.callCount() == 1 }, time.Second, time.Millisecond)

	tm.Reset()
	close(coach.gate)
	tm.Wait()

	assert.Empty(t, ann.announced())
	s := tm.Snapshot()
	assert.Equal(t, domain.PhaseFocus, s.Phase)
	assert.False(t, s.Running)
	assert.Equal(t, 1500, s.RemainingSeconds)
	assert.Equal(t, 0, s.CompletedFocus, "abandoned block is not counted")
}

func TestRestartWhilePipelineRunsCountsOnce(t *testing.T) {
	coach := &fakeCoach{text: "ok", gate: make(chan struct{})}
	ann := &mockAnnouncer{}
	tm := newTestTimer(coach, ann)

	tm.Start()
	tm.Skip()
	require.Eventually(t, func() bool { return coach.callCount() == 1 }, time.Second, time.Millisecond)

	tm.Pause()
	tm.Start()
	tm.Skip()
	require.Eventually(t, func() bool { return coach.callCount() == 2 }, time.Second, time.Millisecond)

	close(coach.gate)
	tm.Wait()

	s := tm.Snapshot()
	assert.Equal(t, 1, s.CompletedFocus)
	assert.Equal(t, domain.PhaseShortBreak, s.Phase)
	assert.Len(t, ann.announced(), 1)
}

func TestSelectPhaseCancelsAutoStart(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	ann := &mockAnnouncer{}
	tm := New(testConfig(), domain.Preferences{}, &fakeCoach{text: "x"}, ann, log,
		WithRestartDelay(200*time.Millisecond))

	tm.Skip()
	require.Eventually(t, func() bool { return len(ann.announced()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, tm.SelectPhase(domain.PhaseLongBreak))
	tm.Wait()

	s := tm.Snapshot()
	assert.False(t, s.Running)
	assert.Equal(t, domain.PhaseLongBreak, s.Phase)
	assert.Equal(t, 900, s.RemainingSeconds)
}

func TestSetConfigResyncsOnlyWhenPaused(t *testing.T) {
	tm := newTestTimer(nil, nil)

	cfg := testConfig()
	cfg.FocusMinutes = 50
	tm.SetConfig(cfg)
	assert.Equal(t, 3000, tm.Snapshot().RemainingSeconds)

	tm.Start()
	tm.tick()
	cfg.FocusMinutes = 10
	tm.SetConfig(cfg)
	assert.Equal(t, 2999, tm.Snapshot().RemainingSeconds)

	got := tm.SetConfig(domain.TimerConfig{FocusMinutes: 500, ShortBreakMinutes: 0, LongBreakMinutes: 15, CyclesUntilLong: 99})
	assert.Equal(t, domain.MaxFocusMinutes, got.FocusMinutes)
	assert.Equal(t, 1, got.ShortBreakMinutes)
	assert.Equal(t, domain.MaxCyclesUntilLong, got.CyclesUntilLong)
}

func TestSetConfigKeepsEditWhenActivePhaseUnchanged(t *testing.T) {
	tm := newTestTimer(nil, nil)
	require.NoError(t, tm.EditRemaining(754))

	cfg := testConfig()
	cfg.LongBreakMinutes = 20
	tm.SetConfig(cfg)
	assert.Equal(t, 754, tm.Snapshot().RemainingSeconds)

	cfg.CyclesUntilLong = 3
	cfg.ShortBreakMinutes = 10
	tm.SetConfig(cfg)
	assert.Equal(t, 754, tm.Snapshot().RemainingSeconds)

	cfg.FocusMinutes = 30
	tm.SetConfig(cfg)
	assert.Equal(t, 1800, tm.Snapshot().RemainingSeconds)
}

func TestSubscribersSeeCompletion(t *testing.T) {
	tm := newTestTimer(&fakeCoach{text: "nice"}, &mockAnnouncer{})
	events := tm.Subscribe(32)

	tm.Skip()
	tm.Wait()

	var types []EventType
	var feedback string
	for len(events) > 0 {
		ev := <-events
		types = append(types, ev.Type)
		if ev.Type == EventFeedback {
			feedback = ev.Message
		}
	}
	assert.Contains(t, types, EventCompleted)
	assert.Contains(t, types, EventRestarted)
	assert.Equal(t, "nice", feedback)
}

func TestRunTicksAndStops(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	tm := New(testConfig(), domain.Preferences{}, nil, nil, log, WithTickInterval(5*time.Millisecond))
	events := tm.Subscribe(8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tm.Run(ctx)
		close(done)
	}()

	tm.Start()
	require.Eventually(t, func() bool { return tm.Snapshot().RemainingSeconds < 1500 }, time.Second, time.Millisecond)

	cancel()
	<-done
	for range events {
	}
}

func TestRecorderPersistsPosition(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	tm := newTestTimer(&fakeCoach{}, &mockAnnouncer{})
	rec := NewRecorder(tm, store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	tm.Skip()
	tm.Wait()

	ctxBG := context.Background()
	assert.Eventually(t, func() bool {
		return storage.Value(ctxBG, store, storage.KeyCompletedFocus, 0, log) == 1 &&
			storage.Value(ctxBG, store, storage.KeyPhase, domain.PhaseFocus, log) == domain.PhaseShortBreak &&
			storage.Value(ctxBG, store, storage.KeySecondsLeft, 0, log) == 300
	}, time.Second, 5*time.Millisecond)
}

func TestRecorderWritesFinalPositionBeforeDone(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	tm := newTestTimer(nil, nil)
	rec := NewRecorder(tm, store, log)

	// Drained before Run starts, so only the shutdown write can record it.
	require.NoError(t, tm.EditRemaining(321))
	for len(rec.events) > 0 {
		<-rec.events
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	select {
	case <-rec.Done():
	default:
		t.Fatal("Done not closed after Run returned")
	}
	assert.Equal(t, 321, storage.Value(context.Background(), store, storage.KeySecondsLeft, 0, log))
}
