package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/speech"
	"github.com/hammamikhairi/devtimer/internal/storage"
	"github.com/hammamikhairi/devtimer/internal/timer"
)

type recordingOutput struct {
	mu    sync.Mutex
	lines []string
}

func (o *recordingOutput) add(kind, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, kind+": "+text)
}

func (o *recordingOutput) PrintChat(text string)        { o.add("chat", text) }
func (o *recordingOutput) PrintHint(text string)        { o.add("hint", text) }
func (o *recordingOutput) PrintUrgent(text string)      { o.add("urgent", text) }
func (o *recordingOutput) PrintInstruction(text string) { o.add("line", text) }

func (o *recordingOutput) text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}

type fakeCoach struct {
	questions []string
	models    []string
}

func (f *fakeCoach) FocusTip(_ context.Context, _ domain.TimerConfig, _ domain.TimerState, p domain.CoachPreferences) string {
	f.models = append(f.models, p.Model)
	return "Close your chat app."
}

func (f *fakeCoach) Summary(_ context.Context, _ domain.TimerConfig, s domain.TimerState, _ domain.CoachPreferences) string {
	return fmt.Sprintf("You did %d blocks.", s.CompletedFocus)
}

func (f *fakeCoach) Ask(_ context.Context, q string, _ domain.TimerConfig, _ domain.TimerState, _ domain.CoachPreferences) string {
	f.questions = append(f.questions, q)
	return "Answer: " + q
}

type announcement struct {
	text  string
	prefs domain.VoicePreferences
}

type fakeAnnouncer struct {
	mu   sync.Mutex
	sent []announcement
}

func (f *fakeAnnouncer) Announce(_ context.Context, message string, prefs domain.VoicePreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, announcement{message, prefs})
	return nil
}

type fakeVoice struct {
	pending bool
	played  int
	stopped int
	voices  []speech.Voice
}

func (f *fakeVoice) HasPending() bool { return f.pending }

func (f *fakeVoice) PlayPending(context.Context) error {
	if !f.pending {
		return domain.ErrNotFound
	}
	f.pending = false
	f.played++
	return nil
}

func (f *fakeVoice) LocalVoices(context.Context) ([]speech.Voice, error) {
	if f.voices == nil {
		return nil, domain.ErrNoSpeech
	}
	return f.voices, nil
}

func (f *fakeVoice) Stop() { f.stopped++ }

type staticFeedback struct{}

func (staticFeedback) Feedback(_ context.Context, req domain.FeedbackRequest) (string, error) {
	return req.Default, nil
}

type fixture struct {
	ctrl  *Controller
	timer *timer.Timer
	store *storage.MemoryStore
	out   *recordingOutput
	coach *fakeCoach
	ann   *fakeAnnouncer
	voice *fakeVoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	f := &fixture{
		store: storage.NewMemoryStore(log),
		out:   &recordingOutput{},
		coach: &fakeCoach{},
		ann:   &fakeAnnouncer{},
		voice: &fakeVoice{},
	}
	prefs := domain.Preferences{Voice: domain.DefaultVoicePreferences(), Coach: domain.DefaultCoachPreferences()}
	f.timer = timer.New(domain.DefaultTimerConfig(), prefs, staticFeedback{}, f.ann, log)
	f.ctrl = New(f.timer, f.store, f.coach, f.ann, f.out, log, WithVoice(f.voice))
	return f
}

func (f *fixture) handle(t intentType, payload string) bool {
	return f.ctrl.Handle(context.Background(), &domain.Intent{Type: t, Payload: payload})
}

type intentType = domain.IntentType

func TestRestoreFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.KeyFocusMinutes, 50))
	require.NoError(t, f.store.Set(ctx, storage.KeyCyclesUntilLong, 99))
	require.NoError(t, f.store.Set(ctx, storage.KeyPhase, domain.PhaseShortBreak))
	require.NoError(t, f.store.Set(ctx, storage.KeySecondsLeft, 42))
	require.NoError(t, f.store.Set(ctx, storage.KeyCompletedFocus, 3))
	require.NoError(t, f.store.Set(ctx, storage.KeyRemoteVoice, "robot"))
	require.NoError(t, f.store.Set(ctx, storage.KeyModel, "gpt-4o"))
	require.NoError(t, f.store.Set(ctx, storage.KeyVoiceEnabled, false))

	f.ctrl.Restore(ctx)

	cfg := f.timer.Config()
	assert.Equal(t, 50, cfg.FocusMinutes)
	assert.Equal(t, domain.MaxCyclesUntilLong, cfg.CyclesUntilLong, "clamped")

	s := f.timer.Snapshot()
	assert.Equal(t, domain.PhaseShortBreak, s.Phase)
	assert.Equal(t, 42, s.RemainingSeconds)
	assert.Equal(t, 3, s.CompletedFocus)
	assert.False(t, s.Running)

	prefs := f.timer.Preferences()
	assert.Equal(t, domain.DefaultRemoteVoice, prefs.Voice.RemoteVoice)
	assert.Equal(t, "gpt-4o", prefs.Coach.Model)
	assert.False(t, prefs.Voice.Enabled)
}

func TestRestoreWithoutSecondsUsesFullPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.KeyPhase, domain.PhaseLongBreak))

	f.ctrl.Restore(ctx)
	assert.Equal(t, 15*60, f.timer.Snapshot().RemainingSeconds)
}

func TestSetDurationPersistsAndResyncs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handle(domain.IntentSetDuration, "focus 500")
	assert.Equal(t, domain.MaxFocusMinutes, f.timer.Config().FocusMinutes)
	assert.Equal(t, domain.MaxFocusMinutes*60, f.timer.Snapshot().RemainingSeconds)
	assert.Equal(t, domain.MaxFocusMinutes, storage.Value(ctx, f.store, storage.KeyFocusMinutes, 0, f.ctrl.log))

	f.handle(domain.IntentSetDuration, "cycles abc")
	assert.Equal(t, domain.MinCyclesUntilLong, f.timer.Config().CyclesUntilLong)

	f.handle(domain.IntentSetDuration, "lunch 5")
	assert.Contains(t, f.out.text(), "Usage: set")
}

func TestEditTimeRequiresPause(t *testing.T) {
	f := newFixture(t)

	f.handle(domain.IntentStart, "")
	f.handle(domain.IntentEditTime, "1:30")
	assert.Contains(t, f.out.text(), "Pause the timer")
	assert.Equal(t, 25*60, f.timer.Snapshot().RemainingSeconds)

	f.handle(domain.IntentPause, "")
	f.handle(domain.IntentEditTime, "1:30")
	assert.Equal(t, 90, f.timer.Snapshot().RemainingSeconds)
	assert.Contains(t, f.out.text(), "Time set to 01:30.")

	f.handle(domain.IntentEditTime, "1:75")
	assert.Contains(t, f.out.text(), "Can't read")
}

func TestSelectPhaseAcceptsSpokenNames(t *testing.T) {
	f := newFixture(t)

	f.handle(domain.IntentSelectPhase, "short break")
	assert.Equal(t, domain.PhaseShortBreak, f.timer.Snapshot().Phase)
	assert.Equal(t, 5*60, f.timer.Snapshot().RemainingSeconds)

	f.handle(domain.IntentSelectPhase, "nap")
	assert.Contains(t, f.out.text(), "Unknown phase")
	assert.Equal(t, domain.PhaseShortBreak, f.timer.Snapshot().Phase)
}

func TestToggleResetAndSkip(t *testing.T) {
	f := newFixture(t)

	f.handle(domain.IntentToggle, "")
	assert.True(t, f.timer.Snapshot().Running)
	f.handle(domain.IntentToggle, "")
	assert.False(t, f.timer.Snapshot().Running)

	require.NoError(t, f.timer.EditRemaining(10))
	f.handle(domain.IntentReset, "")
	assert.Equal(t, 25*60, f.timer.Snapshot().RemainingSeconds)

	f.handle(domain.IntentSkip, "")
	f.timer.Wait()
	s := f.timer.Snapshot()
	assert.Equal(t, domain.PhaseShortBreak, s.Phase)
	assert.Equal(t, 1, s.CompletedFocus)
}

func TestVoicePreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := f.ctrl.log

	f.handle(domain.IntentSetVoice, "robot")
	assert.Contains(t, f.out.text(), "Unknown voice")
	assert.Equal(t, "", storage.Value(ctx, f.store, storage.KeyRemoteVoice, "", log))

	f.handle(domain.IntentSetVoice, "Nova")
	assert.Equal(t, "nova", f.timer.Preferences().Voice.RemoteVoice)
	assert.Equal(t, "nova", storage.Value(ctx, f.store, storage.KeyRemoteVoice, "", log))

	f.handle(domain.IntentVoiceToggle, "off")
	assert.False(t, f.timer.Preferences().Voice.Enabled)
	assert.False(t, storage.Value(ctx, f.store, storage.KeyVoiceEnabled, true, log))
	assert.Equal(t, 1, f.voice.stopped)

	f.handle(domain.IntentLocalToggle, "on")
	assert.True(t, f.timer.Preferences().Coach.LocalGeneration)
	assert.True(t, storage.Value(ctx, f.store, storage.KeyLocalGeneration, false, log))

	f.handle(domain.IntentSetModel, "gpt-4o")
	assert.Equal(t, "gpt-4o", storage.Value(ctx, f.store, storage.KeyModel, "", log))
}

func TestSetLocalVoiceMatchesInstalledVoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.voice.voices = []speech.Voice{{Name: "Alex", Lang: "en_US"}, {Name: "Samantha", Lang: "en_US"}}

	f.handle(domain.IntentSetLocalVoice, "samantha")
	assert.Equal(t, "Samantha", f.timer.Preferences().Voice.LocalVoice)
	assert.Equal(t, "Samantha", storage.Value(ctx, f.store, storage.KeyLocalVoice, "", f.ctrl.log))

	f.handle(domain.IntentSetLocalVoice, "Zork")
	assert.Contains(t, f.out.text(), "No on-device voice")
	assert.Equal(t, "Samantha", f.timer.Preferences().Voice.LocalVoice)

	f.handle(domain.IntentSetLocalVoice, "default")
	assert.Equal(t, "", f.timer.Preferences().Voice.LocalVoice)

	f.handle(domain.IntentListVoices, "")
	out := f.out.text()
	assert.Contains(t, out, "* alloy")
	assert.Contains(t, out, "* Samantha (en_US)", "preferred voice is marked when none is set")
}

func TestCoachCommandsAnnounce(t *testing.T) {
	f := newFixture(t)
	f.handle(domain.IntentSetModel, "gpt-4o")

	f.handle(domain.IntentFocusTip, "")
	f.handle(domain.IntentSummary, "")
	f.handle(domain.IntentAsk, "should I stretch?")

	require.Len(t, f.ann.sent, 3)
	assert.Equal(t, "Close your chat app.", f.ann.sent[0].text)
	assert.Equal(t, "You did 0 blocks.", f.ann.sent[1].text)
	assert.Equal(t, "Answer: should I stretch?", f.ann.sent[2].text)
	assert.True(t, f.ann.sent[0].prefs.Enabled)
	assert.Equal(t, []string{"gpt-4o"}, f.coach.models)
}

func TestPlayPending(t *testing.T) {
	f := newFixture(t)

	f.handle(domain.IntentPlayPending, "")
	assert.Contains(t, f.out.text(), "Nothing waiting to play.")

	f.voice.pending = true
	f.handle(domain.IntentStatus, "")
	assert.Contains(t, f.out.text(), "Type 'play'")

	f.handle(domain.IntentPlayPending, "")
	assert.Equal(t, 1, f.voice.played)
}

func TestReloadAppliesExternalChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.timer.EditRemaining(100))

	f.ctrl.Reload(ctx)
	assert.Equal(t, 100, f.timer.Snapshot().RemainingSeconds, "unchanged durations keep the edit")

	require.NoError(t, f.store.Set(ctx, storage.KeyFocusMinutes, 30))
	require.NoError(t, f.store.Set(ctx, storage.KeyLocalGeneration, true))
	f.ctrl.Reload(ctx)
	assert.Equal(t, 30*60, f.timer.Snapshot().RemainingSeconds)
	assert.True(t, f.timer.Preferences().Coach.LocalGeneration)
}

func TestQuitAndUnknown(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.handle(domain.IntentUnknown, "dance"))
	assert.Contains(t, f.out.text(), "Didn't catch that")
	assert.True(t, f.handle(domain.IntentQuit, ""))
	assert.Equal(t, 1, f.voice.stopped)
}

func TestClockHelpers(t *testing.T) {
	for in, want := range map[string]int{"25:00": 1500, "0:05": 5, "90": 90, " 2:30 ": 150} {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "x", "1:60", "-5", "a:10"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "25:00", FormatClock(1500))
	assert.Equal(t, "120:05", FormatClock(7205))
	assert.Equal(t, "00:00", FormatClock(-3))

	cfg := domain.DefaultTimerConfig()
	assert.Equal(t, 0, Progress(cfg, domain.TimerState{Phase: domain.PhaseFocus, RemainingSeconds: 1500}))
	assert.Equal(t, 50, Progress(cfg, domain.TimerState{Phase: domain.PhaseShortBreak, RemainingSeconds: 150}))
	assert.Equal(t, 0, Progress(cfg, domain.TimerState{Phase: domain.PhaseFocus, RemainingSeconds: 9999}))
}
