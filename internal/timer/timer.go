// Package timer implements the focus countdown, the phase state machine and
// the completion pipeline that runs when a phase reaches zero.
package timer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Option configures the timer.
type Option func(*Timer)

// WithTickInterval sets how often the countdown decrements. One tick always
// removes one second from the remaining time.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		t.tickInterval = d
	}
}

// WithRestartDelay sets the pause between a phase transition and the
// automatic start of the next phase.
func WithRestartDelay(d time.Duration) Option {
	return func(t *Timer) {
		t.restartDelay = d
	}
}

// WithFeedbackTimeout bounds how long the pipeline waits for coach text.
func WithFeedbackTimeout(d time.Duration) Option {
	return func(t *Timer) {
		t.feedbackTimeout = d
	}
}

// Timer owns the countdown state. Commands and the tick loop share it under
// one mutex; the completion pipeline runs on its own goroutine and only
// takes the lock for short state updates.
type Timer struct {
	feedback  domain.FeedbackSource
	announcer domain.Announcer
	log       *logger.Logger

	tickInterval    time.Duration
	restartDelay    time.Duration
	feedbackTimeout time.Duration

	mu         sync.Mutex
	cfg        domain.TimerConfig
	prefs      domain.Preferences
	state      domain.TimerState
	generation uint64
	subs       []chan Event
	baseCtx    context.Context

	// completing is the completion token. Only the caller that flips it
	// from false to true runs the pipeline.
	completing atomic.Bool
	pipelines  sync.WaitGroup
}

// New creates a paused timer at the start of a focus block.
func New(cfg domain.TimerConfig, prefs domain.Preferences, feedback domain.FeedbackSource, announcer domain.Announcer, log *logger.Logger, opts ...Option) *Timer {
	cfg = cfg.Normalize()
	t := &Timer{
		feedback:        feedback,
		announcer:       announcer,
		log:             log,
		tickInterval:    time.Second,
		restartDelay:    100 * time.Millisecond,
		feedbackTimeout: 30 * time.Second,
		cfg:             cfg,
		prefs:           prefs,
		state: domain.TimerState{
			Phase:            domain.PhaseFocus,
			RemainingSeconds: cfg.Seconds(domain.PhaseFocus),
		},
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Restore puts the timer at a previously persisted position. The timer is
// always restored paused.
func (t *Timer) Restore(phase domain.Phase, remaining, completedFocus int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if phase < domain.PhaseFocus || phase > domain.PhaseLongBreak {
		phase = domain.PhaseFocus
	}
	t.state.Phase = phase
	t.state.RemainingSeconds = domain.ClampInt(remaining, 0, domain.MaxRemainingSeconds)
	if completedFocus < 0 {
		completedFocus = 0
	}
	t.state.CompletedFocus = completedFocus
	t.state.Running = false
	t.generation++
	t.emitLocked(Event{Type: EventStateChange})
}

// Subscribe registers an observer channel.
func (t *Timer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()
	return ch
}

// Run drives the countdown until ctx is cancelled, then closes every
// subscriber channel. Blocks; intended to be called as a goroutine.
func (t *Timer) Run(ctx context.Context) {
	t.mu.Lock()
	t.baseCtx = ctx
	t.mu.Unlock()

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	t.log.Info("timer started (tick=%s, restart delay=%s)", t.tickInterval, t.restartDelay)

	for {
		select {
		case <-ctx.Done():
			t.pipelines.Wait()
			t.closeSubscribers()
			t.log.Info("timer stopped")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Wait blocks until every in-flight completion pipeline, including its
// auto-restart, has finished.
func (t *Timer) Wait() {
	t.pipelines.Wait()
}

// Snapshot returns a copy of the live state.
func (t *Timer) Snapshot() domain.TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Config returns the active timer configuration.
func (t *Timer) Config() domain.TimerConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// Preferences returns the voice and coach preferences used by the pipeline.
func (t *Timer) Preferences() domain.Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prefs
}

// Start runs the countdown. A timer sitting at zero restarts its phase from
// the full duration. Calling Start on a running timer does nothing.
// Releasing a held completion token also abandons the pipeline that held it.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Running {
		return
	}
	if t.state.RemainingSeconds == 0 {
		t.state.RemainingSeconds = t.cfg.Seconds(t.state.Phase)
	}
	if t.completing.Swap(false) {
		t.generation++
	}
	t.state.Running = true
	t.log.Debug("start %s with %ds left", t.state.Phase, t.state.RemainingSeconds)
	t.emitLocked(Event{Type: EventStateChange})
}

// Pause stops the countdown and changes nothing else.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Running {
		return
	}
	t.state.Running = false
	t.log.Debug("pause %s at %ds", t.state.Phase, t.state.RemainingSeconds)
	t.emitLocked(Event{Type: EventStateChange})
}

// Toggle starts a paused timer or pauses a running one and reports whether
// the timer is now running.
func (t *Timer) Toggle() bool {
	if t.Snapshot().Running {
		t.Pause()
		return false
	}
	t.Start()
	return true
}

// Reset stops the timer and restores the full duration of the current phase.
// Any pipeline still in flight is abandoned.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Running = false
	t.state.RemainingSeconds = t.cfg.Seconds(t.state.Phase)
	t.completing.Store(false)
	t.generation++
	t.log.Debug("reset %s to %ds", t.state.Phase, t.state.RemainingSeconds)
	t.emitLocked(Event{Type: EventStateChange})
}

// Skip ends the current phase immediately, running or not, and routes it
// through the completion pipeline like a natural finish.
func (t *Timer) Skip() {
	t.mu.Lock()
	t.state.RemainingSeconds = 0
	t.emitLocked(Event{Type: EventStateChange})
	t.mu.Unlock()

	t.log.Debug("skip requested")
	t.complete()
}

// EditRemaining overwrites the remaining seconds of a paused timer, clamped
// to [0, 24h]. Editing to zero does not complete the phase.
func (t *Timer) EditRemaining(seconds int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Running {
		return fmt.Errorf("timer: edit remaining: %w", domain.ErrNotPaused)
	}
	t.state.RemainingSeconds = domain.ClampInt(seconds, 0, domain.MaxRemainingSeconds)
	t.generation++
	t.emitLocked(Event{Type: EventStateChange})
	return nil
}

// SelectPhase switches phase manually. The focus count and the completion
// token are untouched; remaining time resyncs only while paused.
func (t *Timer) SelectPhase(p domain.Phase) error {
	if p < domain.PhaseFocus || p > domain.PhaseLongBreak {
		return fmt.Errorf("timer: select phase: %w", domain.ErrInvalidPhase)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Phase = p
	if !t.state.Running {
		t.state.RemainingSeconds = t.cfg.Seconds(p)
	}
	t.generation++
	t.emitLocked(Event{Type: EventStateChange})
	return nil
}

// SetConfig replaces the durations. A paused timer resyncs its remaining
// time only when the active phase's length changed.
func (t *Timer) SetConfig(cfg domain.TimerConfig) domain.TimerConfig {
	cfg = cfg.Normalize()

	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.cfg
	t.cfg = cfg
	if !t.state.Running && cfg.Seconds(t.state.Phase) != old.Seconds(t.state.Phase) {
		t.state.RemainingSeconds = cfg.Seconds(t.state.Phase)
	}
	t.emitLocked(Event{Type: EventStateChange})
	return cfg
}

// SetPreferences replaces the voice and coach preferences. Takes effect on
// the next completion.
func (t *Timer) SetPreferences(p domain.Preferences) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs = p
}

// tick removes one second. Reaching zero from a positive value starts the
// completion pipeline; Running is left as is.
func (t *Timer) tick() {
	t.mu.Lock()
	if !t.state.Running || t.state.RemainingSeconds <= 0 {
		t.mu.Unlock()
		return
	}
	t.state.RemainingSeconds--
	reachedZero := t.state.RemainingSeconds == 0
	t.emitLocked(Event{Type: EventTick})
	t.mu.Unlock()

	if reachedZero {
		t.complete()
	}
}

func (t *Timer) emitLocked(event Event) {
	event.State = t.state
	if event.At.IsZero() {
		event.At = time.Now()
	}
	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (t *Timer) closeSubscribers() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}
