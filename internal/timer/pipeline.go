package timer

import (
	"context"
	"strings"
	"time"

	"github.com/hammamikhairi/devtimer/internal/domain"
)

// completionRun is the snapshot a pipeline works from.
type completionRun struct {
	ctx        context.Context
	phase      domain.Phase
	generation uint64
}

// complete acquires the completion token and launches the pipeline. A
// second zero-crossing while the token is held is ignored.
func (t *Timer) complete() {
	if !t.completing.CompareAndSwap(false, true) {
		t.log.Debug("completion already in progress, ignoring")
		return
	}

	t.mu.Lock()
	run := completionRun{
		ctx:        t.baseCtx,
		phase:      t.state.Phase,
		generation: t.generation,
	}
	t.pipelines.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.pipelines.Done()
		t.runPipeline(run)
	}()
}

// runPipeline performs the six completion steps in order. Every step
// tolerates failure; a run made stale by a user command stops early.
func (t *Timer) runPipeline(run completionRun) {
	t.log.Info("%s complete", run.phase)

	// 1. Count the finished focus block.
	t.mu.Lock()
	if run.generation != t.generation {
		t.mu.Unlock()
		t.log.Debug("pipeline for %s superseded before start", run.phase)
		return
	}
	counted := run.phase == domain.PhaseFocus
	if counted {
		t.state.CompletedFocus++
	}
	cfg := t.cfg
	prefs := t.prefs
	completed := t.state.CompletedFocus
	t.emitLocked(Event{Type: EventCompleted, Phase: run.phase})
	t.mu.Unlock()

	// 2. Default message.
	fallback := DefaultSuggestion(run.phase, cfg)

	// 3. Coach text.
	message := t.fetchFeedback(run, cfg, prefs, completed, fallback)

	t.mu.Lock()
	stale := run.generation != t.generation
	if stale {
		t.uncountLocked(counted)
	} else {
		t.emitLocked(Event{Type: EventFeedback, Phase: run.phase, Message: message})
	}
	t.mu.Unlock()
	if stale {
		t.log.Debug("discarding feedback for superseded %s completion", run.phase)
		return
	}

	// 4. Announce.
	if t.announcer != nil {
		if err := t.announcer.Announce(run.ctx, message, prefs.Voice); err != nil {
			t.log.Warn("announce: %v", err)
		}
	}

	// 5 + 6. Transition and stop; restart after the delay.
	t.mu.Lock()
	if run.generation != t.generation {
		t.uncountLocked(counted)
		t.mu.Unlock()
		t.log.Debug("transition for %s superseded", run.phase)
		return
	}
	next := NextPhase(run.phase, t.state.CompletedFocus, t.cfg.CyclesUntilLong)
	nextSeconds := t.cfg.Seconds(next)
	t.state.Phase = next
	t.state.RemainingSeconds = nextSeconds
	t.state.Running = false
	t.generation++
	restartGen := t.generation
	t.emitLocked(Event{Type: EventStateChange})
	t.mu.Unlock()

	t.log.Info("next phase: %s (%ds)", next, nextSeconds)

	timer := time.NewTimer(t.restartDelay)
	defer timer.Stop()
	select {
	case <-run.ctx.Done():
		return
	case <-timer.C:
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if restartGen != t.generation {
		t.log.Debug("auto-start of %s cancelled by user command", next)
		return
	}
	t.completing.Store(false)
	t.state.Running = true
	t.emitLocked(Event{Type: EventRestarted})
}

// uncountLocked takes back the focus block counted by a run that never
// reached its transition. t.mu must be held.
func (t *Timer) uncountLocked(counted bool) {
	if counted && t.state.CompletedFocus > 0 {
		t.state.CompletedFocus--
		t.emitLocked(Event{Type: EventStateChange})
	}
}

// fetchFeedback asks the coach for text and falls back to the default on
// any error or empty answer.
func (t *Timer) fetchFeedback(run completionRun, cfg domain.TimerConfig, prefs domain.Preferences, completed int, fallback string) string {
	if t.feedback == nil {
		return fallback
	}

	req := domain.FeedbackRequest{
		Context: domain.FeedbackContext{
			Phase:             run.phase,
			FocusMinutes:      cfg.FocusMinutes,
			ShortBreakMinutes: cfg.ShortBreakMinutes,
			LongBreakMinutes:  cfg.LongBreakMinutes,
			CompletedFocus:    completed,
		},
		Default: fallback,
		Coach:   prefs.Coach,
	}
	if run.phase == domain.PhaseFocus {
		req.Context.Note = completionNote
	}

	ctx, cancel := context.WithTimeout(run.ctx, t.feedbackTimeout)
	defer cancel()

	text, err := t.feedback.Feedback(ctx, req)
	if err != nil {
		t.log.Warn("coach feedback: %v", err)
		return fallback
	}
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}
