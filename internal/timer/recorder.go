package timer

import (
	"context"
	"time"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/storage"
)

// RecorderOption configures the recorder.
type RecorderOption func(*Recorder)

// WithStatusInterval sets how often the recorder logs a status line.
func WithStatusInterval(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.interval = d
	}
}

// Recorder follows timer events and keeps the persisted position (phase,
// seconds left, focus count) in step with the live state, so a restart
// resumes exactly where the user left off.
type Recorder struct {
	events   <-chan Event
	timer    *Timer
	store    domain.SettingsStore
	log      *logger.Logger
	interval time.Duration
	done     chan struct{}

	last    domain.TimerState
	hasLast bool
}

// NewRecorder subscribes to t immediately so no event between construction
// and Run is lost.
func NewRecorder(t *Timer, store domain.SettingsStore, log *logger.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		events:   t.Subscribe(64),
		timer:    t,
		store:    store,
		log:      log,
		interval: time.Minute,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run persists state changes until ctx is cancelled or the timer closes
// its subscriber channels. Intended to be called as a goroutine, once.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Debug("recorder started (status interval=%s)", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.record(context.WithoutCancel(ctx), r.timer.Snapshot())
			return
		case ev, ok := <-r.events:
			if !ok {
				return
			}
			r.record(ctx, ev.State)
		case <-ticker.C:
			s := r.timer.Snapshot()
			r.log.Debug("status: phase=%s remaining=%ds running=%t completed=%d",
				s.Phase, s.RemainingSeconds, s.Running, s.CompletedFocus)
		}
	}
}

// Done is closed once Run has written the final position and returned.
func (r *Recorder) Done() <-chan struct{} { return r.done }

// record writes only the fields that changed since the last write.
func (r *Recorder) record(ctx context.Context, s domain.TimerState) {
	if !r.hasLast || s.Phase != r.last.Phase {
		storage.Put(ctx, r.store, storage.KeyPhase, s.Phase, r.log)
	}
	if !r.hasLast || s.RemainingSeconds != r.last.RemainingSeconds {
		storage.Put(ctx, r.store, storage.KeySecondsLeft, s.RemainingSeconds, r.log)
	}
	if !r.hasLast || s.CompletedFocus != r.last.CompletedFocus {
		storage.Put(ctx, r.store, storage.KeyCompletedFocus, s.CompletedFocus, r.log)
	}
	r.last = s
	r.hasLast = true
}
