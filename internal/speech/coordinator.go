package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*Coordinator)(nil)

// CoordinatorOption configures the Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPendingHook is called with true when a clip is waiting for the user
// to start it, and with false when that clip is played or replaced.
func WithPendingHook(fn func(pending bool)) CoordinatorOption {
	return func(c *Coordinator) { c.onPending = fn }
}

// WithPrimedHook is called after the user starts a pending clip, which
// proves audio can play without further prompting.
func WithPrimedHook(fn func()) CoordinatorOption {
	return func(c *Coordinator) { c.onPrimed = fn }
}

// Coordinator decides how each message is voiced: relay speech first, the
// on-device engine when the relay is unreachable, nothing when voice is off.
// It never returns an error from Speak; failures are logged.
type Coordinator struct {
	remote *RemoteVoice
	local  *LocalVoice
	log    *logger.Logger

	onPending func(bool)
	onPrimed  func()

	mu      sync.Mutex
	pending []byte
}

// NewCoordinator creates a coordinator. Either backend may be nil.
func NewCoordinator(remote *RemoteVoice, local *LocalVoice, log *logger.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		remote: remote,
		local:  local,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Speak voices text according to prefs.
func (c *Coordinator) Speak(ctx context.Context, text string, prefs domain.VoicePreferences) error {
	text = strings.TrimSpace(text)
	if !prefs.Enabled || text == "" {
		return nil
	}

	if c.remote != nil {
		err := c.remote.Speak(ctx, text, prefs)
		if err == nil {
			c.setPending(nil)
			if c.local != nil {
				c.local.Stop()
			}
			return nil
		}
		if blocked, ok := AsBlocked(err); ok {
			// The relay worked; only playback was refused. Falling back
			// would talk over a clip the user is about to start.
			c.log.Info("voice: %v; waiting for play", blocked.Err)
			c.setPending(blocked.Audio)
			return nil
		}
		c.log.Warn("voice: %s failed, falling back: %v", c.remote.Name(), err)
	}

	if c.local == nil {
		return nil
	}
	if err := c.local.Speak(ctx, text, prefs); err != nil {
		c.log.Warn("voice: %s failed: %v", c.local.Name(), err)
	}
	return nil
}

// HasPending reports whether a blocked clip is waiting.
func (c *Coordinator) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// PlayPending starts the waiting clip in response to the user. The clip is
// kept if playback fails again.
func (c *Coordinator) PlayPending(ctx context.Context) error {
	c.mu.Lock()
	audio := c.pending
	c.mu.Unlock()

	if audio == nil || c.remote == nil {
		return domain.ErrNotFound
	}
	if err := c.remote.Replay(audio); err != nil {
		c.log.Warn("voice: tap to play: %v", err)
		return err
	}

	c.setPending(nil)
	if c.onPrimed != nil {
		c.onPrimed()
	}
	return nil
}

// Stop silences both backends.
func (c *Coordinator) Stop() {
	if c.remote != nil {
		c.remote.Stop()
	}
	if c.local != nil {
		c.local.Stop()
	}
}

// LocalVoices lists on-device voices.
func (c *Coordinator) LocalVoices(ctx context.Context) ([]Voice, error) {
	if c.local == nil {
		return nil, domain.ErrNoSpeech
	}
	return c.local.Voices(ctx)
}

func (c *Coordinator) setPending(audio []byte) {
	c.mu.Lock()
	changed := (c.pending == nil) != (audio == nil)
	c.pending = audio
	c.mu.Unlock()

	if changed && c.onPending != nil {
		c.onPending(audio != nil)
	}
}

// IsBlocked reports whether err is a playback refusal.
func IsBlocked(err error) bool {
	return errors.Is(err, domain.ErrPlaybackBlocked)
}
