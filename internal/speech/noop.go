// Package speech voices coach messages: relay text-to-speech played through
// the audio device, with an on-device speech program as fallback.
package speech

import (
	"context"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*NoOp)(nil)

// NoOp is a speaker that does nothing. Used when voice is disabled at
// start-up.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a no-op speaker.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Speak does nothing.
func (n *NoOp) Speak(ctx context.Context, text string, prefs domain.VoicePreferences) error {
	n.log.Debug("speech no-op: would say %q", text)
	return nil
}
