package speech

import (
	"context"
	"errors"

	"github.com/hammamikhairi/devtimer/internal/domain"
)

// Backend is one way of turning text into sound. The set is closed:
// RemoteVoice and LocalVoice are the only implementations.
type Backend interface {
	Name() string
	Speak(ctx context.Context, text string, prefs domain.VoicePreferences) error
	Stop()
	backend()
}

// BlockedError reports synthesized audio that could not start playing. The
// audio is kept so the user can start it explicitly.
type BlockedError struct {
	Audio []byte
	Err   error
}

func (e *BlockedError) Error() string {
	return "speech: playback blocked: " + e.Err.Error()
}

// Unwrap lets errors.Is match domain.ErrPlaybackBlocked.
func (e *BlockedError) Unwrap() error { return e.Err }

// AsBlocked extracts a BlockedError from err.
func AsBlocked(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}
