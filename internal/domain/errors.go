package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotPaused       = errors.New("timer is running")
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrInvalidVoice    = errors.New("invalid voice")
	ErrPlaybackBlocked = errors.New("playback blocked")
	ErrNoSpeech        = errors.New("no speech synthesizer available")
)
