package domain

import "fmt"

// DefaultModel is the chat model requested from the relay when the user
// has not picked one.
const DefaultModel = "gpt-4o-mini"

// DefaultRemoteVoice is the relay TTS voice used when none is configured.
const DefaultRemoteVoice = "alloy"

// RemoteVoices is the fixed set of voices the relay accepts.
var RemoteVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer", "aria", "verse"}

// IsRemoteVoice reports whether v is one of RemoteVoices.
func IsRemoteVoice(v string) bool {
	for _, rv := range RemoteVoices {
		if rv == v {
			return true
		}
	}
	return false
}

// ValidateRemoteVoice returns ErrInvalidVoice for voices outside the set.
func ValidateRemoteVoice(v string) error {
	if !IsRemoteVoice(v) {
		return fmt.Errorf("%w: %q", ErrInvalidVoice, v)
	}
	return nil
}

// VoicePreferences controls how coach messages are spoken.
type VoicePreferences struct {
	RemoteVoice string // relay voice id
	LocalVoice  string // on-device voice name, empty = platform default
	Enabled     bool
}

// DefaultVoicePreferences has speech on with the default relay voice.
func DefaultVoicePreferences() VoicePreferences {
	return VoicePreferences{RemoteVoice: DefaultRemoteVoice, Enabled: true}
}

// CoachPreferences controls where coach text comes from.
type CoachPreferences struct {
	Model           string
	LocalGeneration bool
}

// DefaultCoachPreferences uses the relay with the default model.
func DefaultCoachPreferences() CoachPreferences {
	return CoachPreferences{Model: DefaultModel}
}

// Preferences bundles everything the completion pipeline needs besides
// the timer configuration.
type Preferences struct {
	Voice VoicePreferences
	Coach CoachPreferences
}
