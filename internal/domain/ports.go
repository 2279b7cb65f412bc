package domain

import "context"

// SettingsStore persists scalar preferences by key. Implementations can be
// in-memory, a YAML file, or anything else with string keys.
//
// Get decodes the stored value into out and returns ErrNotFound when the key
// is missing. A decode failure is returned as-is so callers can fall back to
// a default.
type SettingsStore interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// FeedbackSource produces coach text. Implementations must fall back to
// req.Default rather than fail, but callers still guard against errors.
type FeedbackSource interface {
	Feedback(ctx context.Context, req FeedbackRequest) (string, error)
}

// Speaker plays text aloud. Failures are logged by the implementation;
// the returned error is informational only.
type Speaker interface {
	Speak(ctx context.Context, text string, prefs VoicePreferences) error
}

// Notifier delivers messages to the user. Implementations can write to
// the terminal, speak, or both.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// Announcer shows a coach message and speaks it with the given voice
// preferences. It returns once playback has started (or was skipped).
type Announcer interface {
	Announce(ctx context.Context, message string, prefs VoicePreferences) error
}

// IntentParser converts raw user input into structured intents.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
