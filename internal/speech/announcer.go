package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Announcer = (*SpeakingAnnouncer)(nil)

// SpeakingAnnouncer shows a message through a text notifier and then
// voices it.
type SpeakingAnnouncer struct {
	text    domain.Notifier
	speaker domain.Speaker
	log     *logger.Logger
}

// NewSpeakingAnnouncer creates an announcer that both prints and speaks.
func NewSpeakingAnnouncer(text domain.Notifier, speaker domain.Speaker, log *logger.Logger) *SpeakingAnnouncer {
	return &SpeakingAnnouncer{
		text:    text,
		speaker: speaker,
		log:     log,
	}
}

// Announce prints message and speaks it with prefs. A print failure does
// not prevent speech.
func (a *SpeakingAnnouncer) Announce(ctx context.Context, message string, prefs domain.VoicePreferences) error {
	if err := a.text.Notify(ctx, message); err != nil {
		a.log.Warn("announce: %v", err)
	}
	return a.speaker.Speak(ctx, cleanForSpeech(message), prefs)
}

// cleanForSpeech strips formatting artifacts that shouldn't be spoken.
var bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
var ansiCodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func cleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
