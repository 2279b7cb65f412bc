package timer

import (
	"fmt"

	"github.com/hammamikhairi/devtimer/internal/domain"
)

// NextPhase returns the phase that follows a completed one. completed is the
// focus count after the increment for the block that just ended.
func NextPhase(current domain.Phase, completed, cyclesUntilLong int) domain.Phase {
	if current != domain.PhaseFocus {
		return domain.PhaseFocus
	}
	if cyclesUntilLong < 1 {
		cyclesUntilLong = 1
	}
	if completed%cyclesUntilLong == 0 {
		return domain.PhaseLongBreak
	}
	return domain.PhaseShortBreak
}

// DefaultSuggestion is the message announced when the coach has nothing
// better to say about the phase that just ended.
func DefaultSuggestion(completed domain.Phase, cfg domain.TimerConfig) string {
	switch completed {
	case domain.PhaseFocus:
		return fmt.Sprintf("Great work! You finished a %d-minute focus block. Take a %d-minute stretch break to reset your mind.",
			cfg.FocusMinutes, cfg.ShortBreakMinutes)
	case domain.PhaseShortBreak:
		return fmt.Sprintf("Break done! Get ready for another %d-minute deep-focus sprint", cfg.FocusMinutes)
	default:
		return fmt.Sprintf("Long break complete. Easing back into a %d-minute focus block will keep momentum.", cfg.FocusMinutes)
	}
}

// completionNote tags the coach context for a finished focus block.
const completionNote = "Session complete"
