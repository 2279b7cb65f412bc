package domain

import "strconv"

// Bounds for user-editable durations, in minutes unless noted.
const (
	MaxFocusMinutes      = 120
	MaxShortBreakMinutes = 60
	MaxLongBreakMinutes  = 90
	MinCyclesUntilLong   = 1
	MaxCyclesUntilLong   = 10

	// MaxRemainingSeconds caps a manual edit of the countdown (24h).
	MaxRemainingSeconds = 24 * 60 * 60
)

// TimerConfig holds the user's phase durations and long-break cadence.
type TimerConfig struct {
	FocusMinutes      int
	ShortBreakMinutes int
	LongBreakMinutes  int
	CyclesUntilLong   int
}

// DefaultTimerConfig returns the classic 25/5/15 schedule with a long
// break every fourth focus block.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		CyclesUntilLong:   4,
	}
}

// Normalize clamps every field into its valid range.
func (c TimerConfig) Normalize() TimerConfig {
	c.FocusMinutes = ClampInt(c.FocusMinutes, 1, MaxFocusMinutes)
	c.ShortBreakMinutes = ClampInt(c.ShortBreakMinutes, 1, MaxShortBreakMinutes)
	c.LongBreakMinutes = ClampInt(c.LongBreakMinutes, 1, MaxLongBreakMinutes)
	c.CyclesUntilLong = ClampInt(c.CyclesUntilLong, MinCyclesUntilLong, MaxCyclesUntilLong)
	return c
}

// Minutes returns the configured length of the given phase in minutes.
func (c TimerConfig) Minutes(p Phase) int {
	switch p {
	case PhaseShortBreak:
		return c.ShortBreakMinutes
	case PhaseLongBreak:
		return c.LongBreakMinutes
	default:
		return c.FocusMinutes
	}
}

// Seconds returns the full length of the given phase in seconds.
func (c TimerConfig) Seconds(p Phase) int {
	return c.Minutes(p) * 60
}

// TimerState is the live countdown state.
type TimerState struct {
	Phase            Phase
	RemainingSeconds int
	Running          bool
	CompletedFocus   int
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseClampedInt parses user input and clamps it. Non-numeric input
// yields lo.
func ParseClampedInt(s string, lo, hi int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return lo
	}
	return ClampInt(n, lo, hi)
}
