// Package domain defines the core types and interfaces for the focus timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"strings"
)

// Phase is the current timer mode.
type Phase int

const (
	PhaseFocus Phase = iota
	PhaseShortBreak
	PhaseLongBreak
)

// String returns the persisted wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseFocus:
		return "focus"
	case PhaseShortBreak:
		return "short"
	case PhaseLongBreak:
		return "long"
	default:
		return "unknown"
	}
}

// Label returns the human-readable phase name shown in the UI.
func (p Phase) Label() string {
	switch p {
	case PhaseFocus:
		return "Focus"
	case PhaseShortBreak:
		return "Short Break"
	default:
		return "Long Break"
	}
}

// IsBreak reports whether p is one of the two break phases.
func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

// ParsePhase converts a wire name ("focus", "short", "long") to a Phase.
// A few spoken aliases are accepted as well.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "focus", "work":
		return PhaseFocus, nil
	case "short", "short_break", "shortbreak", "break":
		return PhaseShortBreak, nil
	case "long", "long_break", "longbreak":
		return PhaseLongBreak, nil
	}
	return PhaseFocus, fmt.Errorf("%w: %q", ErrInvalidPhase, s)
}

// MarshalText implements encoding.TextMarshaler so phases persist as names.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
