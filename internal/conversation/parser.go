// Package conversation provides intent parsing and user notification implementations.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches typed commands to intents using keywords and simple
// patterns. Anything unmatched that reads like a question goes to the coach.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

// NewKeywordParser creates a keyword-based intent parser. Rules with a
// capture group carry the first group as the intent payload.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(start|go|begin|resume)$`), domain.IntentStart},
		{regexp.MustCompile(`(?i)^(pause|stop|p|brb)$`), domain.IntentPause},
		{regexp.MustCompile(`(?i)^(space|toggle|t)$`), domain.IntentToggle},
		{regexp.MustCompile(`(?i)^(reset|restart|r)$`), domain.IntentReset},
		{regexp.MustCompile(`(?i)^(skip|next|s|n)$`), domain.IntentSkip},
		{regexp.MustCompile(`(?i)^(?:phase|mode|switch)\s+(focus|short|long|work|break|short[ _]?break|long[ _]?break)$`), domain.IntentSelectPhase},
		{regexp.MustCompile(`(?i)^(focus|short|long)$`), domain.IntentSelectPhase},
		{regexp.MustCompile(`(?i)^(?:edit|set time|time)\s+(\d{1,4}(?::\d{1,2})?)$`), domain.IntentEditTime},
		{regexp.MustCompile(`(?i)^set\s+((?:focus|short|long|cycles)\s+\S+)$`), domain.IntentSetDuration},
		{regexp.MustCompile(`(?i)^model\s+(\S+)$`), domain.IntentSetModel},
		{regexp.MustCompile(`(?i)^(?:voice|speech)\s+(on|off)$`), domain.IntentVoiceToggle},
		{regexp.MustCompile(`(?i)^(?:local|offline)\s+(on|off)$`), domain.IntentLocalToggle},
		{regexp.MustCompile(`(?i)^local[- ]voice\s+(.+)$`), domain.IntentSetLocalVoice},
		{regexp.MustCompile(`(?i)^voice\s+(\S+)$`), domain.IntentSetVoice},
		{regexp.MustCompile(`(?i)^(voices|list voices)$`), domain.IntentListVoices},
		{regexp.MustCompile(`(?i)^(tip|focus tip|get tip)$`), domain.IntentFocusTip},
		{regexp.MustCompile(`(?i)^(summary|progress|summarize)$`), domain.IntentSummary},
		{regexp.MustCompile(`(?i)^(?:ask|coach)\s+(.+)$`), domain.IntentAsk},
		{regexp.MustCompile(`(?i)^(play|tap|replay|unmute)$`), domain.IntentPlayPending},
		{regexp.MustCompile(`(?i)^(status|where|info)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		intent := &domain.Intent{Type: rule.intent}
		if rule.regex.NumSubexp() > 0 && hasPayload(rule.intent) {
			intent.Payload = strings.TrimSpace(m[1])
		}
		return intent, nil
	}

	if isQuestion(trimmed) {
		return &domain.Intent{Type: domain.IntentAsk, Payload: trimmed}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}

func hasPayload(t domain.IntentType) bool {
	switch t {
	case domain.IntentSelectPhase, domain.IntentEditTime, domain.IntentSetDuration,
		domain.IntentSetModel, domain.IntentSetVoice, domain.IntentSetLocalVoice,
		domain.IntentVoiceToggle, domain.IntentLocalToggle, domain.IntentAsk:
		return true
	}
	return false
}

// questionPrefixes are common English question starters.
var questionPrefixes = []string{
	"how", "what", "why", "when", "where", "who",
	"can", "could", "should", "would", "will", "do", "does", "is", "are",
	"am i", "tell me", "explain",
}

// isQuestion returns true if the input looks like a question.
func isQuestion(s string) bool {
	if strings.HasSuffix(s, "?") {
		return true
	}
	lower := strings.ToLower(s)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix+" ") || lower == prefix {
			return true
		}
	}
	return false
}
