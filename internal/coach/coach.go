// Package coach produces the short encouragement messages announced when a
// phase ends, either from the relay's model or from a small local script.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.FeedbackSource = (*Coach)(nil)

// Generator completes a prompt with a model. relay.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Option configures the Coach.
type Option func(*Coach)

// WithPicker replaces the random index source used for local tips.
func WithPicker(pick func(n int) int) Option {
	return func(c *Coach) { c.pick = pick }
}

// Coach answers feedback requests. It never fails: every path that cannot
// produce text returns the request's default.
type Coach struct {
	gen  Generator
	log  *logger.Logger
	pick func(n int) int
}

// New creates a coach. gen may be nil, in which case every remote request
// returns its default.
func New(gen Generator, log *logger.Logger, opts ...Option) *Coach {
	c := &Coach{
		gen:  gen,
		log:  log,
		pick: rand.IntN,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Feedback returns coach text for req.
func (c *Coach) Feedback(ctx context.Context, req domain.FeedbackRequest) (string, error) {
	if req.Question == "" && req.Context.Phase == domain.PhaseFocus && req.Context.FocusMinutes == 1 {
		return demoLine, nil
	}

	if req.Coach.LocalGeneration {
		return c.local(req), nil
	}

	return c.remote(ctx, req), nil
}

// FocusTip asks for one concrete tip for the next block.
func (c *Coach) FocusTip(ctx context.Context, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string {
	text, _ := c.Feedback(ctx, domain.FeedbackRequest{
		Context: domain.FeedbackContext{
			Phase:             domain.PhaseFocus,
			FocusMinutes:      cfg.FocusMinutes,
			ShortBreakMinutes: cfg.ShortBreakMinutes,
			CompletedFocus:    state.CompletedFocus,
		},
		Question: questionFocusTip,
		Default:  defaultFocusTip,
		Coach:    prefs,
	})
	return text
}

// Summary asks for a two-sentence recap of the day.
func (c *Coach) Summary(ctx context.Context, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string {
	text, _ := c.Feedback(ctx, domain.FeedbackRequest{
		Context:  contextFor(cfg, state),
		Question: questionSummary,
		Default:  fmt.Sprintf(defaultSummary, state.CompletedFocus),
		Coach:    prefs,
	})
	return text
}

// Ask forwards a free-form question.
func (c *Coach) Ask(ctx context.Context, question string, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string {
	text, _ := c.Feedback(ctx, domain.FeedbackRequest{
		Context:  contextFor(cfg, state),
		Question: strings.TrimSpace(question),
		Default:  momentumLine,
		Coach:    prefs,
	})
	return text
}

func contextFor(cfg domain.TimerConfig, state domain.TimerState) domain.FeedbackContext {
	return domain.FeedbackContext{
		Phase:             state.Phase,
		FocusMinutes:      cfg.FocusMinutes,
		ShortBreakMinutes: cfg.ShortBreakMinutes,
		LongBreakMinutes:  cfg.LongBreakMinutes,
		CompletedFocus:    state.CompletedFocus,
	}
}

// BuildPrompt renders the prompt sent to the model.
func BuildPrompt(ctx domain.FeedbackContext, question string) string {
	raw, err := json.Marshal(ctx)
	if err != nil {
		raw = []byte("{}")
	}

	var b strings.Builder
	b.WriteString(promptPersona)
	b.WriteString("\nContext: ")
	b.Write(raw)
	b.WriteString("\n")
	b.WriteString(promptInstruction)
	if question != "" {
		b.WriteString("\nUser request: ")
		b.WriteString(question)
	}
	return b.String()
}

func (c *Coach) local(req domain.FeedbackRequest) string {
	if req.Question != "" {
		return localTips[c.pick(len(localTips))]
	}
	if req.Context.Phase == domain.PhaseFocus {
		return fmt.Sprintf("Great work! You finished a %d-minute focus block. Take a %d-minute stretch and hydrate. Prep 1 small next step for a smooth restart.",
			req.Context.FocusMinutes, req.Context.ShortBreakMinutes)
	}
	if req.Default != "" {
		return req.Default
	}
	return momentumLine
}

func (c *Coach) remote(ctx context.Context, req domain.FeedbackRequest) string {
	if c.gen == nil {
		return req.Default
	}

	model := req.Coach.Model
	if model == "" {
		model = domain.DefaultModel
	}

	prompt := truncateRunes(BuildPrompt(req.Context, req.Question), maxPromptRunes)

	text, err := c.gen.Generate(ctx, model, prompt)
	if err != nil {
		c.log.Warn("coach: %v", err)
		return req.Default
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return req.Default
	}
	return text
}

// maxPromptRunes matches the relay's prompt limit.
const maxPromptRunes = 2000

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
