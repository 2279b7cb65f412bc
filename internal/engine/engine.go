// Package engine turns parsed user intents into timer commands, coach
// requests and persisted settings.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/speech"
	"github.com/hammamikhairi/devtimer/internal/storage"
	"github.com/hammamikhairi/devtimer/internal/timer"
)

// Coach answers the on-demand coach commands.
type Coach interface {
	FocusTip(ctx context.Context, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string
	Summary(ctx context.Context, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string
	Ask(ctx context.Context, question string, cfg domain.TimerConfig, state domain.TimerState, prefs domain.CoachPreferences) string
}

// Voice is the part of the speech coordinator the controller drives.
type Voice interface {
	HasPending() bool
	PlayPending(ctx context.Context) error
	LocalVoices(ctx context.Context) ([]speech.Voice, error)
	Stop()
}

// Output is where command feedback is printed.
type Output interface {
	PrintChat(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintInstruction(text string)
}

// Option configures the controller.
type Option func(*Controller)

// WithVoice attaches the speech coordinator. Without it the voice commands
// only change preferences.
func WithVoice(v Voice) Option {
	return func(c *Controller) {
		c.voice = v
	}
}

// Controller applies intents to the timer and keeps settings persisted.
type Controller struct {
	timer     *timer.Timer
	store     domain.SettingsStore
	coach     Coach
	announcer domain.Announcer
	voice     Voice
	out       Output
	log       *logger.Logger
}

// New creates a controller over an existing timer.
func New(t *timer.Timer, store domain.SettingsStore, coach Coach, announcer domain.Announcer, out Output, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		timer:     t,
		store:     store,
		coach:     coach,
		announcer: announcer,
		out:       out,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads the saved durations, preferences and position into the
// timer. The timer comes back paused.
func (c *Controller) Restore(ctx context.Context) {
	cfg := c.timer.SetConfig(LoadTimerConfig(ctx, c.store, c.log))
	c.timer.SetPreferences(LoadPreferences(ctx, c.store, c.log))

	pos := LoadPosition(ctx, c.store, cfg, c.log)
	c.timer.Restore(pos.Phase, pos.SecondsLeft, pos.CompletedFocus)
	c.log.Info("restored %s with %ds left, %d focus blocks done", pos.Phase, pos.SecondsLeft, pos.CompletedFocus)
}

// Reload re-reads durations and preferences after the settings file was
// changed outside the app. The position is left alone; durations are only
// applied when they differ, so a paused countdown is not resynced for
// nothing.
func (c *Controller) Reload(ctx context.Context) {
	cfg := LoadTimerConfig(ctx, c.store, c.log)
	if cfg != c.timer.Config() {
		c.timer.SetConfig(cfg)
		c.log.Info("durations reloaded: %d/%d/%d every %d", cfg.FocusMinutes,
			cfg.ShortBreakMinutes, cfg.LongBreakMinutes, cfg.CyclesUntilLong)
	}
	c.timer.SetPreferences(LoadPreferences(ctx, c.store, c.log))
}

// Handle executes one intent and reports whether the user asked to quit.
func (c *Controller) Handle(ctx context.Context, intent *domain.Intent) (quit bool) {
	c.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)

	switch intent.Type {
	case domain.IntentStart:
		c.timer.Start()
		c.out.PrintHint("Started.")
	case domain.IntentPause:
		c.timer.Pause()
		c.out.PrintHint("Paused.")
	case domain.IntentToggle:
		if c.timer.Toggle() {
			c.out.PrintHint("Started.")
		} else {
			c.out.PrintHint("Paused.")
		}
	case domain.IntentReset:
		c.timer.Reset()
		c.out.PrintHint("Reset.")
	case domain.IntentSkip:
		c.timer.Skip()
	case domain.IntentSelectPhase:
		c.selectPhase(intent.Payload)
	case domain.IntentEditTime:
		c.editTime(intent.Payload)
	case domain.IntentSetDuration:
		c.setDuration(ctx, intent.Payload)
	case domain.IntentSetModel:
		c.setModel(ctx, intent.Payload)
	case domain.IntentSetVoice:
		c.setVoice(ctx, intent.Payload)
	case domain.IntentSetLocalVoice:
		c.setLocalVoice(ctx, intent.Payload)
	case domain.IntentVoiceToggle:
		c.voiceToggle(ctx, intent.Payload)
	case domain.IntentLocalToggle:
		c.localToggle(ctx, intent.Payload)
	case domain.IntentListVoices:
		c.listVoices(ctx)
	case domain.IntentFocusTip:
		c.ask(ctx, "Getting a focus tip...", func(cfg domain.TimerConfig, s domain.TimerState, p domain.CoachPreferences) string {
			return c.coach.FocusTip(ctx, cfg, s, p)
		})
	case domain.IntentSummary:
		c.ask(ctx, "Summarizing your progress...", func(cfg domain.TimerConfig, s domain.TimerState, p domain.CoachPreferences) string {
			return c.coach.Summary(ctx, cfg, s, p)
		})
	case domain.IntentAsk:
		question := intent.Payload
		c.ask(ctx, "Thinking...", func(cfg domain.TimerConfig, s domain.TimerState, p domain.CoachPreferences) string {
			return c.coach.Ask(ctx, question, cfg, s, p)
		})
	case domain.IntentPlayPending:
		c.playPending(ctx)
	case domain.IntentStatus:
		c.status()
	case domain.IntentHelp:
		c.help()
	case domain.IntentQuit:
		if c.voice != nil {
			c.voice.Stop()
		}
		return true
	default:
		c.out.PrintHint("Didn't catch that. Type 'help' for commands.")
	}
	return false
}

func (c *Controller) selectPhase(payload string) {
	name := strings.ReplaceAll(strings.TrimSpace(payload), " ", "_")
	p, err := domain.ParsePhase(name)
	if err != nil {
		c.out.PrintUrgent(fmt.Sprintf("Unknown phase %q. Use focus, short or long.", payload))
		return
	}
	if err := c.timer.SelectPhase(p); err != nil {
		c.out.PrintUrgent(err.Error())
		return
	}
	c.out.PrintHint("Switched to " + p.Label() + ".")
}

func (c *Controller) editTime(payload string) {
	seconds, err := ParseClock(payload)
	if err != nil {
		c.out.PrintUrgent(fmt.Sprintf("Can't read %q. Use mm:ss or seconds.", payload))
		return
	}
	if err := c.timer.EditRemaining(seconds); err != nil {
		if errors.Is(err, domain.ErrNotPaused) {
			c.out.PrintHint("Pause the timer before editing the time.")
			return
		}
		c.out.PrintUrgent(err.Error())
		return
	}
	c.out.PrintHint("Time set to " + FormatClock(c.timer.Snapshot().RemainingSeconds) + ".")
}

func (c *Controller) setDuration(ctx context.Context, payload string) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		c.out.PrintUrgent("Usage: set focus|short|long|cycles <n>")
		return
	}

	cfg := c.timer.Config()
	value := fields[1]
	switch strings.ToLower(fields[0]) {
	case "focus":
		cfg.FocusMinutes = domain.ParseClampedInt(value, 1, domain.MaxFocusMinutes)
	case "short":
		cfg.ShortBreakMinutes = domain.ParseClampedInt(value, 1, domain.MaxShortBreakMinutes)
	case "long":
		cfg.LongBreakMinutes = domain.ParseClampedInt(value, 1, domain.MaxLongBreakMinutes)
	case "cycles":
		cfg.CyclesUntilLong = domain.ParseClampedInt(value, domain.MinCyclesUntilLong, domain.MaxCyclesUntilLong)
	default:
		c.out.PrintUrgent("Usage: set focus|short|long|cycles <n>")
		return
	}

	cfg = c.timer.SetConfig(cfg)
	SaveTimerConfig(ctx, c.store, cfg, c.log)
	c.out.PrintHint(fmt.Sprintf("Focus %dm, short %dm, long %dm, long break every %d.",
		cfg.FocusMinutes, cfg.ShortBreakMinutes, cfg.LongBreakMinutes, cfg.CyclesUntilLong))
}

func (c *Controller) setModel(ctx context.Context, model string) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = domain.DefaultModel
	}
	prefs := c.timer.Preferences()
	prefs.Coach.Model = model
	c.timer.SetPreferences(prefs)
	storage.Put(ctx, c.store, storage.KeyModel, model, c.log)
	c.out.PrintHint("Coach model: " + model)
}

func (c *Controller) setVoice(ctx context.Context, voice string) {
	voice = strings.ToLower(strings.TrimSpace(voice))
	if err := domain.ValidateRemoteVoice(voice); err != nil {
		c.out.PrintUrgent(fmt.Sprintf("Unknown voice %q. Choose one of: %s", voice, strings.Join(domain.RemoteVoices, ", ")))
		return
	}
	prefs := c.timer.Preferences()
	prefs.Voice.RemoteVoice = voice
	c.timer.SetPreferences(prefs)
	storage.Put(ctx, c.store, storage.KeyRemoteVoice, voice, c.log)
	c.out.PrintHint("Voice: " + voice)
}

func (c *Controller) setLocalVoice(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if c.voice != nil && !strings.EqualFold(name, "default") {
		voices, err := c.voice.LocalVoices(ctx)
		if err == nil {
			v, ok := speech.MatchVoice(voices, name)
			if !ok {
				c.out.PrintUrgent(fmt.Sprintf("No on-device voice named %q. Type 'voices' to list them.", name))
				return
			}
			name = v.Name
		}
	}
	if strings.EqualFold(name, "default") {
		name = ""
	}

	prefs := c.timer.Preferences()
	prefs.Voice.LocalVoice = name
	c.timer.SetPreferences(prefs)
	storage.Put(ctx, c.store, storage.KeyLocalVoice, name, c.log)
	if name == "" {
		c.out.PrintHint("On-device voice: automatic")
		return
	}
	c.out.PrintHint("On-device voice: " + name)
}

func (c *Controller) voiceToggle(ctx context.Context, value string) {
	on, ok := parseSwitch(value)
	if !ok {
		c.out.PrintUrgent("Usage: voice on|off")
		return
	}
	prefs := c.timer.Preferences()
	prefs.Voice.Enabled = on
	c.timer.SetPreferences(prefs)
	storage.Put(ctx, c.store, storage.KeyVoiceEnabled, on, c.log)
	if !on && c.voice != nil {
		c.voice.Stop()
	}
	c.out.PrintHint("Voice " + onOff(on) + ".")
}

func (c *Controller) localToggle(ctx context.Context, value string) {
	on, ok := parseSwitch(value)
	if !ok {
		c.out.PrintUrgent("Usage: local on|off")
		return
	}
	prefs := c.timer.Preferences()
	prefs.Coach.LocalGeneration = on
	c.timer.SetPreferences(prefs)
	storage.Put(ctx, c.store, storage.KeyLocalGeneration, on, c.log)
	c.out.PrintHint("Local coach " + onOff(on) + ".")
}

func (c *Controller) listVoices(ctx context.Context) {
	prefs := c.timer.Preferences()
	c.out.PrintChat("Relay voices:")
	for _, v := range domain.RemoteVoices {
		marker := "  "
		if v == prefs.Voice.RemoteVoice {
			marker = "* "
		}
		c.out.PrintInstruction(marker + v)
	}

	if c.voice == nil {
		return
	}
	voices, err := c.voice.LocalVoices(ctx)
	if err != nil {
		c.out.PrintHint("No on-device voices available.")
		return
	}
	active := speech.ResolveVoice(voices, prefs.Voice.LocalVoice)
	c.out.PrintChat("On-device voices:")
	for _, v := range voices {
		marker := "  "
		if v.Name == active {
			marker = "* "
		}
		line := marker + v.Name
		if v.Lang != "" {
			line += " (" + v.Lang + ")"
		}
		c.out.PrintInstruction(line)
	}
}

// ask runs a coach request and announces the answer with the current voice
// preferences.
func (c *Controller) ask(ctx context.Context, hint string, fn func(domain.TimerConfig, domain.TimerState, domain.CoachPreferences) string) {
	c.out.PrintHint(hint)
	prefs := c.timer.Preferences()
	text := fn(c.timer.Config(), c.timer.Snapshot(), prefs.Coach)
	if err := c.announcer.Announce(ctx, text, prefs.Voice); err != nil {
		c.log.Warn("announce: %v", err)
	}
}

func (c *Controller) playPending(ctx context.Context) {
	if c.voice == nil {
		c.out.PrintHint("Voice output is not available.")
		return
	}
	err := c.voice.PlayPending(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		c.out.PrintHint("Nothing waiting to play.")
	default:
		c.out.PrintUrgent("Playback failed: " + err.Error())
	}
}

func (c *Controller) status() {
	s := c.timer.Snapshot()
	cfg := c.timer.Config()
	state := "paused"
	if s.Running {
		state = "running"
	}
	c.out.PrintChat(fmt.Sprintf("%s %s (%s, %d%%)", s.Phase.Label(), FormatClock(s.RemainingSeconds), state, Progress(cfg, s)))
	c.out.PrintInstruction(fmt.Sprintf("Completed focus blocks: %d", s.CompletedFocus))
	c.out.PrintInstruction(fmt.Sprintf("Focus %dm, short %dm, long %dm, long break every %d",
		cfg.FocusMinutes, cfg.ShortBreakMinutes, cfg.LongBreakMinutes, cfg.CyclesUntilLong))

	prefs := c.timer.Preferences()
	coach := prefs.Coach.Model
	if prefs.Coach.LocalGeneration {
		coach = "local"
	}
	c.out.PrintInstruction(fmt.Sprintf("Coach: %s, voice %s (%s)", coach, onOff(prefs.Voice.Enabled), prefs.Voice.RemoteVoice))
	if c.voice != nil && c.voice.HasPending() {
		c.out.PrintHint("A coach message is waiting. Type 'play' to hear it.")
	}
}

func (c *Controller) help() {
	c.out.PrintChat("Commands:")
	for _, line := range helpLines {
		c.out.PrintInstruction(line)
	}
}

var helpLines = []string{
	"  start / pause / toggle   Run or stop the countdown",
	"  reset                    Restore the full length of this phase",
	"  skip                     End this phase now",
	"  phase focus|short|long   Switch phase",
	"  edit mm:ss               Change the time left (while paused)",
	"  set focus|short|long N   Phase length in minutes",
	"  set cycles N             Focus blocks before a long break",
	"  tip / summary            Ask the coach",
	"  ask <question>           Ask the coach anything",
	"  model <id>               Coach model",
	"  voice <id> / voice on|off  Relay voice",
	"  local-voice <name>       On-device voice ('default' for automatic)",
	"  local on|off             Generate coach text locally",
	"  voices                   List voices",
	"  play                     Play a waiting coach message",
	"  status / help / quit",
}

// ParseClock reads "mm:ss" or a plain number of seconds.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if m, sec, ok := strings.Cut(s, ":"); ok {
		minutes, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("engine: parse minutes: %w", err)
		}
		seconds, err := strconv.Atoi(sec)
		if err != nil {
			return 0, fmt.Errorf("engine: parse seconds: %w", err)
		}
		if minutes < 0 || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("engine: clock %q out of range", s)
		}
		return minutes*60 + seconds, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("engine: parse seconds: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("engine: negative time %d", n)
	}
	return n, nil
}

// FormatClock renders seconds as mm:ss. Minutes are not capped at 59.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress is the elapsed share of the current phase in percent.
func Progress(cfg domain.TimerConfig, s domain.TimerState) int {
	total := cfg.Seconds(s.Phase)
	if total <= 0 {
		return 0
	}
	elapsed := total - s.RemainingSeconds
	return domain.ClampInt(elapsed*100/total, 0, 100)
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
