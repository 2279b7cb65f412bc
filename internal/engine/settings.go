package engine

import (
	"context"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/storage"
)

// LoadTimerConfig reads the durations from store, falling back field by
// field to the defaults, and normalizes the result.
func LoadTimerConfig(ctx context.Context, store domain.SettingsStore, log *logger.Logger) domain.TimerConfig {
	def := domain.DefaultTimerConfig()
	cfg := domain.TimerConfig{
		FocusMinutes:      storage.Value(ctx, store, storage.KeyFocusMinutes, def.FocusMinutes, log),
		ShortBreakMinutes: storage.Value(ctx, store, storage.KeyShortBreakMinutes, def.ShortBreakMinutes, log),
		LongBreakMinutes:  storage.Value(ctx, store, storage.KeyLongBreakMinutes, def.LongBreakMinutes, log),
		CyclesUntilLong:   storage.Value(ctx, store, storage.KeyCyclesUntilLong, def.CyclesUntilLong, log),
	}
	return cfg.Normalize()
}

// SaveTimerConfig writes every duration field.
func SaveTimerConfig(ctx context.Context, store domain.SettingsStore, cfg domain.TimerConfig, log *logger.Logger) {
	storage.Put(ctx, store, storage.KeyFocusMinutes, cfg.FocusMinutes, log)
	storage.Put(ctx, store, storage.KeyShortBreakMinutes, cfg.ShortBreakMinutes, log)
	storage.Put(ctx, store, storage.KeyLongBreakMinutes, cfg.LongBreakMinutes, log)
	storage.Put(ctx, store, storage.KeyCyclesUntilLong, cfg.CyclesUntilLong, log)
}

// LoadPreferences reads voice and coach preferences. An unknown relay voice
// falls back to the default one.
func LoadPreferences(ctx context.Context, store domain.SettingsStore, log *logger.Logger) domain.Preferences {
	voice := domain.DefaultVoicePreferences()
	coach := domain.DefaultCoachPreferences()

	voice.Enabled = storage.Value(ctx, store, storage.KeyVoiceEnabled, voice.Enabled, log)
	voice.RemoteVoice = storage.Value(ctx, store, storage.KeyRemoteVoice, voice.RemoteVoice, log)
	if !domain.IsRemoteVoice(voice.RemoteVoice) {
		log.Debug("settings: unknown relay voice %q, using %s", voice.RemoteVoice, domain.DefaultRemoteVoice)
		voice.RemoteVoice = domain.DefaultRemoteVoice
	}
	voice.LocalVoice = storage.Value(ctx, store, storage.KeyLocalVoice, "", log)

	coach.Model = storage.Value(ctx, store, storage.KeyModel, coach.Model, log)
	if coach.Model == "" {
		coach.Model = domain.DefaultModel
	}
	coach.LocalGeneration = storage.Value(ctx, store, storage.KeyLocalGeneration, false, log)

	return domain.Preferences{Voice: voice, Coach: coach}
}

// Position is the persisted timer position.
type Position struct {
	Phase          domain.Phase
	SecondsLeft    int
	CompletedFocus int
}

// LoadPosition reads the saved position. A missing seconds value means the
// full length of the saved phase.
func LoadPosition(ctx context.Context, store domain.SettingsStore, cfg domain.TimerConfig, log *logger.Logger) Position {
	phase := storage.Value(ctx, store, storage.KeyPhase, domain.PhaseFocus, log)
	return Position{
		Phase:          phase,
		SecondsLeft:    storage.Value(ctx, store, storage.KeySecondsLeft, cfg.Seconds(phase), log),
		CompletedFocus: storage.Value(ctx, store, storage.KeyCompletedFocus, 0, log),
	}
}
