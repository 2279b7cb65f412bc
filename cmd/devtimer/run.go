package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/devtimer/internal/coach"
	"github.com/hammamikhairi/devtimer/internal/config"
	"github.com/hammamikhairi/devtimer/internal/conversation"
	"github.com/hammamikhairi/devtimer/internal/display"
	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/engine"
	"github.com/hammamikhairi/devtimer/internal/logger"
	"github.com/hammamikhairi/devtimer/internal/relay"
	"github.com/hammamikhairi/devtimer/internal/speech"
	"github.com/hammamikhairi/devtimer/internal/storage"
	"github.com/hammamikhairi/devtimer/internal/timer"
)

// runFlags are the timer-only flags.
type runFlags struct {
	relayURL    string
	settings    string
	cacheDir    string
	diskCache   bool
	noSpeech    bool
	noLocal     bool
	requirePlay bool
	noWatch     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.relayURL, "relay-url", "", "relay base URL; overrides the config and "+config.EnvRelayURL)
	fl.StringVar(&f.settings, "settings", "", "settings file; defaults to the user config directory")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "directory for the speech audio cache")
	fl.BoolVar(&f.diskCache, "disk-cache", true, "write synthesized audio to the cache directory")
	fl.BoolVar(&f.noSpeech, "no-speech", false, "never speak coach messages")
	fl.BoolVar(&f.noLocal, "no-local-speech", false, "do not fall back to an on-device speech program")
	fl.BoolVar(&f.requirePlay, "require-play", false, "hold relay audio until 'play' is typed once")
	fl.BoolVar(&f.noWatch, "no-watch", false, "do not reload the settings file when it changes on disk")
}

func runTimer(cmd *cobra.Command, g *globalFlags, rf *runFlags) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	cc := cfg.Client
	if rf.relayURL != "" {
		cc.RelayURL = rf.relayURL
	}
	if rf.cacheDir != "" {
		cc.CacheDir = rf.cacheDir
	}
	if cmd.Flags().Changed("disk-cache") {
		cc.DiskCache = rf.diskCache
	}
	if rf.settings != "" {
		cc.SettingsPath = rf.settings
	}

	// Logs go to a file by default so the prompt stays clean.
	log, closeLog := openLog(g, cc.LogFile, cc.LogLevel)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Settings: YAML file, writes debounced.
	settingsPath := cc.SettingsPath
	if settingsPath == "" {
		if settingsPath, err = storage.DefaultSettingsPath(appName); err != nil {
			return err
		}
	}
	file, err := storage.OpenFileStore(settingsPath, log.Named("settings"))
	if err != nil {
		return err
	}
	store := storage.NewDebounced(file, cc.SaveDebounce, log.Named("settings"))
	defer store.Close(context.Background())

	relayClient := relay.NewClient(cc.RelayURL, log.Named("relay"), relay.WithHTTPTimeout(cc.FeedbackTimeout))
	coachSvc := coach.New(relayClient, log.Named("coach"))

	// The status source for the UI is the timer, built below; the UI only
	// polls it after Run starts.
	var t *timer.Timer
	var voice *speech.Coordinator
	ui := display.NewUI(timerSource{&t}, display.WithPendingAudio(func() bool {
		return voice != nil && voice.HasPending()
	}))
	notifier := conversation.NewCLINotifier(log, func(format string, a ...any) {
		ui.Println(fmt.Sprintf(format, a...))
	})

	var speaker domain.Speaker = speech.NewNoOp(log)
	if !rf.noSpeech {
		voice = buildVoice(ctx, store, relayClient, cc, rf, log.Named("speech"))
		speaker = voice
	}
	announcer := speech.NewSpeakingAnnouncer(notifier, speaker, log)

	t = timer.New(domain.DefaultTimerConfig(), domain.Preferences{
		Voice: domain.DefaultVoicePreferences(),
		Coach: domain.DefaultCoachPreferences(),
	}, coachSvc, announcer, log.Named("timer"),
		timer.WithTickInterval(cc.TickInterval),
		timer.WithRestartDelay(cc.RestartDelay),
		timer.WithFeedbackTimeout(cc.FeedbackTimeout),
	)

	var opts []engine.Option
	if voice != nil {
		opts = append(opts, engine.WithVoice(voice))
	}
	ctrl := engine.New(t, store, coachSvc, announcer, ui, log.Named("engine"), opts...)
	ctrl.Restore(ctx)

	recorder := timer.NewRecorder(t, store, log.Named("recorder"))
	go recorder.Run(ctx)
	go t.Run(ctx)

	if !rf.noWatch {
		go func() {
			err := file.Watch(ctx, storage.DefaultDebounce, func() {
				log.Info("settings changed on disk, reloading")
				ctrl.Reload(ctx)
			})
			if err != nil {
				log.Warn("settings watch stopped: %v", err)
			}
		}()
	}

	go checkRelay(ctx, relayClient, log)

	fmt.Println(display.StartupBanner(
		"Type 'help' for commands, 'quit' to exit.",
		"Try it: 'set focus 1' then 'start' for a one-minute demo.",
	))

	app := &cliApp{
		ctrl:   ctrl,
		parser: conversation.NewKeywordParser(log),
		ui:     ui,
		log:    log,
	}
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	t.Wait()
	<-recorder.Done()
	if voice != nil {
		voice.Stop()
	}
	store.Flush(context.Background())
	return nil
}

// buildVoice wires relay speech through the audio player with the
// on-device program as fallback.
func buildVoice(ctx context.Context, store domain.SettingsStore, synth speech.Synthesizer, cc config.ClientConfig, rf *runFlags, log *logger.Logger) *speech.Coordinator {
	primed := storage.Value(ctx, store, storage.KeyAudioPrimed, false, log)
	player := speech.NewPlayer(log, speech.WithAutoplay(primed || !rf.requirePlay))
	cache := speech.NewAudioCache(cc.CacheDir, cc.DiskCache, log)
	remote := speech.NewRemoteVoice(synth, cache, player, log)

	var local *speech.LocalVoice
	if !rf.noLocal {
		prog, err := speech.DetectEngine(log)
		if err != nil {
			log.Info("no on-device speech program found (%v)", err)
		} else {
			local = speech.NewLocalVoice(prog, log)
		}
	}

	return speech.NewCoordinator(remote, local, log,
		speech.WithPendingHook(func(pending bool) {
			log.Debug("pending audio: %t", pending)
		}),
		speech.WithPrimedHook(func() {
			player.SetAutoplay(true)
			storage.Put(ctx, store, storage.KeyAudioPrimed, true, log)
		}),
	)
}

func checkRelay(ctx context.Context, c *relay.Client, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		log.Warn("relay %s not reachable, coach will use fallback messages: %v", c.BaseURL(), err)
		return
	}
	log.Info("relay %s is up", c.BaseURL())
}

// timerSource lets the UI be built before the timer it displays.
type timerSource struct {
	t **timer.Timer
}

func (s timerSource) Snapshot() domain.TimerState { return (*s.t).Snapshot() }
func (s timerSource) Config() domain.TimerConfig  { return (*s.t).Config() }

type cliApp struct {
	ctrl   *engine.Controller
	parser domain.IntentParser
	ui     *display.UI
	log    *logger.Logger
}

func (a *cliApp) run(ctx context.Context) {
	uiCh := a.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case v, ok := <-uiCh:
			if !ok {
				return
			}
			input = strings.TrimSpace(v)
		}
		if input == "" {
			continue
		}

		intent, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		if a.ctrl.Handle(ctx, intent) {
			a.ui.PrintHint("Bye. Keep the momentum.")
			return
		}
	}
}
