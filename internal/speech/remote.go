package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Synthesizer turns text into MP3 audio. relay.Client satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Compile-time interface check.
var _ Backend = (*RemoteVoice)(nil)

// RemoteVoice speaks through the relay's text-to-speech endpoint.
type RemoteVoice struct {
	synth  Synthesizer
	cache  *AudioCache
	player AudioSink
	log    *logger.Logger
}

// NewRemoteVoice creates the relay backend. cache may be nil.
func NewRemoteVoice(synth Synthesizer, cache *AudioCache, player AudioSink, log *logger.Logger) *RemoteVoice {
	return &RemoteVoice{
		synth:  synth,
		cache:  cache,
		player: player,
		log:    log,
	}
}

func (r *RemoteVoice) backend() {}

// Name identifies the backend in logs.
func (r *RemoteVoice) Name() string { return "relay" }

// Speak synthesizes text (or reuses cached audio) and starts playback. A
// playback refusal is returned as *BlockedError carrying the audio.
func (r *RemoteVoice) Speak(ctx context.Context, text string, prefs domain.VoicePreferences) error {
	voice := prefs.RemoteVoice
	if !domain.IsRemoteVoice(voice) {
		voice = domain.DefaultRemoteVoice
	}

	audio, err := r.synthesize(ctx, text, voice)
	if err != nil {
		return err
	}

	if err := r.player.Play(audio, false); err != nil {
		if errors.Is(err, domain.ErrPlaybackBlocked) {
			return &BlockedError{Audio: audio, Err: err}
		}
		return err
	}
	return nil
}

// Stop halts the current clip.
func (r *RemoteVoice) Stop() {
	r.player.StopAndRelease()
}

// Replay plays audio in response to an explicit user request.
func (r *RemoteVoice) Replay(audio []byte) error {
	return r.player.Play(audio, true)
}

func (r *RemoteVoice) synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if r.cache != nil {
		if audio, ok := r.cache.Get(voice, text); ok {
			return audio, nil
		}
	}

	r.log.Debug("relay tts: synthesizing %d chars with voice %s", len(text), voice)
	audio, err := r.synth.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}

	if r.cache != nil {
		r.cache.Put(voice, text, audio)
	}
	return audio, nil
}
