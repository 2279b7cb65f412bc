package speech

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// AudioSink plays encoded audio. Player is the real implementation.
type AudioSink interface {
	// Play starts playback and returns without waiting for it to finish.
	// gesture marks an explicit user request, which bypasses the autoplay
	// setting.
	Play(audio []byte, gesture bool) error
	StopAndRelease()
}

// Compile-time interface check.
var _ AudioSink = (*Player)(nil)

// PlayerOption configures the Player.
type PlayerOption func(*Player)

// WithAutoplay sets whether audio may start without an explicit request.
func WithAutoplay(enabled bool) PlayerOption {
	return func(p *Player) { p.autoplay = enabled }
}

// WithSampleRate sets the rate of the audio context.
func WithSampleRate(rate int) PlayerOption {
	return func(p *Player) { p.sampleRate = rate }
}

// Player decodes MP3 and plays it through oto. It owns at most one active
// playback handle; starting a new clip stops and releases the previous one.
type Player struct {
	log        *logger.Logger
	sampleRate int

	once   sync.Once
	ctx    *oto.Context
	ctxErr error

	mu       sync.Mutex
	autoplay bool
	active   *oto.Player
}

// NewPlayer creates a player. The audio device is opened on first use, so a
// machine without sound only fails when something is actually played.
func NewPlayer(log *logger.Logger, opts ...PlayerOption) *Player {
	p := &Player{
		log:        log,
		sampleRate: DefaultSampleRate,
		autoplay:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetAutoplay changes the autoplay setting at runtime.
func (p *Player) SetAutoplay(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoplay = enabled
}

// Play decodes audio and starts it. Non-blocking.
func (p *Player) Play(audio []byte, gesture bool) error {
	p.mu.Lock()
	autoplay := p.autoplay
	p.mu.Unlock()

	if !autoplay && !gesture {
		return fmt.Errorf("autoplay disabled: %w", domain.ErrPlaybackBlocked)
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("speech: decode mp3: %w", err)
	}

	octx, err := p.context()
	if err != nil {
		return fmt.Errorf("audio device unavailable (%v): %w", err, domain.ErrPlaybackBlocked)
	}
	if dec.SampleRate() != p.sampleRate {
		p.log.Warn("audio player: clip is %d Hz, device opened at %d Hz", dec.SampleRate(), p.sampleRate)
	}

	p.StopAndRelease()

	player := octx.NewPlayer(dec)

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of mp3", len(audio))

	go p.releaseWhenDone(player)
	return nil
}

// StopAndRelease stops the active clip, if any, and frees its handle. Safe
// to call concurrently and when nothing is playing.
func (p *Player) StopAndRelease() {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.mu.Unlock()

	if active == nil {
		return
	}
	active.Pause()
	if err := active.Close(); err != nil {
		p.log.Debug("audio player: close: %v", err)
	}
	p.log.Debug("audio player: interrupted")
}

// releaseWhenDone frees player once it finishes, unless a newer clip has
// already replaced it.
func (p *Player) releaseWhenDone(player *oto.Player) {
	for player.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != player {
		return
	}
	p.active = nil
	if err := player.Close(); err != nil {
		p.log.Debug("audio player: close: %v", err)
	}
}

// context opens the audio device once.
func (p *Player) context() (*oto.Context, error) {
	p.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   p.sampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			p.ctxErr = err
			return
		}
		<-ready
		p.ctx = ctx
		p.log.Debug("audio player initialized (rate=%d, channels=%d)", p.sampleRate, ChannelCount)
	})
	return p.ctx, p.ctxErr
}
