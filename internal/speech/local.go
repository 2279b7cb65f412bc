package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Voice is one on-device voice.
type Voice struct {
	Name string
	Lang string
}

// Engine is an on-device speech synthesizer.
type Engine interface {
	Name() string
	Voices(ctx context.Context) ([]Voice, error)
	// Start begins speaking text with the named voice ("" = engine
	// default) and returns without waiting for it to finish.
	Start(text, voice string) (Utterance, error)
}

// Utterance is speech in progress.
type Utterance interface {
	Cancel()
	Done() <-chan struct{}
}

// DetectEngine returns the first speech program found on PATH.
func DetectEngine(log *logger.Logger) (Engine, error) {
	for _, prog := range localPrograms {
		path, err := exec.LookPath(prog)
		if err != nil {
			continue
		}
		log.Debug("local speech: using %s", path)
		return &execEngine{path: path, program: prog, log: log}, nil
	}
	return nil, domain.ErrNoSpeech
}

// Compile-time interface check.
var _ Backend = (*LocalVoice)(nil)

// LocalVoice speaks with an on-device engine. Only one utterance runs at a
// time; a new one cancels the previous.
type LocalVoice struct {
	engine Engine
	log    *logger.Logger

	mu      sync.Mutex
	current Utterance
	voices  []Voice
	loaded  bool
}

// NewLocalVoice wraps an engine. engine may be nil, in which case Speak
// reports ErrNoSpeech.
func NewLocalVoice(engine Engine, log *logger.Logger) *LocalVoice {
	return &LocalVoice{engine: engine, log: log}
}

func (l *LocalVoice) backend() {}

// Name identifies the backend in logs.
func (l *LocalVoice) Name() string {
	if l.engine == nil {
		return "local(none)"
	}
	return "local(" + l.engine.Name() + ")"
}

// Voices lists the engine's voices. The list is loaded once.
func (l *LocalVoice) Voices(ctx context.Context) ([]Voice, error) {
	if l.engine == nil {
		return nil, domain.ErrNoSpeech
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return l.voices, nil
	}
	voices, err := l.engine.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech: list voices: %w", err)
	}
	l.voices = voices
	l.loaded = true
	return voices, nil
}

// Speak cancels whatever is being said and starts text.
func (l *LocalVoice) Speak(ctx context.Context, text string, prefs domain.VoicePreferences) error {
	if l.engine == nil {
		return domain.ErrNoSpeech
	}

	voice := ""
	if voices, err := l.Voices(ctx); err != nil {
		l.log.Debug("local speech: %v", err)
	} else {
		voice = ResolveVoice(voices, prefs.LocalVoice)
	}

	l.Stop()

	utt, err := l.engine.Start(text, voice)
	if err != nil {
		return fmt.Errorf("speech: %s: %w", l.engine.Name(), err)
	}

	l.mu.Lock()
	l.current = utt
	l.mu.Unlock()

	l.log.Debug("local speech: speaking %d chars (voice=%q)", len(text), voice)
	return nil
}

// Stop cancels the current utterance.
func (l *LocalVoice) Stop() {
	l.mu.Lock()
	current := l.current
	l.current = nil
	l.mu.Unlock()

	if current != nil {
		current.Cancel()
	}
}

// MatchVoice finds name among voices, ignoring case.
func MatchVoice(voices []Voice, name string) (Voice, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Voice{}, false
	}
	for _, v := range voices {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Voice{}, false
}

// PreferredVoice picks the default voice when none is chosen: the first
// one whose name looks like a pleasant preset, else the first voice.
func PreferredVoice(voices []Voice) string {
	for _, v := range voices {
		if preferredVoice.MatchString(v.Name) {
			return v.Name
		}
	}
	if len(voices) > 0 {
		return voices[0].Name
	}
	return ""
}

// ResolveVoice returns the voice name to use for the requested one. An
// empty request picks PreferredVoice; an unknown name falls back to the
// engine default ("").
func ResolveVoice(voices []Voice, requested string) string {
	if strings.TrimSpace(requested) == "" {
		return PreferredVoice(voices)
	}
	if v, ok := MatchVoice(voices, requested); ok {
		return v.Name
	}
	return ""
}

// ── exec engine ──────────────────────────────────────────────────

type execEngine struct {
	path    string
	program string
	log     *logger.Logger
}

func (e *execEngine) Name() string { return e.program }

func (e *execEngine) Voices(ctx context.Context) ([]Voice, error) {
	var args []string
	if e.program == "say" {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}
	out, err := exec.CommandContext(ctx, e.path, args...).Output()
	if err != nil {
		return nil, err
	}
	if e.program == "say" {
		return parseSayVoices(out), nil
	}
	return parseEspeakVoices(out), nil
}

func (e *execEngine) Start(text, voice string) (Utterance, error) {
	cmd := exec.Command(e.path, speakArgs(e.program, text, voice)...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	u := &execUtterance{cmd: cmd, log: e.log, done: make(chan struct{})}
	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Debug("local speech: %s exited: %v", e.program, err)
		}
		close(u.done)
	}()
	return u, nil
}

// speakArgs builds the argv for one utterance. espeak treats a leading
// dash as an option, so the text goes after "--".
func speakArgs(program, text, voice string) []string {
	var args []string
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if program != "say" {
		args = append(args, "--")
	}
	return append(args, text)
}

type execUtterance struct {
	cmd  *exec.Cmd
	log  *logger.Logger
	done chan struct{}
}

func (u *execUtterance) Cancel() {
	select {
	case <-u.done:
	default:
		if err := u.cmd.Process.Kill(); err != nil {
			u.log.Debug("local speech: kill: %v", err)
		}
	}
}

func (u *execUtterance) Done() <-chan struct{} { return u.done }

// parseEspeakVoices reads `espeak --voices` output:
//
//	Pty Language Age/Gender VoiceName File Other Languages
//	 5  af       --/M       Afrikaans gmw/af
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Lang: fields[1]})
	}
	return voices
}

// parseSayVoices reads `say -v ?` output:
//
//	Alex                en_US    # Most people recognize me by my voice.
//	Bad News            en_US    # The light you see at the end of the tunnel...
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{Name: name, Lang: lang})
	}
	return voices
}
