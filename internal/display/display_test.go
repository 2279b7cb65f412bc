package display

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/hammamikhairi/devtimer/internal/domain"
)

type fixedSource struct {
	state domain.TimerState
	cfg   domain.TimerConfig
}

func (f fixedSource) Snapshot() domain.TimerState { return f.state }
func (f fixedSource) Config() domain.TimerConfig  { return f.cfg }

func newModel(src StatusSource, pending bool) model {
	m := model{source: src, pending: func() bool { return pending }, input: textinput.New(), width: 120}
	m.refresh()
	return m
}

func TestStatusBar(t *testing.T) {
	src := fixedSource{
		state: domain.TimerState{Phase: domain.PhaseShortBreak, RemainingSeconds: 150, Running: true, CompletedFocus: 3},
		cfg:   domain.DefaultTimerConfig(),
	}
	bar := newModel(src, false).renderBar()

	assert.Contains(t, bar, "Short Break")
	assert.Contains(t, bar, "02:30")
	assert.Contains(t, bar, "running")
	assert.Contains(t, bar, "50%")
	assert.Contains(t, bar, "done: 3")
}

func TestPendingHint(t *testing.T) {
	src := fixedSource{state: domain.TimerState{RemainingSeconds: 1500}, cfg: domain.DefaultTimerConfig()}

	assert.NotContains(t, newModel(src, false).View(), "type 'play'")
	assert.Contains(t, newModel(src, true).View(), "type 'play'")
	assert.Equal(t, "DevTimer · Focus 25:00", newModel(src, false).status.title())
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░", progressBar(0, 4))
	assert.Equal(t, "██░░", progressBar(50, 4))
	assert.Equal(t, "████", progressBar(100, 4))
}

func TestBannerCentresArtAndListsHints(t *testing.T) {
	out := Banner(120, "Type 'help' for commands.")
	lines := strings.Split(out, "\n")
	assert.Equal(t, 120, lipgloss.Width(lines[0]))
	assert.Contains(t, out, "  Type 'help' for commands.")

	artWidth := lipgloss.Width(BannerStyle.Render(strings.TrimRight(bannerArt, "\n")))
	narrow := strings.Split(Banner(10), "\n")
	assert.Equal(t, artWidth, lipgloss.Width(narrow[0]), "no padding when the art is wider than the terminal")
}
