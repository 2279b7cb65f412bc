package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerArt string

// Banner renders the logo block centred in width columns, followed by the
// hint lines left-aligned under it.
func Banner(width int, hints ...string) string {
	art := strings.TrimRight(bannerArt, "\n")
	block := BannerStyle.Render(art)
	if width > lipgloss.Width(block) {
		block = lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
	}

	var b strings.Builder
	b.WriteString(block)
	b.WriteString("\n\n")
	for _, h := range hints {
		b.WriteString(BannerStyle.Render("  " + h))
		b.WriteByte('\n')
	}
	return b.String()
}

// StartupBanner is Banner sized to stdout, 80 columns when that is not a
// terminal.
func StartupBanner(hints ...string) string {
	width := 80
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}
	return Banner(width, hints...)
}
