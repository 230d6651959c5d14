package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
)

// Footer renders a styled keybindings bar.
type Footer struct {
	Keybinds []Keybind
	Width    int
	theme    styles.Theme
}

// NewFooter creates a new footer.
func NewFooter(keybinds []Keybind) Footer {
	return Footer{
		Keybinds: keybinds,
		theme:    styles.DefaultTheme(),
	}
}

// WithWidth sets the footer width.
func (f Footer) WithWidth(w int) Footer {
	f.Width = w
	return f
}

// WithKeybinds swaps the bindings shown for the focused pane.
func (f Footer) WithKeybinds(binds []Keybind) Footer {
	f.Keybinds = binds
	return f
}

// Render returns the styled footer as a string.
func (f Footer) Render() string {
	theme := f.theme

	width := f.Width
	if width <= 0 {
		width = 80
	}
	separator := lipgloss.NewStyle().
		Foreground(theme.Muted).
		Render(strings.Repeat("━", width))

	keybindsLine := RenderKeybinds(f.Keybinds, theme)

	keybindsWidth := lipgloss.Width(keybindsLine)
	padding := (width - keybindsWidth) / 2
	if padding < 0 {
		padding = 0
	}
	paddedKeybinds := lipgloss.NewStyle().PaddingLeft(padding).Render(keybindsLine)

	return lipgloss.JoinVertical(lipgloss.Left, separator, paddedKeybinds)
}

