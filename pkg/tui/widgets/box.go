package widgets

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
)

// Box is a rounded border with a title line.
type Box struct {
	Title      string
	TitleRight string
	Content    string
	Width      int
	Height     int
	theme      styles.Theme
}

func NewBox(title string) Box {
	return Box{Title: title, theme: styles.DefaultTheme()}
}

func (b Box) WithTitleRight(s string) Box {
	b.TitleRight = s
	return b
}

func (b Box) WithContent(s string) Box {
	b.Content = s
	return b
}

// WithSize sets the outer size including the border.
func (b Box) WithSize(w, h int) Box {
	b.Width, b.Height = w, h
	return b
}

func (b Box) Render() string {
	theme := b.theme
	inner := b.Width - 4
	if inner < 10 {
		inner = 10
	}

	title := theme.Title.Render(b.Title)
	if b.TitleRight != "" {
		right := theme.TitleMuted.Render(b.TitleRight)
		gap := inner - lipgloss.Width(title) - lipgloss.Width(right)
		if gap < 1 {
			gap = 1
		}
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, lipgloss.NewStyle().Width(gap).Render(""), right)
	}

	style := theme.Border.Padding(0, 1).Width(inner + 2)
	if b.Height > 2 {
		style = style.Height(b.Height - 2)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, b.Content))
}
