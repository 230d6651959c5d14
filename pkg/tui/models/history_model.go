package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
)

// HistoryModel shows the latest submissions fragment. Each new fragment
// replaces the previous one entirely.
type HistoryModel struct {
	doc       *fragment.Document
	fetchedAt time.Time

	width  int
	height int

	searching bool
	search    textinput.Model
	filter    string

	vp viewport.Model
}

func NewHistoryModel() HistoryModel {
	search := textinput.New()
	search.Placeholder = "filter…"
	search.Prompt = "/ "
	search.CharLimit = 200

	m := HistoryModel{search: search}
	m.vp = viewport.New(0, 0)
	return m
}

func (m HistoryModel) WithSize(width, height int) HistoryModel {
	m.width, m.height = width, height
	m = m.resizeViewport()
	return m
}

// WithDocument replaces the displayed history.
func (m HistoryModel) WithDocument(doc *fragment.Document, at time.Time) HistoryModel {
	m.doc = doc
	m.fetchedAt = at
	m = m.refreshViewportContent()
	return m
}

func (m HistoryModel) Document() *fragment.Document {
	return m.doc
}

// Searching reports whether the filter input has the keyboard.
func (m HistoryModel) Searching() bool {
	return m.searching
}

func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch v.String() {
			case "esc":
				m.searching = false
				m.search.Blur()
				return m, nil
			case "enter":
				m.filter = strings.TrimSpace(m.search.Value())
				m.searching = false
				m.search.Blur()
				m = m.refreshViewportContent()
				return m, nil
			}

			var cmd tea.Cmd
			m.search, cmd = m.search.Update(v)
			return m, cmd
		}

		switch v.String() {
		case "/":
			m.searching = true
			m.search.SetValue(m.filter)
			m.search.CursorEnd()
			m.search.Focus()
			return m, nil
		case "ctrl+l":
			m.filter = ""
			m.search.SetValue("")
			m = m.refreshViewportContent()
			return m, nil
		}

		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(v)
		return m, cmd
	}
	return m, nil
}

func (m HistoryModel) View() string {
	theme := styles.DefaultTheme()

	var b strings.Builder
	header := theme.Title.Render("History")
	if !m.fetchedAt.IsZero() {
		header += theme.TitleMuted.Render(" (updated " + m.fetchedAt.Format("15:04:05") + ")")
	}
	if m.filter != "" {
		header += theme.TitleMuted.Render(fmt.Sprintf(" filter=%q", m.filter))
	}
	b.WriteString(header + "\n")

	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	if m.doc == nil {
		b.WriteString(theme.TitleMuted.Render("(waiting for the first update)") + "\n")
		return b.String()
	}
	if len(m.doc.Rows) == 0 {
		b.WriteString(theme.TitleMuted.Render("(no submissions)") + "\n")
		return b.String()
	}
	b.WriteString(m.vp.View())
	return b.String()
}

func (m HistoryModel) resizeViewport() HistoryModel {
	usableHeight := m.height - 3
	if usableHeight < 3 {
		usableHeight = 3
	}
	m.vp.Width = maxInt(0, m.width)
	m.vp.Height = usableHeight
	m = m.refreshViewportContent()
	return m
}

// VisibleRows returns the rows that pass the current filter.
func (m HistoryModel) VisibleRows() []fragment.Row {
	if m.doc == nil {
		return nil
	}
	if m.filter == "" {
		return m.doc.Rows
	}
	needle := strings.ToLower(m.filter)
	var out []fragment.Row
	for _, r := range m.doc.Rows {
		if strings.Contains(strings.ToLower(strings.Join(r.Cells, " ")), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (m HistoryModel) refreshViewportContent() HistoryModel {
	rows := m.VisibleRows()
	if len(rows) == 0 {
		m.vp.SetContent("")
		return m
	}
	theme := styles.DefaultTheme()

	widths := columnWidths(m.doc.Header, rows)
	lines := make([]string, 0, len(rows)+1)
	if len(m.doc.Header) > 0 {
		lines = append(lines, theme.TitleMuted.Render("  "+joinCells(m.doc.Header, widths)))
	}
	for _, r := range rows {
		line := styles.SubmissionIcon(r.Status) + " " + joinCells(r.Cells, widths)
		if !r.At.IsZero() {
			line += theme.TitleMuted.Render("  " + age(r.At))
		}
		lines = append(lines, theme.SubmissionStyle(r.Status).Render(line))
	}
	m.vp.SetContent(strings.Join(lines, "\n") + "\n")
	m.vp.GotoTop()
	return m
}

func columnWidths(header []string, rows []fragment.Row) []int {
	var widths []int
	grow := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	grow(header)
	for _, r := range rows {
		grow(r.Cells)
	}
	return widths
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c + strings.Repeat(" ", maxInt(0, widths[i]-lipgloss.Width(c)))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func age(t time.Time) string {
	d := time.Since(t).Round(time.Minute)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
