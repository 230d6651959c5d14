package models

import (
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/go-go-golems/subwatch/pkg/tui"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
	"github.com/go-go-golems/subwatch/pkg/tui/widgets"
)

// ActionsModel lists the relayable links of the supervisor fragment.
// Activating one fires its request without leaving the view.
type ActionsModel struct {
	links  []fragment.Link
	cursor int
	relay  func(fragment.Link) bool

	last    string
	lastErr bool
	copied  string

	width  int
	height int
}

func NewActionsModel(relay func(fragment.Link) bool) ActionsModel {
	return ActionsModel{relay: relay}
}

func (m ActionsModel) WithSize(width, height int) ActionsModel {
	m.width, m.height = width, height
	return m
}

// WithLinks replaces the link list, keeping the cursor in range.
func (m ActionsModel) WithLinks(links []fragment.Link) ActionsModel {
	m.links = links
	if m.cursor >= len(m.links) {
		m.cursor = len(m.links) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m ActionsModel) Selected() (fragment.Link, bool) {
	if len(m.links) == 0 {
		return fragment.Link{}, false
	}
	return m.links[m.cursor], true
}

func (m ActionsModel) Update(msg tea.Msg) (ActionsModel, tea.Cmd) {
	switch v := msg.(type) {
	case tui.RelaySentMsg:
		m.last = v.Href
		m.lastErr = v.Error != ""
		return m, nil
	case tea.KeyMsg:
		switch v.String() {
		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = 0
			}
			return m, nil
		case "down", "j":
			m.cursor++
			if m.cursor >= len(m.links) {
				m.cursor = maxInt(0, len(m.links)-1)
			}
			return m, nil
		case "enter":
			if link, ok := m.Selected(); ok && m.relay != nil {
				m.relay(link)
			}
			return m, nil
		case "y":
			if link, ok := m.Selected(); ok {
				if err := clipboard.WriteAll(link.Href); err == nil {
					m.copied = link.Href
				}
			}
			return m, nil
		}
	}
	return m, nil
}

func (m ActionsModel) View() string {
	theme := styles.DefaultTheme()

	var lines []string
	if len(m.links) == 0 {
		lines = append(lines, theme.TitleMuted.Render("(no actions)"))
	}

	// Keep the cursor visible when there are more links than lines.
	visible := maxInt(1, m.height-4)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.links) && i < start+visible; i++ {
		l := m.links[i]
		name := l.Text
		if name == "" {
			name = l.Href
		}
		href := theme.TitleMuted.Render("  " + l.Href)
		if i == m.cursor {
			lines = append(lines, theme.Selected.Render(styles.IconRunning+" "+name)+href)
			continue
		}
		lines = append(lines, "  "+name+href)
	}

	if m.last != "" {
		icon := theme.StatusRunning.Render(styles.IconSuccess)
		if m.lastErr {
			icon = theme.StatusDead.Render(styles.IconError)
		}
		lines = append(lines, "", icon+theme.TitleMuted.Render(" sent "+m.last))
	}
	if m.copied != "" {
		lines = append(lines, theme.TitleMuted.Render("copied "+m.copied))
	}

	return widgets.NewBox("Actions").
		WithTitleRight("[↑/↓] select  [enter] send  [y] copy").
		WithContent(strings.Join(lines, "\n")).
		WithSize(m.width, 0).
		Render()
}
