package models

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/go-go-golems/subwatch/pkg/relay"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/go-go-golems/subwatch/pkg/tui"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
	"github.com/go-go-golems/subwatch/pkg/tui/widgets"
)

type Options struct {
	Title      string
	Supervisor bool
	BaseURL    string
	RelayClass string

	// Submit posts the form (normal view). Relay fires an action link
	// (supervisor view).
	Submit func(submit.Form) error
	Relay  func(fragment.Link) bool
}

type pane int

const (
	paneHistory pane = iota
	paneBottom
)

const (
	headerLines = 2
	footerLines = 2
	formLines   = 7
	maxActions  = 12
)

type RootModel struct {
	opts Options

	width  int
	height int
	focus  pane

	title    string
	poll     tui.PollStatusMsg
	polled   bool
	unread   bool
	parseErr string

	// Bus delivery is unordered; events older than the last applied one
	// are dropped.
	pollAt     time.Time
	fragmentAt time.Time

	history HistoryModel
	form    FormModel
	actions ActionsModel
	footer  widgets.Footer
}

func NewRootModel(opts Options) RootModel {
	if opts.RelayClass == "" {
		opts.RelayClass = relay.DefaultClass
	}
	m := RootModel{
		opts:    opts,
		title:   opts.Title,
		history: NewHistoryModel(),
		form:    NewFormModel(opts.Submit),
		actions: NewActionsModel(opts.Relay),
		footer:  widgets.NewFooter(nil),
	}
	m.footer = m.footer.WithKeybinds(m.keybinds())
	return m.layout(80, 24)
}

// Title is the window title currently requested.
func (m RootModel) Title() string {
	return m.title
}

func (m RootModel) Init() tea.Cmd {
	return tea.SetWindowTitle(m.title)
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := v.Width, v.Height
		if w <= 0 {
			w = 80
		}
		if h <= 0 {
			h = 24
		}
		return m.layout(w, h), nil

	case tea.KeyMsg:
		return m.handleKey(v)

	case tui.PollStatusMsg:
		if v.At.Before(m.pollAt) {
			return m, nil
		}
		m.pollAt = v.At
		m.poll = v
		m.polled = true
		return m, nil

	case tui.FragmentMsg:
		if v.At.Before(m.fragmentAt) {
			return m, nil
		}
		m.fragmentAt = v.At
		doc, err := fragment.ParseString(v.Content)
		if err != nil {
			m.parseErr = err.Error()
			return m, nil
		}
		m.parseErr = ""
		m.unread = v.Blink
		m.history = m.history.WithDocument(doc, v.At)
		if m.opts.Supervisor {
			m.actions = m.actions.WithLinks(doc.LinksWithClass(m.opts.RelayClass))
			m = m.layout(m.width, m.height)
		}
		return m, nil

	case tui.TitleMsg:
		m.title = v.Title
		return m, tea.SetWindowTitle(v.Title)

	case tui.RelaySentMsg:
		var cmd tea.Cmd
		m.actions, cmd = m.actions.Update(v)
		return m, cmd

	case tui.SubmitFinishedMsg:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(v)
		return m, cmd
	}
	return m, nil
}

func (m RootModel) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus == paneHistory && m.history.Searching() {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(k)
		return m, cmd
	}

	switch k.String() {
	case "tab", "shift+tab":
		return m.toggleFocus(), nil
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch {
	case m.focus == paneHistory:
		m.history, cmd = m.history.Update(k)
	case m.opts.Supervisor:
		m.actions, cmd = m.actions.Update(k)
	default:
		m.form, cmd = m.form.Update(k)
	}
	return m, cmd
}

// typing reports whether keystrokes belong to a text field.
func (m RootModel) typing() bool {
	return m.focus == paneBottom && !m.opts.Supervisor
}

func (m RootModel) toggleFocus() RootModel {
	if m.focus == paneHistory {
		m.focus = paneBottom
		if !m.opts.Supervisor {
			m.form = m.form.Focus()
		}
	} else {
		m.focus = paneHistory
		m.form = m.form.Blur()
	}
	m.footer = m.footer.WithKeybinds(m.keybinds())
	return m
}

func (m RootModel) keybinds() []widgets.Keybind {
	binds := []widgets.Keybind{{Key: "tab", Desc: "switch pane"}}
	switch {
	case m.focus == paneHistory:
		binds = append(binds,
			widgets.Keybind{Key: "↑/↓", Desc: "scroll"},
			widgets.Keybind{Key: "/", Desc: "filter"},
			widgets.Keybind{Key: "q", Desc: "quit"},
		)
	case m.opts.Supervisor:
		binds = append(binds,
			widgets.Keybind{Key: "↑/↓", Desc: "select"},
			widgets.Keybind{Key: "enter", Desc: "send"},
			widgets.Keybind{Key: "y", Desc: "copy link"},
			widgets.Keybind{Key: "q", Desc: "quit"},
		)
	default:
		binds = append(binds,
			widgets.Keybind{Key: "enter", Desc: "next/submit"},
			widgets.Keybind{Key: "ctrl+c", Desc: "quit"},
		)
	}
	return binds
}

func (m RootModel) bottomLines() int {
	if !m.opts.Supervisor {
		return formLines
	}
	n := len(m.actions.links)
	if n > maxActions {
		n = maxActions
	}
	// Box border, title, a blank and the last-sent line.
	return maxInt(1, n) + 6
}

func (m RootModel) layout(w, h int) RootModel {
	m.width, m.height = w, h
	bottom := m.bottomLines()
	m.history = m.history.WithSize(w, maxInt(3, h-headerLines-footerLines-bottom))
	m.form = m.form.WithWidth(w)
	m.actions = m.actions.WithSize(w, bottom)
	m.footer = m.footer.WithWidth(w)
	return m
}

func (m RootModel) View() string {
	theme := styles.DefaultTheme()

	sections := []string{m.renderHeader(theme), m.history.View()}
	if m.opts.Supervisor {
		sections = append(sections, m.actions.View())
	} else {
		sections = append(sections, m.form.View())
	}
	sections = append(sections, m.footer.Render())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RootModel) renderHeader(theme styles.Theme) string {
	mode := "submissions"
	if m.opts.Supervisor {
		mode = "supervisor"
	}

	parts := []string{
		theme.Title.Render(m.opts.Title),
		theme.TitleMuted.Render(mode + " @ " + m.opts.BaseURL),
	}

	icon := styles.PollIcon(m.polled, m.poll.Ok)
	switch {
	case !m.polled:
		parts = append(parts, theme.TitleMuted.Render(icon+" connecting"))
	case m.poll.Ok:
		parts = append(parts, theme.StatusRunning.Render(fmt.Sprintf("%s cursor %d", icon, m.poll.Cursor)))
	default:
		parts = append(parts, theme.StatusDead.Render(fmt.Sprintf("%s poll failed, retry in %s", icon, m.poll.RetryIn)))
	}

	if m.opts.Supervisor && m.unread {
		parts = append(parts, theme.StatusNew.Render(styles.IconNew+" new submissions"))
	}

	line := strings.Join(parts, "  ")
	status := ""
	switch {
	case m.parseErr != "":
		status = theme.StatusDead.Render(styles.IconWarning + " " + m.parseErr)
	case m.polled && !m.poll.Ok:
		status = theme.TitleMuted.Render(m.poll.Error)
	}
	return line + "\n" + status
}
