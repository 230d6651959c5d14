package models

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/go-go-golems/subwatch/pkg/tui"
	"github.com/go-go-golems/subwatch/pkg/tui/styles"
	"github.com/go-go-golems/subwatch/pkg/tui/widgets"
)

const (
	fieldTeam = iota
	fieldCode
)

// FormModel is the submission form. While a submission is outstanding the
// submit control is disabled; when it finishes, whatever the outcome, the
// control is enabled again and the form is cleared.
type FormModel struct {
	team textinput.Model
	code textinput.Model

	field   int
	focused bool
	busy    bool
	errs    submit.FieldErrors

	submit func(submit.Form) error
	width  int
}

func NewFormModel(submitFn func(submit.Form) error) FormModel {
	team := textinput.New()
	team.Prompt = "Team: "
	team.Placeholder = "team name"
	team.CharLimit = 100

	code := textinput.New()
	code.Prompt = "Code: "
	code.Placeholder = "path to source file"
	code.CharLimit = 1024

	return FormModel{team: team, code: code, submit: submitFn}
}

func (m FormModel) WithWidth(w int) FormModel {
	m.width = w
	inputWidth := maxInt(10, w-16)
	m.team.Width = inputWidth
	m.code.Width = inputWidth
	return m
}

func (m FormModel) Focus() FormModel {
	m.focused = true
	return m.focusField(m.field)
}

func (m FormModel) Blur() FormModel {
	m.focused = false
	m.team.Blur()
	m.code.Blur()
	return m
}

func (m FormModel) Busy() bool {
	return m.busy
}

func (m FormModel) Errors() submit.FieldErrors {
	return m.errs
}

func (m FormModel) Form() submit.Form {
	return submit.Form{TeamName: m.team.Value(), CodeFile: m.code.Value()}
}

func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch v := msg.(type) {
	case tui.SubmitFinishedMsg:
		m.busy = false
		m.errs = nil
		m.team.Reset()
		m.code.Reset()
		if m.focused {
			m = m.focusField(fieldTeam)
		}
		return m, nil
	case tea.KeyMsg:
		switch v.String() {
		case "up":
			return m.focusField(fieldTeam), nil
		case "down":
			return m.focusField(fieldCode), nil
		case "enter":
			if m.field == fieldTeam {
				return m.focusField(fieldCode), nil
			}
			return m.trySubmit()
		case "ctrl+s":
			return m.trySubmit()
		}

		var cmd tea.Cmd
		if m.field == fieldTeam {
			m.team, cmd = m.team.Update(v)
		} else {
			m.code, cmd = m.code.Update(v)
		}
		return m, cmd
	}
	return m, nil
}

func (m FormModel) trySubmit() (FormModel, tea.Cmd) {
	if m.busy || m.submit == nil {
		return m, nil
	}
	form := m.Form()
	if errs := form.Validate(); errs != nil {
		m.errs = errs
		if errs.Has(submit.FieldTeamName) {
			m = m.focusField(fieldTeam)
		}
		return m, nil
	}
	m.errs = nil
	m.busy = true
	submitFn := m.submit
	return m, func() tea.Msg {
		return tui.SubmitFinishedMsg{Form: form, Err: submitFn(form)}
	}
}

func (m FormModel) focusField(field int) FormModel {
	m.field = field
	if !m.focused {
		return m
	}
	if field == fieldTeam {
		m.code.Blur()
		m.team.Focus()
	} else {
		m.team.Blur()
		m.code.Focus()
	}
	return m
}

func (m FormModel) View() string {
	theme := styles.DefaultTheme()

	line := func(in textinput.Model, field string) string {
		s := in.View()
		if m.errs.Has(field) {
			s = lipgloss.JoinHorizontal(lipgloss.Center, s, " ", theme.StatusDead.Render(styles.IconError+" required"))
		}
		return s
	}

	button := theme.KeybindKey.Render("[ Submit ]")
	if m.busy {
		button = theme.TitleMuted.Render("[ Sending… ]")
	}

	content := strings.Join([]string{
		line(m.team, submit.FieldTeamName),
		line(m.code, submit.FieldCodeFile),
		button,
	}, "\n")

	return widgets.NewBox("Submit").
		WithTitleRight("[enter] next/submit").
		WithContent(content).
		WithSize(m.width, 0).
		Render()
}
