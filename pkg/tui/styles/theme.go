package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/subwatch/pkg/fragment"
)

type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Border     lipgloss.Style
	Selected   lipgloss.Style

	KeybindKey  lipgloss.Style
	KeybindDesc lipgloss.Style

	StatusRunning lipgloss.Style
	StatusDead    lipgloss.Style
	StatusNew     lipgloss.Style
	StatusMuted   lipgloss.Style
}

func DefaultTheme() Theme {
	primary := lipgloss.Color("#7C3AED")
	muted := lipgloss.Color("#6B7280")
	success := lipgloss.Color("#10B981")
	warning := lipgloss.Color("#F59E0B")
	errColor := lipgloss.Color("#EF4444")

	return Theme{
		Primary: primary,
		Muted:   muted,
		Success: success,
		Warning: warning,
		Error:   errColor,

		Title:      lipgloss.NewStyle().Bold(true).Foreground(primary),
		TitleMuted: lipgloss.NewStyle().Foreground(muted),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted),
		Selected:   lipgloss.NewStyle().Background(primary).Foreground(lipgloss.Color("#FFFFFF")).Bold(true),

		KeybindKey:  lipgloss.NewStyle().Bold(true).Foreground(primary),
		KeybindDesc: lipgloss.NewStyle().Foreground(muted),

		StatusRunning: lipgloss.NewStyle().Foreground(success),
		StatusDead:    lipgloss.NewStyle().Foreground(errColor),
		StatusNew:     lipgloss.NewStyle().Bold(true).Foreground(warning),
		StatusMuted:   lipgloss.NewStyle().Foreground(muted),
	}
}

// SubmissionStyle picks the row style for a submission status.
func (t Theme) SubmissionStyle(s fragment.Status) lipgloss.Style {
	switch s {
	case fragment.StatusNew:
		return t.StatusNew
	case fragment.StatusPrinting:
		return t.StatusRunning
	case fragment.StatusDelivered:
		return t.StatusMuted
	default:
		return lipgloss.NewStyle()
	}
}
