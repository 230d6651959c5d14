package styles

import "github.com/go-go-golems/subwatch/pkg/fragment"

// Status icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconRunning = "▶"
	IconPending = "○"
	IconNew     = "★"
	IconBullet  = "•"
)

// PollIcon returns the icon for the long-poll connection state.
func PollIcon(seen, ok bool) string {
	if !seen {
		return IconPending
	}
	if ok {
		return IconSuccess
	}
	return IconError
}

// SubmissionIcon returns the icon for a submission row's status.
func SubmissionIcon(s fragment.Status) string {
	switch s {
	case fragment.StatusNew:
		return IconNew
	case fragment.StatusPrinting:
		return IconRunning
	case fragment.StatusDelivered:
		return IconSuccess
	default:
		return IconBullet
	}
}
