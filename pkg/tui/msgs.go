package tui

import (
	"time"

	"github.com/go-go-golems/subwatch/pkg/submit"
)

type PollStatusMsg struct {
	Ok      bool
	Cursor  int64
	Error   string
	RetryIn time.Duration
	At      time.Time
}

type FragmentMsg struct {
	Path    string
	Content string
	Blink   bool
	At      time.Time
}

type TitleMsg struct {
	Title string
}

type RelaySentMsg struct {
	Href  string
	Error string
	At    time.Time
}

type SubmitFinishedMsg struct {
	Form submit.Form
	Err  error
}
