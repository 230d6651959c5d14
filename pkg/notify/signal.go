// Package notify decides whether a supervisor fragment holds unread
// submissions.
package notify

import (
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Mode selects how strictly the closing cell tag is matched.
type Mode string

const (
	// ModeLoose accepts any single character where the slash of </td>
	// belongs. This is what deployed supervisor pages have always matched.
	ModeLoose Mode = "loose"
	// ModeStrict requires a well-formed </td>.
	ModeStrict Mode = "strict"
)

const (
	LoosePattern  = `(?i)<td>\s*new\s*<.td>`
	StrictPattern = `(?i)<td>\s*new\s*</td>`
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLoose:
		return ModeLoose, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", errors.Errorf("unknown marker mode %q (want loose or strict)", s)
	}
}

// Signal holds the blink flag. Observe is called from refresh completions;
// Active is read by the title blinker.
type Signal struct {
	marker *regexp.Regexp
	active atomic.Bool
}

func NewSignal(mode Mode) *Signal {
	pattern := LoosePattern
	if mode == ModeStrict {
		pattern = StrictPattern
	}
	return &Signal{marker: regexp.MustCompile(pattern)}
}

// Observe sets the flag to whether content has a "new" cell and returns it.
func (s *Signal) Observe(content string) bool {
	v := s.marker.MatchString(content)
	s.active.Store(v)
	return v
}

func (s *Signal) Active() bool {
	return s.active.Load()
}
