// Package blink alternates the window title while there is something new
// to look at.
package blink

import (
	"context"
	"sync"
	"time"
)

const DefaultInterval = 1 * time.Second

// Flag reports whether the title should blink.
type Flag interface {
	Active() bool
}

// TitleSink displays a title.
type TitleSink interface {
	SetTitle(title string)
}

type SinkFunc func(title string)

func (f SinkFunc) SetTitle(title string) { f(title) }

// AlternateTitle wraps the original title so the swap is visible.
func AlternateTitle(original string) string {
	return "||||| " + original + " |||||"
}

type Blinker struct {
	flag Flag

	mu        sync.Mutex
	current   string
	alternate string
}

func New(original string, flag Flag) *Blinker {
	return &Blinker{
		flag:      flag,
		current:   original,
		alternate: AlternateTitle(original),
	}
}

// Title returns the title currently displayed.
func (b *Blinker) Title() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Tick swaps the displayed and alternate titles when the flag is set.
// When it is not set nothing changes, even if the alternate title is
// showing.
func (b *Blinker) Tick() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flag == nil || !b.flag.Active() {
		return b.current, false
	}
	b.current, b.alternate = b.alternate, b.current
	return b.current, true
}

// Run ticks immediately and then every interval until ctx is done.
func (b *Blinker) Run(ctx context.Context, interval time.Duration, sink TitleSink) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if title, changed := b.Tick(); changed && sink != nil {
			sink.SetTitle(title)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
