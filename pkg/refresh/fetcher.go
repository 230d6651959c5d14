// Package refresh re-fetches the rendered history after each successful poll.
package refresh

import (
	"context"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/subwatch/pkg/bus"
	"github.com/go-go-golems/subwatch/pkg/longpoll"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	SubmissionsPath      = "/submissions"
	SuperSubmissionsPath = "/super/submissions"
)

type Getter interface {
	Fragment(ctx context.Context, path string) (string, error)
}

// Observer inspects fetched content before it is displayed.
type Observer interface {
	Observe(content string) bool
}

// Fetcher fetches one fragment path and publishes it for display. It has
// no notion of cursors: every fetch asks for the current state.
type Fetcher struct {
	Getter Getter
	Path   string
	Signal Observer
	Pub    message.Publisher
	Log    zerolog.Logger
}

func New(getter Getter, path string) *Fetcher {
	return &Fetcher{Getter: getter, Path: path, Log: zerolog.Nop()}
}

// Refresh fetches the fragment, runs the signal on it and publishes it.
// On failure nothing is published, so the previous fragment stays on
// screen.
func (f *Fetcher) Refresh(ctx context.Context) error {
	if f.Getter == nil {
		return errors.New("missing Getter")
	}
	content, err := f.Getter.Fragment(ctx, f.Path)
	if err != nil {
		return errors.Wrapf(err, "refresh %s", f.Path)
	}

	blink := false
	if f.Signal != nil {
		blink = f.Signal.Observe(content)
	}

	return bus.Publish(f.Pub, bus.DomainTypeFragmentFetched, bus.FragmentFetched{
		Path:    f.Path,
		Content: content,
		Blink:   blink,
		At:      time.Now(),
	})
}

// Trigger is a longpoll.SuccessHook. It starts a refresh on its own
// goroutine and returns once the request has been written, without waiting
// for the response. Errors are logged and dropped.
func (f *Fetcher) Trigger(ctx context.Context, cursor longpoll.Cursor) {
	issued := make(chan struct{})
	var once sync.Once
	markIssued := func() { once.Do(func() { close(issued) }) }

	traced := httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { markIssued() },
	})

	go func() {
		defer markIssued()
		if err := f.Refresh(traced); err != nil {
			f.Log.Debug().Err(err).Stringer("cursor", cursor).Msg("refresh failed, keeping previous fragment")
		}
	}()

	select {
	case <-issued:
	case <-ctx.Done():
	}
}
