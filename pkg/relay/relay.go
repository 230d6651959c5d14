// Package relay fires the request behind an action link instead of
// following it.
package relay

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/subwatch/pkg/bus"
	"github.com/go-go-golems/subwatch/pkg/fragment"
	"github.com/rs/zerolog"
)

const DefaultClass = "ajax"

type Getter interface {
	Get(ctx context.Context, href string) error
}

type Relay struct {
	Getter Getter
	Class  string
	Pub    message.Publisher
	Log    zerolog.Logger
}

func New(getter Getter, class string) *Relay {
	if class == "" {
		class = DefaultClass
	}
	return &Relay{Getter: getter, Class: class, Log: zerolog.Nop()}
}

// Handles reports whether link carries the relay's marker class.
func (r *Relay) Handles(link fragment.Link) bool {
	return link.Href != "" && link.HasClass(r.Class)
}

// Activate issues a GET for a marker link on its own goroutine and returns
// true. The response is ignored; failures are only logged. Links without
// the marker class are left alone and Activate returns false.
func (r *Relay) Activate(ctx context.Context, link fragment.Link) bool {
	if !r.Handles(link) || r.Getter == nil {
		return false
	}
	go func() {
		ev := bus.RelaySent{Href: link.Href}
		if err := r.Getter.Get(ctx, link.Href); err != nil {
			r.Log.Debug().Err(err).Str("href", link.Href).Msg("relay request failed")
			ev.Error = err.Error()
		}
		ev.At = time.Now()
		if err := bus.Publish(r.Pub, bus.DomainTypeRelaySent, ev); err != nil {
			r.Log.Debug().Err(err).Msg("publish relay")
		}
	}()
	return true
}
