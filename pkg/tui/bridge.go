package tui

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/subwatch/pkg/blink"
	"github.com/go-go-golems/subwatch/pkg/bus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Forward turns bus messages into UI messages until ctx is done or the
// subscription closes.
func Forward(ctx context.Context, msgs <-chan *message.Message, send func(tea.Msg), log zerolog.Logger) error {
	if send == nil {
		return errors.New("missing send")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			m, err := Decode(msg.Payload)
			msg.Ack()
			if err != nil {
				log.Debug().Err(err).Str("uuid", msg.UUID).Msg("drop bus message")
				continue
			}
			if m != nil {
				send(m)
			}
		}
	}
}

// Decode maps an envelope to its UI message. Unknown types yield nil.
func Decode(b []byte) (tea.Msg, error) {
	env, err := bus.ParseEnvelope(b)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case bus.DomainTypePollSucceeded:
		var ev bus.PollSucceeded
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		return PollStatusMsg{Ok: true, Cursor: ev.Cursor, At: ev.At}, nil
	case bus.DomainTypePollFailed:
		var ev bus.PollFailed
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		return PollStatusMsg{Ok: false, Cursor: -1, Error: ev.Error, RetryIn: ev.RetryIn, At: ev.At}, nil
	case bus.DomainTypeFragmentFetched:
		var ev bus.FragmentFetched
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		return FragmentMsg{Path: ev.Path, Content: ev.Content, Blink: ev.Blink, At: ev.At}, nil
	case bus.DomainTypeRelaySent:
		var ev bus.RelaySent
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		return RelaySentMsg{Href: ev.Href, Error: ev.Error, At: ev.At}, nil
	}
	return nil, nil
}

// TitleSink hands blinker titles to the program.
func TitleSink(send func(tea.Msg)) blink.SinkFunc {
	return func(title string) {
		send(TitleMsg{Title: title})
	}
}
