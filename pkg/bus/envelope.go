package bus

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(typ string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "marshal %s payload", typ)
	}
	return Envelope{Type: typ, Payload: b}, nil
}

func (e Envelope) MarshalJSONBytes() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return b, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.Wrapf(err, "decode %s payload", e.Type)
	}
	return nil
}

func ParseEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, errors.Wrap(err, "parse envelope")
	}
	if env.Type == "" {
		return Envelope{}, errors.New("envelope missing type")
	}
	return env, nil
}

// Publish wraps payload in an envelope and publishes it on TopicEvents.
// A nil publisher is a no-op so components can run without a bus in tests.
func Publish(pub message.Publisher, typ string, payload any) error {
	if pub == nil {
		return nil
	}
	env, err := NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	b, err := env.MarshalJSONBytes()
	if err != nil {
		return err
	}
	return pub.Publish(TopicEvents, message.NewMessage(watermill.NewUUID(), b))
}

type PollSucceeded struct {
	Cursor int64     `json:"cursor"`
	At     time.Time `json:"at"`
}

type PollFailed struct {
	Error   string        `json:"error"`
	RetryIn time.Duration `json:"retry_in"`
	At      time.Time     `json:"at"`
}

type FragmentFetched struct {
	Path    string    `json:"path"`
	Content string    `json:"content"`
	Blink   bool      `json:"blink"`
	At      time.Time `json:"at"`
}

type RelaySent struct {
	Href  string    `json:"href"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}
