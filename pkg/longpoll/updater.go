// Package longpoll keeps a client cursor in step with a server update stream.
//
// An Updater issues one long-lived request at a time carrying its cursor.
// The server holds the request until something changes and answers with a
// new cursor. On success the cursor is replaced unconditionally and the
// success hook runs; the next poll starts right away. On failure the cursor
// falls back to NoCursor, which forces a full snapshot on the next success,
// and the next poll waits for the backoff delay.
package longpoll

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/subwatch/pkg/bus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrAlreadyRunning = errors.New("updater already running")

// Source performs one long-poll request.
type Source interface {
	Update(ctx context.Context, cursor Cursor) (Cursor, error)
}

// SuccessHook runs after every successful poll, before the next poll is
// issued. It must not wait for the work it starts to complete.
type SuccessHook func(ctx context.Context, cursor Cursor)

type Updater struct {
	Source    Source
	Backoff   Backoff
	OnSuccess SuccessHook
	Pub       message.Publisher
	Log       zerolog.Logger

	mu      sync.Mutex
	cursor  Cursor
	held    bool // false reads as NoCursor, so a zero Updater starts from a snapshot
	running bool
}

func New(src Source, backoff Backoff, onSuccess SuccessHook) *Updater {
	return &Updater{
		Source:    src,
		Backoff:   backoff,
		OnSuccess: onSuccess,
		Log:       zerolog.Nop(),
	}
}

// Cursor returns the stored cursor.
func (u *Updater) Cursor() Cursor {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.held {
		return NoCursor
	}
	return u.cursor
}

// Run polls until ctx is cancelled. It only returns an error when the
// updater is misconfigured or already running.
func (u *Updater) Run(ctx context.Context) error {
	if u.Source == nil {
		return errors.New("missing Source")
	}
	if u.Backoff == nil {
		u.Backoff = FixedBackoff{}
	}

	u.mu.Lock()
	if u.running {
		u.mu.Unlock()
		return ErrAlreadyRunning
	}
	u.running = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.running = false
		u.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := u.poll(ctx)
		if wait == 0 {
			continue
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// poll runs one request and returns the delay before the next one.
func (u *Updater) poll(ctx context.Context) time.Duration {
	cursor := u.Cursor()

	next, err := u.Source.Update(ctx, cursor)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		return u.fail(err)
	}

	u.mu.Lock()
	u.cursor = next
	u.held = true
	u.mu.Unlock()

	u.Log.Debug().Stringer("cursor", next).Msg("poll succeeded")
	if u.OnSuccess != nil {
		u.OnSuccess(ctx, next)
	}
	if err := bus.Publish(u.Pub, bus.DomainTypePollSucceeded, bus.PollSucceeded{Cursor: int64(next), At: time.Now()}); err != nil {
		u.Log.Debug().Err(err).Msg("publish poll success")
	}
	return 0
}

func (u *Updater) fail(err error) time.Duration {
	u.mu.Lock()
	u.cursor = NoCursor
	u.held = false
	u.mu.Unlock()

	wait := u.Backoff.Delay(err)
	u.Log.Warn().Err(err).Dur("retry_in", wait).Msg("poll failed, resetting cursor")
	if perr := bus.Publish(u.Pub, bus.DomainTypePollFailed, bus.PollFailed{Error: err.Error(), RetryIn: wait, At: time.Now()}); perr != nil {
		u.Log.Debug().Err(perr).Msg("publish poll failure")
	}
	return wait
}
