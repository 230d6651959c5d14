package fakeserver

import (
	"context"
	"sync"
)

// StartCursor is the value a fresh notifier hands out.
const StartCursor int64 = 10

// Notifier parks long-poll requests until the next change. A request whose
// cursor is already behind is answered at once with the current value.
type Notifier struct {
	mu      sync.Mutex
	cursor  int64
	waiters map[chan int64]struct{}
	closed  bool
	done    chan struct{}
}

func NewNotifier(start int64) *Notifier {
	return &Notifier{
		cursor:  start,
		waiters: map[chan int64]struct{}{},
		done:    make(chan struct{}),
	}
}

func (n *Notifier) Cursor() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// Waiting is the number of parked requests.
func (n *Notifier) Waiting() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.waiters)
}

// Wait blocks until the cursor moves past cursor, ctx is done or the
// notifier is closed. ok is false in the last two cases.
func (n *Notifier) Wait(ctx context.Context, cursor int64) (int64, bool) {
	n.mu.Lock()
	if cursor < n.cursor {
		cur := n.cursor
		n.mu.Unlock()
		return cur, true
	}
	if n.closed {
		n.mu.Unlock()
		return 0, false
	}
	ch := make(chan int64, 1)
	n.waiters[ch] = struct{}{}
	n.mu.Unlock()

	select {
	case cur := <-ch:
		return cur, true
	case <-ctx.Done():
	case <-n.done:
	}

	n.mu.Lock()
	delete(n.waiters, ch)
	n.mu.Unlock()
	return 0, false
}

// Notify bumps the cursor and releases every parked request.
func (n *Notifier) Notify() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cursor++
	for ch := range n.waiters {
		ch <- n.cursor
		delete(n.waiters, ch)
	}
	return n.cursor
}

// Close releases parked requests without an answer.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.done)
}
