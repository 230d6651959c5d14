package blink

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-go-golems/subwatch/pkg/notify"
	"github.com/stretchr/testify/require"
)

type flag struct{ v atomic.Bool }

func (f *flag) Active() bool { return f.v.Load() }

type recordingSink struct {
	mu     sync.Mutex
	titles []string
}

func (s *recordingSink) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.titles...)
}

func TestTick_SwapsWhileActive(t *testing.T) {
	f := &flag{}
	b := New("Submissions", f)

	title, changed := b.Tick()
	require.False(t, changed)
	require.Equal(t, "Submissions", title)

	f.v.Store(true)
	title, changed = b.Tick()
	require.True(t, changed)
	require.Equal(t, "||||| Submissions |||||", title)

	title, _ = b.Tick()
	require.Equal(t, "Submissions", title)
	title, _ = b.Tick()
	require.Equal(t, "||||| Submissions |||||", title)
}

func TestTick_StopsWithoutRestoring(t *testing.T) {
	f := &flag{}
	f.v.Store(true)
	b := New("Submissions", f)

	b.Tick()
	require.Equal(t, "||||| Submissions |||||", b.Title())

	f.v.Store(false)
	for i := 0; i < 3; i++ {
		title, changed := b.Tick()
		require.False(t, changed)
		require.Equal(t, "||||| Submissions |||||", title)
	}

	// Resuming swaps the stored pair again rather than recomputing it.
	f.v.Store(true)
	title, _ := b.Tick()
	require.Equal(t, "Submissions", title)
}

func TestTick_NilFlag(t *testing.T) {
	b := New("x", nil)
	_, changed := b.Tick()
	require.False(t, changed)
}

func TestRun_BlinksOnNewMarker(t *testing.T) {
	sig := notify.NewSignal(notify.ModeLoose)
	b := New("Super", sig)
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, 20*time.Millisecond, sink) }()

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, sink.snapshot())

	sig.Observe("<td>new</td>")
	require.Eventually(t, func() bool { return len(sink.snapshot()) >= 2 }, time.Second, 5*time.Millisecond)
	got := sink.snapshot()
	require.Equal(t, "||||| Super |||||", got[0])
	require.Equal(t, "Super", got[1])

	sig.Observe("<td>delivered</td>")
	time.Sleep(30 * time.Millisecond)
	settled := len(sink.snapshot())
	last := b.Title()
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, settled, len(sink.snapshot()))
	require.Equal(t, last, b.Title())

	cancel()
	require.NoError(t, <-done)
}

func TestSinkFunc(t *testing.T) {
	var got string
	SinkFunc(func(s string) { got = s }).SetTitle("hello")
	require.Equal(t, "hello", got)
}
