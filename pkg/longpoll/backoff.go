package longpoll

import "time"

// DefaultErrorSleep is how long the updater waits after a failed poll.
const DefaultErrorSleep = 10 * time.Second

// Backoff decides how long to wait before retrying after a poll failure.
type Backoff interface {
	Delay(err error) time.Duration
}

// FixedBackoff waits the same amount after every failure, forever.
// The zero value waits DefaultErrorSleep.
type FixedBackoff struct {
	Wait time.Duration
}

func (b FixedBackoff) Delay(error) time.Duration {
	if b.Wait <= 0 {
		return DefaultErrorSleep
	}
	return b.Wait
}
