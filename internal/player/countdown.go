// Package player cycles through a presentation's items on wall-clock timers.
package player

import "time"

// Clock is the time source for the scheduler.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// Countdown measures remaining time against the instant it started, so a
// late or skipped tick never makes it drift.
type Countdown struct {
	start    time.Time
	duration time.Duration
}

func NewCountdown(start time.Time, d time.Duration) Countdown {
	return Countdown{start: start, duration: d}
}

// Enabled reports whether the countdown can ever expire.
func (c Countdown) Enabled() bool {
	return c.duration > 0
}

func (c Countdown) Remaining(now time.Time) time.Duration {
	if !c.Enabled() {
		return 0
	}
	left := c.duration - now.Sub(c.start)
	if left < 0 {
		return 0
	}
	return left
}

func (c Countdown) Expired(now time.Time) bool {
	return c.Enabled() && c.Remaining(now) == 0
}

// Seconds rounds the remaining time up to whole seconds for display.
func (c Countdown) Seconds(now time.Time) int {
	left := c.Remaining(now)
	return int((left + time.Second - 1) / time.Second)
}
