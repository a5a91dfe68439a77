// Package clock provides the time abstraction agents and behaviours schedule
// work against: a real wall-clock backed by clockwork.Clock for production
// use, and a virtual, manually-advanced clock for deterministic tests.
package clock

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer represents a scheduled, cancellable callback registered through
// CallIn/CallAt.
type Timer interface {
	// Cancel prevents the callback from firing, if it hasn't already.
	// Returns false if the callback already fired or was already cancelled.
	Cancel() bool
}

// Clock is the scheduling surface behaviours and the agent core depend on
// instead of calling time/context timers directly, so that tests can swap in
// a deterministic External clock.
type Clock interface {
	// Now returns the clock's current time.
	Now() time.Time

	// Sleep blocks for d, or until ctx is cancelled.
	Sleep(ctx context.Context, d time.Duration) error

	// SleepUntil blocks until t, or until ctx is cancelled.
	SleepUntil(ctx context.Context, t time.Time) error

	// CallIn schedules fn to run after d elapses.
	CallIn(d time.Duration, fn func()) Timer

	// CallAt schedules fn to run at t.
	CallAt(t time.Time, fn func()) Timer
}

// Real returns a Clock backed by the real wall clock.
func Real() Clock {
	return &realClock{inner: clockwork.NewRealClock()}
}

type realClock struct {
	inner clockwork.Clock
}

func (c *realClock) Now() time.Time { return c.inner.Now() }

func (c *realClock) Sleep(ctx context.Context, d time.Duration) error {
	return c.SleepUntil(ctx, c.inner.Now().Add(d))
}

func (c *realClock) SleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := c.inner.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *realClock) CallIn(d time.Duration, fn func()) Timer {
	return c.CallAt(c.inner.Now().Add(d), fn)
}

func (c *realClock) CallAt(t time.Time, fn func()) Timer {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	tt := c.inner.AfterFunc(d, fn)
	return &realTimer{t: tt}
}

type realTimer struct{ t clockwork.Timer }

func (t *realTimer) Cancel() bool { return t.t.Stop() }
