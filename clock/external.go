package clock

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/sysid/agentmesh/errors"
)

// External is a manually-driven, deterministic Clock for tests: time only
// moves forward when SetTime is called, and every callback whose deadline
// has been reached fires, in deadline order (ties broken by insertion
// order).
type External struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending pendingQueue
}

// NewExternal returns an External clock initialized at start.
func NewExternal(start time.Time) *External {
	return &External{now: start}
}

type pendingEntry struct {
	deadline time.Time
	seq      int
	fn       func()
	index    int
	fired    bool
	cancel   bool
}

type pendingQueue []*pendingEntry

func (q pendingQueue) Len() int { return len(q) }
func (q pendingQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}
func (q pendingQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *pendingQueue) Push(x interface{}) {
	e := x.(*pendingEntry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *pendingQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

type externalTimer struct {
	clock *External
	entry *pendingEntry
}

func (t *externalTimer) Cancel() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.entry.fired || t.entry.cancel {
		return false
	}
	t.entry.cancel = true
	return true
}

func (c *External) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *External) CallIn(d time.Duration, fn func()) Timer {
	return c.CallAt(c.Now().Add(d), fn)
}

func (c *External) CallAt(t time.Time, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	e := &pendingEntry{deadline: t, seq: c.seq, fn: fn}
	heap.Push(&c.pending, e)
	return &externalTimer{clock: c, entry: e}
}

// SetTime advances the clock to t, firing (in deadline order) every pending
// callback due at or before t. t must be strictly after the current time.
func (c *External) SetTime(t time.Time) error {
	c.mu.Lock()
	if !t.After(c.now) {
		c.mu.Unlock()
		return errors.New("clock: SetTime must strictly advance time")
	}
	c.now = t

	var due []*pendingEntry
	for c.pending.Len() > 0 && !c.pending[0].deadline.After(c.now) {
		e := heap.Pop(&c.pending).(*pendingEntry)
		if e.cancel {
			continue
		}
		e.fired = true
		due = append(due, e)
	}
	c.mu.Unlock()

	for _, e := range due {
		e.fn()
	}
	return nil
}

// Sleep blocks until d elapses on the virtual clock or ctx is cancelled.
func (c *External) Sleep(ctx context.Context, d time.Duration) error {
	return c.SleepUntil(ctx, c.Now().Add(d))
}

// SleepUntil blocks until t is reached on the virtual clock (via SetTime
// calls from the test driving this clock) or ctx is cancelled.
func (c *External) SleepUntil(ctx context.Context, t time.Time) error {
	if !t.After(c.Now()) {
		return nil
	}
	done := make(chan struct{})
	c.CallAt(t, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
