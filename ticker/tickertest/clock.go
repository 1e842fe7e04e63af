// Package tickertest provides a manually driven ticker.Clock.
package tickertest

import (
	"sort"
	"sync"
	"time"

	"github.com/benjamonnguyen/pomoclock/ticker"
)

// Clock only moves when Advance is called. Timers due within an Advance fire
// synchronously, in deadline order, with Now reporting their fire time.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*timer
	jitter func() time.Duration
}

var _ ticker.Clock = (*Clock)(nil)

func New(start time.Time) *Clock {
	return &Clock{now: start}
}

// SetJitter delays every timer scheduled afterwards by the returned duration,
// imitating a host that fires late.
func (c *Clock) SetJitter(fn func() time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jitter = fn
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) ticker.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	if c.jitter != nil {
		d += c.jitter()
	}
	c.seq++
	t := &timer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.popDue(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if t.at.After(c.now) {
			c.now = t.at
		}
		c.mu.Unlock()
		t.f()
	}
}

// Jump sets the clock forward by d without firing anything, like a host
// that was suspended. The next Advance delivers whatever is overdue.
func (c *Clock) Jump(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Pending returns the number of scheduled timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Clock) popDue(target time.Time) *timer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	t := c.timers[0]
	if t.at.After(target) {
		return nil
	}
	c.timers = c.timers[1:]
	return t
}

func (c *Clock) remove(t *timer) bool {
	for i, pending := range c.timers {
		if pending == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

type timer struct {
	clock *Clock
	at    time.Time
	seq   int
	f     func()
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.remove(t)
}
