// Package ticker invokes a callback at a fixed cadence without cumulative drift.
//
// Each wake-up is anchored to an absolute deadline that advances by exactly one
// period, so a late wake-up shortens the following wait instead of pushing the
// whole schedule back.
package ticker

import (
	"sync"
	"time"
)

const DefaultPeriod = time.Second

type Handle struct {
	mu        sync.Mutex
	clock     Clock
	period    time.Duration
	fn        func()
	next      time.Time
	timer     Timer
	cancelled bool
	fires     uint64
	skipped   uint64
}

// Start schedules fn every period until the returned handle is cancelled.
// The first call happens one period after Start.
func Start(clock Clock, period time.Duration, fn func()) *Handle {
	if clock == nil {
		clock = SystemClock
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	h := &Handle{
		clock:  clock,
		period: period,
		fn:     fn,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next = clock.Now().Add(period)
	h.timer = clock.AfterFunc(period, h.wake)
	return h
}

func (h *Handle) wake() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	now := h.clock.Now()
	h.next = h.next.Add(h.period)
	if h.next.Before(now) {
		// slept through whole periods; this call covers them
		missed := now.Sub(h.next)/h.period + 1
		h.next = h.next.Add(missed * h.period)
		h.skipped += uint64(missed)
	}
	h.timer = h.clock.AfterFunc(max(0, h.next.Sub(now)), h.wake)
	h.fires++
	fn := h.fn
	h.mu.Unlock()

	// rescheduled before fn so a slow callback cannot slip the schedule
	fn()
}

// Cancel stops future callbacks. Safe to call more than once. A wake-up that
// already passed its cancelled check may still run fn once after Cancel
// returns; callers that need a hard stop guard fn themselves.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Fires returns how many callbacks have been delivered.
func (h *Handle) Fires() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fires
}

// Skipped returns how many deadlines were dropped because the host woke up
// more than a period late.
func (h *Handle) Skipped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.skipped
}

func (h *Handle) Period() time.Duration {
	return h.period
}

// Next returns the deadline of the pending wake-up.
func (h *Handle) Next() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next
}
