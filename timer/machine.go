// Package timer implements the pomodoro clock: a Session/Break state machine
// driven by a drift-corrected one second ticker.
package timer

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/ticker"
)

// LengthEditMode decides which length edits move the displayed countdown.
type LengthEditMode uint8

const (
	// EditsFollowActivePhase resets the countdown when the active phase's
	// length changes.
	EditsFollowActivePhase LengthEditMode = iota
	// EditsMirrorInactivePhase mirrors the countdown to the inactive phase's
	// new length and leaves active phase edits off the display.
	EditsMirrorInactivePhase
)

func ParseLengthEditMode(s string) LengthEditMode {
	if s == pomoclock.LengthEditsInactive {
		return EditsMirrorInactivePhase
	}
	return EditsFollowActivePhase
}

type Options struct {
	Clock       ticker.Clock
	Period      time.Duration
	Logger      *log.Logger
	LengthEdits LengthEditMode
}

// State is the raw clock state.
type State struct {
	Phase     pomoclock.Phase
	Remaining int // seconds
	Running   bool
	Lengths   pomoclock.Lengths
}

func initialState() State {
	return State{
		Phase:     pomoclock.SessionPhase,
		Remaining: pomoclock.DefaultLengths.Seconds(pomoclock.SessionPhase),
		Lengths:   pomoclock.DefaultLengths,
	}
}

// Machine owns the clock state and its ticker. All methods are safe for
// concurrent use.
type Machine struct {
	mu     sync.Mutex
	clock  ticker.Clock
	period time.Duration
	mode   LengthEditMode
	l      *log.Logger

	state  State
	handle *ticker.Handle
	gen    uint64 // identifies the live handle
	seq    uint64
	closed bool

	subMu     sync.Mutex
	listeners []func(Update)
}

func New(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = ticker.SystemClock
	}
	if opts.Period <= 0 {
		opts.Period = ticker.DefaultPeriod
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Machine{
		clock:  opts.Clock,
		period: opts.Period,
		mode:   opts.LengthEdits,
		l:      opts.Logger,
		state:  initialState(),
	}
}

// OnUpdate registers fn to receive every state change. Handlers run after the
// machine lock is released, in registration order.
func (m *Machine) OnUpdate(fn func(Update)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newView(m.seq, m.state, false)
}

// AdjustLength moves the length of phase by delta minutes. It reports whether
// the edit was applied; edits while running, with |delta| != 1, or leaving
// [MinLength, MaxLength] are rejected.
func (m *Machine) AdjustLength(phase pomoclock.Phase, delta int) bool {
	m.mu.Lock()
	if running := m.state.Running; running || !phase.Valid() || (delta != 1 && delta != -1) {
		m.mu.Unlock()
		m.l.Debug("rejected length edit", "phase", phase, "delta", delta, "running", running)
		return false
	}
	newLen := m.state.Lengths.Get(phase) + delta
	if !pomoclock.InBounds(newLen) {
		m.mu.Unlock()
		m.l.Debug("rejected length edit out of bounds", "phase", phase, "length", newLen)
		return false
	}

	m.state.Lengths = m.state.Lengths.With(phase, newLen)
	active := phase == m.state.Phase
	switch m.mode {
	case EditsFollowActivePhase:
		if active {
			m.state.Remaining = newLen * 60
		}
	case EditsMirrorInactivePhase:
		if !active {
			m.state.Remaining = newLen * 60
		}
	}
	u := m.updateLocked(CueNone, nil)
	m.mu.Unlock()

	m.dispatch(u)
	return true
}

// Start begins counting down. It is a no-op while running.
func (m *Machine) Start() bool {
	m.mu.Lock()
	if m.state.Running || m.closed {
		m.mu.Unlock()
		return false
	}
	m.state.Running = true
	m.startTickerLocked()
	u := m.updateLocked(CueNone, nil)
	m.mu.Unlock()

	m.l.Debug("started clock", "phase", u.View.Phase, "remaining", u.View.RemainingLabel)
	m.dispatch(u)
	return true
}

// Pause stops counting down. It is a no-op while idle.
func (m *Machine) Pause() bool {
	m.mu.Lock()
	if !m.state.Running {
		m.mu.Unlock()
		return false
	}
	m.state.Running = false
	m.stopTickerLocked()
	u := m.updateLocked(CueNone, nil)
	m.mu.Unlock()

	m.l.Debug("paused clock", "phase", u.View.Phase, "remaining", u.View.RemainingLabel)
	m.dispatch(u)
	return true
}

func (m *Machine) ToggleStartPause() {
	if m.State().Running {
		m.Pause()
		return
	}
	m.Start()
}

// Reset stops the clock and restores the 25/5 defaults.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.stopTickerLocked()
	m.state = initialState()
	u := m.updateLocked(CueStop, nil)
	m.mu.Unlock()

	m.l.Debug("reset clock")
	m.dispatch(u)
}

// Close releases the ticker. The clock cannot be started afterwards.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.state.Running = false
	m.stopTickerLocked()
}

func (m *Machine) tick(gen uint64) {
	m.mu.Lock()
	if m.handle == nil || gen != m.gen || !m.state.Running {
		m.mu.Unlock()
		m.l.Debug("dropped stale tick")
		return
	}

	m.state.Remaining--
	cue := CueNone
	if m.state.Remaining == 0 {
		cue = CuePlay
	}
	var tr *Transition
	if m.state.Remaining < 0 {
		// cancel-then-restart so the old handle can never tick the new phase
		m.stopTickerLocked()
		from := m.state.Phase
		tr = &Transition{
			From:          from,
			To:            from.Other(),
			LengthMinutes: m.state.Lengths.Get(from),
			At:            m.clock.Now(),
		}
		m.state.Phase = tr.To
		m.state.Remaining = m.state.Lengths.Seconds(tr.To)
		m.startTickerLocked()
	}
	u := m.updateLocked(cue, tr)
	m.mu.Unlock()

	if tr != nil {
		m.l.Info("phase complete", "from", tr.From, "to", tr.To, "minutes", tr.LengthMinutes)
	}
	m.dispatch(u)
}

func (m *Machine) startTickerLocked() {
	m.gen++
	gen := m.gen
	m.handle = ticker.Start(m.clock, m.period, func() { m.tick(gen) })
}

func (m *Machine) stopTickerLocked() {
	if m.handle == nil {
		return
	}
	h := m.handle
	m.handle = nil
	h.Cancel()
}

func (m *Machine) updateLocked(cue Cue, tr *Transition) Update {
	m.seq++
	return Update{
		View:       newView(m.seq, m.state, cue == CuePlay),
		Cue:        cue,
		Transition: tr,
	}
}

func (m *Machine) dispatch(u Update) {
	m.subMu.Lock()
	listeners := make([]func(Update), len(m.listeners))
	copy(listeners, m.listeners)
	m.subMu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}
