package timer

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/ticker/tickertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type updateLog struct {
	mu      sync.Mutex
	updates []Update
}

func (l *updateLog) add(u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, u)
}

func (l *updateLog) cues(c Cue) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, u := range l.updates {
		if u.Cue == c {
			n++
		}
	}
	return n
}

func (l *updateLog) all() []Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Update(nil), l.updates...)
}

func newTestMachine(t *testing.T, mode LengthEditMode) (*Machine, *tickertest.Clock, *updateLog) {
	t.Helper()
	clock := tickertest.New(epoch)
	m := New(Options{
		Clock:       clock,
		Logger:      log.New(io.Discard),
		LengthEdits: mode,
	})
	t.Cleanup(m.Close)
	ul := &updateLog{}
	m.OnUpdate(ul.add)
	return m, clock, ul
}

func defaultState() State {
	return State{
		Phase:     pomoclock.SessionPhase,
		Remaining: 1500,
		Running:   false,
		Lengths:   pomoclock.Lengths{Session: 25, Break: 5},
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	m, clock, _ := newTestMachine(t, EditsFollowActivePhase)

	assert.Equal(t, defaultState(), m.State())
	v := m.View()
	assert.Equal(t, "Session", v.PhaseLabel)
	assert.Equal(t, "25:00", v.RemainingLabel)
	assert.False(t, v.Running)
	assert.False(t, v.PlayCue)
	assert.Zero(t, clock.Pending())
}

func TestAdjustLength_Idle(t *testing.T) {
	t.Parallel()

	for _, phase := range []pomoclock.Phase{pomoclock.SessionPhase, pomoclock.BreakPhase} {
		for length := pomoclock.MinLength; length <= pomoclock.MaxLength; length++ {
			for _, delta := range []int{-1, 1} {
				m, _, _ := newTestMachine(t, EditsFollowActivePhase)
				m.state.Lengths = m.state.Lengths.With(phase, length)
				before := m.State()

				applied := m.AdjustLength(phase, delta)

				want := length + delta
				if want < pomoclock.MinLength || want > pomoclock.MaxLength {
					assert.False(t, applied, "%s %d%+d", phase, length, delta)
					assert.Equal(t, before, m.State())
					continue
				}
				assert.True(t, applied, "%s %d%+d", phase, length, delta)
				assert.Equal(t, want, m.State().Lengths.Get(phase))
				assert.Equal(t, before.Lengths.Get(phase.Other()), m.State().Lengths.Get(phase.Other()))
			}
		}
	}
}

func TestAdjustLength_RejectedWhileRunning(t *testing.T) {
	t.Parallel()
	m, clock, ul := newTestMachine(t, EditsFollowActivePhase)

	require.True(t, m.Start())
	clock.Advance(3 * time.Second)
	before := m.State()
	updates := len(ul.all())

	for _, phase := range []pomoclock.Phase{pomoclock.SessionPhase, pomoclock.BreakPhase} {
		assert.False(t, m.AdjustLength(phase, 1))
		assert.False(t, m.AdjustLength(phase, -1))
	}

	assert.Equal(t, before, m.State())
	assert.Len(t, ul.all(), updates, "rejected edits publish nothing")
}

func TestAdjustLength_RejectsInvalidInput(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestMachine(t, EditsFollowActivePhase)

	assert.False(t, m.AdjustLength(pomoclock.SessionPhase, 0))
	assert.False(t, m.AdjustLength(pomoclock.SessionPhase, 2))
	assert.False(t, m.AdjustLength(pomoclock.Phase(0), 1))
	assert.Equal(t, defaultState(), m.State())
}

func TestAdjustLength_StopsAtMax(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestMachine(t, EditsFollowActivePhase)

	applied := 0
	for range 36 {
		if m.AdjustLength(pomoclock.SessionPhase, 1) {
			applied++
		}
	}

	assert.Equal(t, 35, applied)
	assert.Equal(t, 60, m.State().Lengths.Session)
}

func TestAdjustLength_StopsAtMin(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestMachine(t, EditsFollowActivePhase)

	for range 10 {
		m.AdjustLength(pomoclock.BreakPhase, -1)
	}
	assert.Equal(t, 1, m.State().Lengths.Break)
}

func TestAdjustLength_Countdown(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		mode          LengthEditMode
		phase         pomoclock.Phase
		delta         int
		wantRemaining int
	}{
		{
			name:          "follow active: active phase edit moves countdown",
			mode:          EditsFollowActivePhase,
			phase:         pomoclock.SessionPhase,
			delta:         1,
			wantRemaining: 26 * 60,
		},
		{
			name:          "follow active: inactive phase edit leaves countdown",
			mode:          EditsFollowActivePhase,
			phase:         pomoclock.BreakPhase,
			delta:         1,
			wantRemaining: 25 * 60,
		},
		{
			name:          "mirror inactive: inactive phase edit mirrors countdown",
			mode:          EditsMirrorInactivePhase,
			phase:         pomoclock.BreakPhase,
			delta:         -1,
			wantRemaining: 4 * 60,
		},
		{
			name:          "mirror inactive: active phase edit leaves countdown",
			mode:          EditsMirrorInactivePhase,
			phase:         pomoclock.SessionPhase,
			delta:         -1,
			wantRemaining: 25 * 60,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, _, ul := newTestMachine(t, tc.mode)

			require.True(t, m.AdjustLength(tc.phase, tc.delta))

			assert.Equal(t, tc.wantRemaining, m.State().Remaining)
			assert.Equal(t, pomoclock.SessionPhase, m.State().Phase)
			updates := ul.all()
			require.Len(t, updates, 1)
			assert.Equal(t, FormatRemaining(tc.wantRemaining), updates[0].View.RemainingLabel)
		})
	}
}

func TestStartPause(t *testing.T) {
	t.Parallel()
	m, clock, _ := newTestMachine(t, EditsFollowActivePhase)

	assert.False(t, m.Pause(), "pause while idle is a no-op")
	assert.True(t, m.Start())
	assert.False(t, m.Start(), "start while running is a no-op")
	assert.Equal(t, 1, clock.Pending(), "exactly one live ticker")

	clock.Advance(10 * time.Second)
	assert.Equal(t, 1490, m.State().Remaining)

	assert.True(t, m.Pause())
	assert.Zero(t, clock.Pending())
	clock.Advance(time.Minute)
	assert.Equal(t, 1490, m.State().Remaining)
	assert.False(t, m.State().Running)
}

func TestToggleStartPause(t *testing.T) {
	t.Parallel()
	m, clock, _ := newTestMachine(t, EditsFollowActivePhase)

	m.ToggleStartPause()
	assert.True(t, m.State().Running)
	clock.Advance(time.Second)

	m.ToggleStartPause()
	assert.False(t, m.State().Running)
	assert.Equal(t, 1499, m.State().Remaining)
}

func TestTick_OneToZeroPlaysCue(t *testing.T) {
	t.Parallel()
	m, clock, ul := newTestMachine(t, EditsFollowActivePhase)
	m.state.Remaining = 1

	require.True(t, m.Start())
	clock.Advance(time.Second)

	s := m.State()
	assert.Equal(t, 0, s.Remaining)
	assert.Equal(t, pomoclock.SessionPhase, s.Phase)
	assert.Equal(t, 1, ul.cues(CuePlay))

	last := ul.all()[len(ul.all())-1]
	assert.True(t, last.View.PlayCue)
	assert.Equal(t, "00:00", last.View.RemainingLabel)
	assert.False(t, m.View().PlayCue, "cue is an event, not state")
}

func TestTick_ZeroSwitchesPhase(t *testing.T) {
	t.Parallel()
	m, clock, ul := newTestMachine(t, EditsFollowActivePhase)
	m.state.Remaining = 0

	require.True(t, m.Start())
	clock.Advance(time.Second)

	s := m.State()
	assert.Equal(t, pomoclock.BreakPhase, s.Phase)
	assert.Equal(t, 300, s.Remaining)
	assert.True(t, s.Running)
	assert.Equal(t, 1, clock.Pending(), "old handle cancelled, new one live")
	assert.Zero(t, ul.cues(CuePlay))

	for _, u := range ul.all() {
		assert.GreaterOrEqual(t, u.View.Remaining, 0, "negative countdown leaked")
	}
	last := ul.all()[len(ul.all())-1]
	require.NotNil(t, last.Transition)
	assert.Equal(t, pomoclock.SessionPhase, last.Transition.From)
	assert.Equal(t, pomoclock.BreakPhase, last.Transition.To)
	assert.Equal(t, 25, last.Transition.LengthMinutes)
	assert.Equal(t, epoch.Add(time.Second), last.Transition.At)
}

func TestFullCycle(t *testing.T) {
	t.Parallel()
	m, clock, ul := newTestMachine(t, EditsFollowActivePhase)

	require.True(t, m.Start())

	clock.Advance(1500 * time.Second)
	assert.Equal(t, pomoclock.SessionPhase, m.State().Phase)
	assert.Equal(t, 0, m.State().Remaining)
	assert.Equal(t, 1, ul.cues(CuePlay))

	clock.Advance(time.Second)
	assert.Equal(t, pomoclock.BreakPhase, m.State().Phase)
	assert.Equal(t, 300, m.State().Remaining)
	assert.Equal(t, 1, ul.cues(CuePlay))

	clock.Advance(301 * time.Second)
	assert.Equal(t, pomoclock.SessionPhase, m.State().Phase)
	assert.Equal(t, 1500, m.State().Remaining)
	assert.Equal(t, 2, ul.cues(CuePlay))
	assert.True(t, m.State().Running)
	assert.Equal(t, 1, clock.Pending())

	var transitions []Transition
	for _, u := range ul.all() {
		if u.Transition != nil {
			transitions = append(transitions, *u.Transition)
		}
	}
	require.Len(t, transitions, 2)
	assert.Equal(t, pomoclock.BreakPhase, transitions[1].From)
	assert.Equal(t, 5, transitions[1].LengthMinutes)
}

func TestReset(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		setup func(m *Machine, clock *tickertest.Clock)
	}{
		{
			name:  "idle defaults",
			setup: func(m *Machine, clock *tickertest.Clock) {},
		},
		{
			name: "idle with edits",
			setup: func(m *Machine, clock *tickertest.Clock) {
				m.AdjustLength(pomoclock.SessionPhase, 1)
				m.AdjustLength(pomoclock.BreakPhase, -1)
			},
		},
		{
			name: "running break",
			setup: func(m *Machine, clock *tickertest.Clock) {
				m.state.Remaining = 0
				m.Start()
				clock.Advance(5 * time.Second)
			},
		},
		{
			name: "paused mid session",
			setup: func(m *Machine, clock *tickertest.Clock) {
				m.Start()
				clock.Advance(42 * time.Second)
				m.Pause()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, clock, ul := newTestMachine(t, EditsFollowActivePhase)
			tc.setup(m, clock)

			m.Reset()

			assert.Equal(t, defaultState(), m.State())
			assert.Zero(t, clock.Pending())
			assert.Equal(t, 1, ul.cues(CueStop))

			clock.Advance(time.Minute)
			assert.Equal(t, defaultState(), m.State(), "no ticks after reset")
		})
	}
}

func TestTick_StaleGenerationIgnored(t *testing.T) {
	t.Parallel()
	m, clock, _ := newTestMachine(t, EditsFollowActivePhase)

	require.True(t, m.Start())
	stale := m.gen
	clock.Advance(time.Second)
	require.True(t, m.Pause())
	require.True(t, m.Start())

	before := m.State()
	m.tick(stale)
	assert.Equal(t, before, m.State())

	require.True(t, m.Pause())
	paused := m.State()
	m.tick(m.gen)
	assert.Equal(t, paused, m.State())
}

func TestClose(t *testing.T) {
	t.Parallel()
	m, clock, _ := newTestMachine(t, EditsFollowActivePhase)

	require.True(t, m.Start())
	m.Close()

	assert.Zero(t, clock.Pending())
	assert.False(t, m.State().Running)
	assert.False(t, m.Start())
}

func TestUpdates_SeqIncreases(t *testing.T) {
	t.Parallel()
	m, clock, ul := newTestMachine(t, EditsFollowActivePhase)

	m.AdjustLength(pomoclock.BreakPhase, 1)
	m.Start()
	clock.Advance(3 * time.Second)
	m.Pause()
	m.Reset()

	updates := ul.all()
	require.Len(t, updates, 7)
	for i := 1; i < len(updates); i++ {
		assert.Greater(t, updates[i].View.Seq, updates[i-1].View.Seq)
	}
	assert.Equal(t, updates[len(updates)-1].View.Seq, m.View().Seq)
}

func TestMachine_ConcurrentIntents(t *testing.T) {
	t.Parallel()
	m := New(Options{Period: time.Millisecond, Logger: log.New(io.Discard)})
	defer m.Close()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 200 {
				switch (i + j) % 4 {
				case 0:
					m.ToggleStartPause()
				case 1:
					m.AdjustLength(pomoclock.SessionPhase, 1)
				case 2:
					m.AdjustLength(pomoclock.BreakPhase, -1)
				case 3:
					_ = m.View()
				}
			}
		})
	}
	wg.Wait()
	m.Reset()

	assert.Equal(t, defaultState(), m.State())
	m.mu.Lock()
	assert.Nil(t, m.handle)
	m.mu.Unlock()
}
