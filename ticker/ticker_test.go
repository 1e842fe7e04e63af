package ticker_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/benjamonnguyen/pomoclock/ticker"
	"github.com/benjamonnguyen/pomoclock/ticker/tickertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func TestStart_NoCumulativeDrift(t *testing.T) {
	t.Parallel()
	clock := tickertest.New(epoch)
	jitters := []time.Duration{0, 40 * time.Millisecond, 15 * time.Millisecond, 35 * time.Millisecond, 5 * time.Millisecond}
	i := 0
	clock.SetJitter(func() time.Duration {
		j := jitters[i%len(jitters)]
		i++
		return j
	})

	var fired []time.Time
	h := ticker.Start(clock, time.Second, func() {
		fired = append(fired, clock.Now())
	})
	defer h.Cancel()

	const n = 1000
	clock.Advance(n*time.Second + 100*time.Millisecond)

	require.Len(t, fired, n)
	for k, at := range fired {
		deadline := epoch.Add(time.Duration(k+1) * time.Second)
		late := at.Sub(deadline)
		assert.GreaterOrEqual(t, late, time.Duration(0), "tick %d fired early", k)
		assert.LessOrEqual(t, late, 40*time.Millisecond, "tick %d drifted", k)
	}
	// sum of inter-tick intervals stays N*period within one jitter
	total := fired[n-1].Sub(epoch)
	assert.InDelta(t, float64(n*time.Second), float64(total), float64(40*time.Millisecond))
	assert.Equal(t, uint64(n), h.Fires())
	assert.Zero(t, h.Skipped())
}

func TestStart_RescheduleBeforeCallback(t *testing.T) {
	t.Parallel()
	clock := tickertest.New(epoch)

	var h *ticker.Handle
	var pendingDuringCallback []int
	var nextDuringCallback []time.Time
	h = ticker.Start(clock, time.Second, func() {
		pendingDuringCallback = append(pendingDuringCallback, clock.Pending())
		nextDuringCallback = append(nextDuringCallback, h.Next())
	})
	defer h.Cancel()

	clock.Advance(3 * time.Second)

	assert.Equal(t, []int{1, 1, 1}, pendingDuringCallback)
	assert.Equal(t, []time.Time{
		epoch.Add(2 * time.Second),
		epoch.Add(3 * time.Second),
		epoch.Add(4 * time.Second),
	}, nextDuringCallback)
}

func TestStart_DefaultsPeriod(t *testing.T) {
	t.Parallel()
	clock := tickertest.New(epoch)

	count := 0
	h := ticker.Start(clock, 0, func() { count++ })
	defer h.Cancel()

	assert.Equal(t, ticker.DefaultPeriod, h.Period())
	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, count)
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, count)
}

func TestHandle_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("stops callbacks", func(t *testing.T) {
		t.Parallel()
		clock := tickertest.New(epoch)
		count := 0
		h := ticker.Start(clock, time.Second, func() { count++ })

		clock.Advance(2 * time.Second)
		h.Cancel()
		clock.Advance(10 * time.Second)

		assert.Equal(t, 2, count)
		assert.True(t, h.Cancelled())
		assert.Zero(t, clock.Pending())
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		clock := tickertest.New(epoch)
		h := ticker.Start(clock, time.Second, func() {})
		h.Cancel()
		h.Cancel()
		var nilHandle *ticker.Handle
		nilHandle.Cancel()
		assert.True(t, h.Cancelled())
	})

	t.Run("from inside callback", func(t *testing.T) {
		t.Parallel()
		clock := tickertest.New(epoch)
		count := 0
		var h *ticker.Handle
		h = ticker.Start(clock, time.Second, func() {
			count++
			h.Cancel()
		})

		clock.Advance(5 * time.Second)
		assert.Equal(t, 1, count)
		assert.Zero(t, clock.Pending())
	})
}

func TestStart_NoCatchUpAfterSuspend(t *testing.T) {
	t.Parallel()
	clock := tickertest.New(epoch)

	var fired []time.Time
	h := ticker.Start(clock, time.Second, func() { fired = append(fired, clock.Now()) })
	defer h.Cancel()

	clock.Jump(5500 * time.Millisecond)
	clock.Advance(0)

	require.Len(t, fired, 1, "missed ticks are not replayed")
	assert.Equal(t, uint64(4), h.Skipped())
	assert.Equal(t, epoch.Add(6*time.Second), h.Next(), "schedule stays on the start grid")

	clock.Advance(500 * time.Millisecond)
	require.Len(t, fired, 2)
	assert.Equal(t, epoch.Add(6*time.Second), fired[1])
}

func TestStart_LateByExactlyOnePeriodFires(t *testing.T) {
	t.Parallel()
	clock := tickertest.New(epoch)

	var fired []time.Time
	h := ticker.Start(clock, time.Second, func() { fired = append(fired, clock.Now()) })
	defer h.Cancel()

	// the 1s wake-up runs at 2s: the 2s deadline is due now, not missed
	clock.Jump(2 * time.Second)
	clock.Advance(0)

	require.Len(t, fired, 2)
	assert.Zero(t, h.Skipped())
	assert.Equal(t, epoch.Add(3*time.Second), h.Next())
}

func TestStart_SystemClock(t *testing.T) {
	t.Parallel()

	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	var once sync.Once
	h := ticker.Start(nil, 10*time.Millisecond, func() {
		if count.Add(1) == 5 {
			once.Do(wg.Done)
		}
	})

	wg.Wait()
	h.Cancel()
	after := count.Load()
	time.Sleep(50 * time.Millisecond)

	assert.GreaterOrEqual(t, after, int64(5))
	assert.LessOrEqual(t, count.Load(), after+1, "at most one in-flight callback after cancel")
}
