package ticker

import "time"

// Timer is a pending one-shot wake-up.
type Timer interface {
	Stop() bool
}

// Clock is the time source a Handle schedules against.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is backed by package time.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}
