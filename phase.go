package pomoclock

import "strconv"

type Phase uint8

const (
	_ Phase = iota
	SessionPhase
	BreakPhase
)

func (p Phase) String() string {
	switch p {
	case SessionPhase:
		return "Session"
	case BreakPhase:
		return "Break"
	default:
		panic("no matching enum for Phase: " + strconv.Itoa(int(p)))
	}
}

// Other returns the phase that follows p.
func (p Phase) Other() Phase {
	if p == SessionPhase {
		return BreakPhase
	}
	return SessionPhase
}

func (p Phase) Valid() bool {
	return p == SessionPhase || p == BreakPhase
}

// Length bounds in minutes, inclusive.
const (
	MinLength = 1
	MaxLength = 60
)

// DefaultLengths is what a fresh or reset clock starts with.
var DefaultLengths = Lengths{Session: 25, Break: 5}

// Lengths holds the configured minutes for each phase.
type Lengths struct {
	Session, Break int
}

func (l Lengths) Get(p Phase) int {
	switch p {
	case SessionPhase:
		return l.Session
	case BreakPhase:
		return l.Break
	default:
		return 0
	}
}

// Seconds returns the configured length of p in seconds.
func (l Lengths) Seconds(p Phase) int {
	return l.Get(p) * 60
}

// With returns a copy of l with p set to minutes. Bounds are not checked.
func (l Lengths) With(p Phase, minutes int) Lengths {
	switch p {
	case SessionPhase:
		l.Session = minutes
	case BreakPhase:
		l.Break = minutes
	}
	return l
}

func InBounds(minutes int) bool {
	return minutes >= MinLength && minutes <= MaxLength
}
