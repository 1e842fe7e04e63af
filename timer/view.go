package timer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/benjamonnguyen/pomoclock"
)

type Cue uint8

const (
	CueNone Cue = iota
	// CuePlay starts the cue from the beginning.
	CuePlay
	// CueStop stops the cue and rewinds it.
	CueStop
)

func (c Cue) String() string {
	switch c {
	case CuePlay:
		return "play"
	case CueStop:
		return "stop"
	default:
		return "none"
	}
}

// Transition describes a phase that ran to completion.
type Transition struct {
	From, To      pomoclock.Phase
	LengthMinutes int
	At            time.Time
}

func (t Transition) Record() pomoclock.PhaseRecord {
	return pomoclock.PhaseRecord{
		Phase:         t.From,
		LengthMinutes: t.LengthMinutes,
		CompletedAt:   t.At,
	}
}

type Update struct {
	View       View
	Cue        Cue
	Transition *Transition
}

// View is what a view layer renders.
type View struct {
	Seq            uint64
	Phase          pomoclock.Phase
	PhaseLabel     string
	RemainingLabel string
	Remaining      int
	Lengths        pomoclock.Lengths
	Running        bool
	PlayCue        bool
}

func newView(seq uint64, s State, playCue bool) View {
	return View{
		Seq:            seq,
		Phase:          s.Phase,
		PhaseLabel:     s.Phase.String(),
		RemainingLabel: FormatRemaining(s.Remaining),
		Remaining:      s.Remaining,
		Lengths:        s.Lengths,
		Running:        s.Running,
		PlayCue:        playCue,
	}
}

// Progress returns the remaining share of the active phase in [0, 1].
func (v View) Progress() float64 {
	total := v.Lengths.Seconds(v.Phase)
	if total <= 0 || v.Remaining <= 0 {
		return 0
	}
	return min(float64(v.Remaining)/float64(total), 1)
}

const (
	timerBarFilledChar = "⣶"
	timerBarEmptyChar  = "⡀"
	timerBarLength     = 20
)

// TimerBar renders Progress as a fixed width text bar.
func (v View) TimerBar() string {
	filled := min(int(math.Round(v.Progress()*timerBarLength*10)/10), timerBarLength)
	return strings.Repeat(timerBarFilledChar, filled) + strings.Repeat(timerBarEmptyChar, timerBarLength-filled)
}

// FormatRemaining renders seconds as MM:SS. Negative input renders as 00:00.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
