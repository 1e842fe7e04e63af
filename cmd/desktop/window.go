package main

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

const statsTimeout = 3 * time.Second

// clockController is the part of timer.Machine the window drives.
type clockController interface {
	AdjustLength(phase pomoclock.Phase, delta int) bool
	ToggleStartPause()
	Reset()
	View() timer.View
}

type statsFunc func(ctx context.Context) (map[pomoclock.Phase]int, error)

var (
	sessionColor = color.NRGBA{R: 87, G: 242, B: 135, A: 255}
	breakColor   = color.NRGBA{R: 52, G: 152, B: 219, A: 255}
	pausedColor  = color.NRGBA{R: 188, G: 192, B: 192, A: 255}
)

// clockWindow renders machine updates. Widget state is only touched on the
// fyne goroutine.
type clockWindow struct {
	window fyne.Window
	clock  clockController
	stats  statsFunc // nil when the phase log is disabled
	notify func(title, content string)
	do     func(func())
	l      *log.Logger

	phaseLabel     *canvas.Text
	remainingLabel *canvas.Text
	bar            *widget.ProgressBar
	sessionLength  *widget.Label
	breakLength    *widget.Label
	statsLabel     *widget.Label
	startPause     *widget.Button
	reset          *widget.Button
	lengthButtons  []*widget.Button

	last timer.View
}

func newClockWindow(app fyne.App, clock clockController, stats statsFunc, logger *log.Logger) *clockWindow {
	if logger == nil {
		logger = log.Default()
	}
	w := &clockWindow{
		window: app.NewWindow("Pomoclock"),
		clock:  clock,
		stats:  stats,
		notify: func(title, content string) {
			app.SendNotification(fyne.NewNotification(title, content))
		},
		do: fyne.Do,
		l:  logger,
	}

	w.phaseLabel = canvas.NewText("", sessionColor)
	w.phaseLabel.Alignment = fyne.TextAlignCenter
	w.phaseLabel.TextStyle = fyne.TextStyle{Bold: true}
	w.phaseLabel.TextSize = 20

	w.remainingLabel = canvas.NewText("--:--", color.White)
	w.remainingLabel.Alignment = fyne.TextAlignCenter
	w.remainingLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	w.remainingLabel.TextSize = 48

	w.bar = widget.NewProgressBar()
	w.bar.TextFormatter = func() string { return "" }

	w.sessionLength = widget.NewLabel("")
	w.breakLength = widget.NewLabel("")
	w.statsLabel = widget.NewLabel("")
	w.statsLabel.Hidden = stats == nil

	lengthButton := func(label string, phase pomoclock.Phase, delta int) *widget.Button {
		b := widget.NewButton(label, func() {
			if !w.clock.AdjustLength(phase, delta) {
				w.l.Debug("length edit rejected", "phase", phase, "delta", delta)
			}
		})
		w.lengthButtons = append(w.lengthButtons, b)
		return b
	}
	sessionRow := container.NewHBox(
		lengthButton("-", pomoclock.SessionPhase, -1),
		w.sessionLength,
		lengthButton("+", pomoclock.SessionPhase, 1),
	)
	breakRow := container.NewHBox(
		lengthButton("-", pomoclock.BreakPhase, -1),
		w.breakLength,
		lengthButton("+", pomoclock.BreakPhase, 1),
	)

	w.startPause = widget.NewButton("Start", w.clock.ToggleStartPause)
	w.startPause.Importance = widget.HighImportance
	w.reset = widget.NewButton("Reset", w.clock.Reset)
	w.reset.Importance = widget.DangerImportance

	w.window.SetContent(container.NewVBox(
		w.phaseLabel,
		w.remainingLabel,
		w.bar,
		container.NewGridWithColumns(2,
			container.NewCenter(sessionRow),
			container.NewCenter(breakRow),
		),
		container.NewGridWithColumns(2, w.startPause, w.reset),
		w.statsLabel,
	))
	w.window.Resize(fyne.NewSize(360, 300))

	w.render(clock.View())
	return w
}

// Handle is a timer.Machine OnUpdate handler.
func (w *clockWindow) Handle(u timer.Update) {
	w.do(func() {
		w.apply(u)
	})
}

func (w *clockWindow) apply(u timer.Update) {
	if u.View.Seq < w.last.Seq {
		w.l.Debug("dropped stale update", "seq", u.View.Seq, "last", w.last.Seq)
		return
	}
	w.render(u.View)
	if u.Cue == timer.CuePlay {
		w.notify("Pomoclock", fmt.Sprintf("%s is over!", u.View.PhaseLabel))
	}
	if u.Transition != nil {
		w.refreshStats()
	}
}

func (w *clockWindow) render(v timer.View) {
	w.last = v

	w.phaseLabel.Text = v.PhaseLabel
	switch {
	case !v.Running:
		w.phaseLabel.Color = pausedColor
	case v.Phase == pomoclock.BreakPhase:
		w.phaseLabel.Color = breakColor
	default:
		w.phaseLabel.Color = sessionColor
	}
	w.phaseLabel.Refresh()

	w.remainingLabel.Text = v.RemainingLabel
	w.remainingLabel.Refresh()
	w.bar.SetValue(v.Progress())

	w.sessionLength.SetText(fmt.Sprintf("%s %d min", pomoclock.SessionPhase, v.Lengths.Session))
	w.breakLength.SetText(fmt.Sprintf("%s %d min", pomoclock.BreakPhase, v.Lengths.Break))

	for _, b := range w.lengthButtons {
		if v.Running {
			b.Disable()
		} else {
			b.Enable()
		}
	}
	if v.Running {
		w.startPause.SetText("Pause")
	} else {
		w.startPause.SetText("Start")
	}
}

func (w *clockWindow) refreshStats() {
	if w.stats == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		counts, err := w.stats(ctx)
		if err != nil {
			w.l.Error("failed to count completed phases", "err", err)
			return
		}
		w.do(func() {
			w.statsLabel.SetText(fmt.Sprintf("Completed today: %d sessions, %d breaks",
				counts[pomoclock.SessionPhase], counts[pomoclock.BreakPhase]))
		})
	}()
}

func (w *clockWindow) ShowAndRun() {
	w.refreshStats()
	w.window.ShowAndRun()
}
