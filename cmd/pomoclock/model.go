package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

const maxProgressWidth = 60

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6F61"))
	sessionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#57F287"))
	breakStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498DB"))
	remainingStyle = lipgloss.NewStyle().Bold(true).Padding(1, 0)
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#BCC0C0"))
	statsStyle     = lipgloss.NewStyle().Faint(true)
)

// clockController is the part of timer.Machine the view drives.
type clockController interface {
	AdjustLength(phase pomoclock.Phase, delta int) bool
	ToggleStartPause()
	Reset()
	View() timer.View
}

// updateMsg carries a machine update into the program.
type updateMsg timer.Update

type statsMsg struct {
	counts map[pomoclock.Phase]int
	err    error
}

type statsFunc func() (map[pomoclock.Phase]int, error)

type model struct {
	clock clockController
	stats statsFunc // nil when the phase log is disabled
	bell  io.Writer
	l     *log.Logger

	view      timer.View
	completed map[pomoclock.Phase]int

	keys     keyMap
	help     help.Model
	progress progress.Model
	width    int
}

func newModel(clock clockController, stats statsFunc, bell io.Writer, logger *log.Logger) model {
	if logger == nil {
		logger = log.Default()
	}
	return model{
		clock:    clock,
		stats:    stats,
		bell:     bell,
		l:        logger,
		view:     clock.View(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m model) Init() tea.Cmd {
	return m.fetchStatsCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-4, 10), maxProgressWidth)
		return m, nil

	case updateMsg:
		if msg.View.Seq < m.view.Seq {
			m.l.Debug("dropped stale update", "seq", msg.View.Seq, "last", m.view.Seq)
			return m, nil
		}
		m.view = msg.View
		var cmds []tea.Cmd
		if msg.Cue == timer.CuePlay {
			cmds = append(cmds, m.ringCmd())
		}
		if msg.Transition != nil {
			cmds = append(cmds, m.fetchStatsCmd())
		}
		return m, tea.Batch(cmds...)

	case statsMsg:
		if msg.err != nil {
			m.l.Error("failed to count completed phases", "err", msg.err)
			return m, nil
		}
		m.completed = msg.counts
		return m, nil
	}
	return m, nil
}

// Intents run as commands: the machine reports back through updateMsg, which
// the program can only receive once Update has returned.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.StartPause):
		return m, m.intent(m.clock.ToggleStartPause)
	case key.Matches(msg, m.keys.Reset):
		return m, m.intent(m.clock.Reset)
	case key.Matches(msg, m.keys.SessionDown):
		return m, m.adjust(pomoclock.SessionPhase, -1)
	case key.Matches(msg, m.keys.SessionUp):
		return m, m.adjust(pomoclock.SessionPhase, 1)
	case key.Matches(msg, m.keys.BreakDown):
		return m, m.adjust(pomoclock.BreakPhase, -1)
	case key.Matches(msg, m.keys.BreakUp):
		return m, m.adjust(pomoclock.BreakPhase, 1)
	}
	return m, nil
}

func (m model) intent(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m model) adjust(phase pomoclock.Phase, delta int) tea.Cmd {
	return func() tea.Msg {
		if !m.clock.AdjustLength(phase, delta) {
			m.l.Debug("length edit rejected", "phase", phase, "delta", delta)
		}
		return nil
	}
}

func (m model) ringCmd() tea.Cmd {
	return func() tea.Msg {
		if _, err := io.WriteString(m.bell, "\a"); err != nil {
			m.l.Error("failed to ring bell", "err", err)
		}
		return nil
	}
}

func (m model) fetchStatsCmd() tea.Cmd {
	if m.stats == nil {
		return nil
	}
	return func() tea.Msg {
		counts, err := m.stats()
		return statsMsg{counts: counts, err: err}
	}
}

func (m model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("🍅 Pomoclock") + "\n\n")

	phaseStyle := sessionStyle
	if m.view.Phase == pomoclock.BreakPhase {
		phaseStyle = breakStyle
	}
	label := phaseStyle.Render(m.view.PhaseLabel)
	if !m.view.Running {
		label += " " + pausedStyle.Render("(paused)")
	}
	sb.WriteString(label + "\n")
	sb.WriteString(remainingStyle.Render(m.view.RemainingLabel) + "\n")
	sb.WriteString(m.progress.ViewAs(m.view.Progress()) + "\n\n")

	sb.WriteString(fmt.Sprintf("%s %d min · %s %d min\n",
		pomoclock.SessionPhase, m.view.Lengths.Session,
		pomoclock.BreakPhase, m.view.Lengths.Break))
	if m.completed != nil {
		sb.WriteString(statsStyle.Render(fmt.Sprintf("Completed today: %d sessions, %d breaks",
			m.completed[pomoclock.SessionPhase], m.completed[pomoclock.BreakPhase])) + "\n")
	}

	sb.WriteString("\n" + m.help.View(m.keys))
	return sb.String()
}
