package main

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

const statsTimeout = 3 * time.Second

type statsFunc func(ctx context.Context) (map[pomoclock.Phase]int, error)

// clockEditor keeps the single clock message in sync with the machine.
type clockEditor struct {
	dm    DiscordMessenger
	stats statsFunc // nil when the phase log is disabled
	l     *log.Logger

	editMu sync.Mutex // serializes Discord edits

	mu        sync.Mutex
	channelID string
	messageID string
	last      timer.View
}

func newClockEditor(dm DiscordMessenger, stats statsFunc, logger *log.Logger) *clockEditor {
	if logger == nil {
		logger = log.Default()
	}
	return &clockEditor{
		dm:    dm,
		stats: stats,
		l:     logger,
	}
}

// Attach points the editor at a newly posted clock message and returns the
// previous location, if any.
func (e *clockEditor) Attach(channelID, messageID string, v timer.View) (prevChannelID, prevMessageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prevChannelID, prevMessageID = e.channelID, e.messageID
	e.channelID, e.messageID = channelID, messageID
	if v.Seq > e.last.Seq {
		e.last = v
	}
	return prevChannelID, prevMessageID
}

func (e *clockEditor) ChannelID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channelID
}

// Handle is a timer.Machine OnUpdate handler. Plain countdown ticks are left
// to Refresh.
func (e *clockEditor) Handle(u timer.Update) {
	e.mu.Lock()
	last := e.last
	e.mu.Unlock()
	if !significant(last, u) {
		return
	}
	go e.Render(context.Background(), u.View)
}

// Render edits the clock message to show v. Views older than the last
// rendered one are dropped. The I/O runs outside mu so Handle never waits on it.
func (e *clockEditor) Render(ctx context.Context, v timer.View) {
	e.mu.Lock()
	if e.messageID == "" {
		e.mu.Unlock()
		return
	}
	if v.Seq < e.last.Seq {
		e.mu.Unlock()
		e.l.Debug("dropped stale clock render", "seq", v.Seq, "last", e.last.Seq)
		return
	}
	e.last = v
	e.mu.Unlock()

	e.editMu.Lock()
	defer e.editMu.Unlock()

	// a newer view may have been queued while waiting for editMu
	e.mu.Lock()
	channelID, messageID := e.channelID, e.messageID
	superseded := v.Seq < e.last.Seq
	e.mu.Unlock()
	if superseded {
		return
	}

	_, err := e.dm.EditChannelMessage(channelID, messageID, ClockMessageComponents(v, e.completedToday(ctx))...)
	if err != nil {
		e.l.Error("failed to edit clock message", "channelID", channelID, "messageID", messageID, "err", err)
	}
}

func (e *clockEditor) Components(ctx context.Context, v timer.View) []discordgo.MessageComponent {
	return ClockMessageComponents(v, e.completedToday(ctx))
}

func (e *clockEditor) completedToday(ctx context.Context) map[pomoclock.Phase]int {
	if e.stats == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()
	counts, err := e.stats(ctx)
	if err != nil {
		e.l.Error("failed to count completed phases", "err", err)
		return nil
	}
	return counts
}

// significant reports whether u changes more than the countdown.
func significant(last timer.View, u timer.Update) bool {
	if u.Cue != timer.CueNone || u.Transition != nil {
		return true
	}
	v := u.View
	return v.Running != last.Running ||
		v.Phase != last.Phase ||
		v.Lengths != last.Lengths ||
		(!v.Running && v.Remaining != last.Remaining)
}
