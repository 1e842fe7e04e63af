package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

type (
	sendOpusAudioFunc func(ctx context.Context, packets [][]byte, gID, cID string) error
	sendTextFunc      func(cID, content string) error
)

// cuePlayer plays the phase-over cue into the configured voice channel. When
// no voice channel or sound is configured it posts a text cue next to the
// clock message instead.
type cuePlayer struct {
	parent   context.Context
	packets  [][]byte
	guildID  string
	voiceCID string

	sendAudio sendOpusAudioFunc
	sendText  sendTextFunc
	textCID   func() string
	l         *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newCuePlayer(
	ctx context.Context,
	packets [][]byte,
	guildID, voiceCID string,
	sendAudio sendOpusAudioFunc,
	sendText sendTextFunc,
	textCID func() string,
	logger *log.Logger,
) *cuePlayer {
	if logger == nil {
		logger = log.Default()
	}
	return &cuePlayer{
		parent:    ctx,
		packets:   packets,
		guildID:   guildID,
		voiceCID:  voiceCID,
		sendAudio: sendAudio,
		sendText:  sendText,
		textCID:   textCID,
		l:         logger,
	}
}

// Handle is a timer.Machine OnUpdate handler.
func (p *cuePlayer) Handle(u timer.Update) {
	switch u.Cue {
	case timer.CuePlay:
		p.play(u.View.Phase)
	case timer.CueStop:
		p.stop()
	}
}

func (p *cuePlayer) play(phase pomoclock.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// restart from the beginning
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel

	p.wg.Go(func() {
		defer cancel()
		if p.voiceCID != "" && len(p.packets) > 0 {
			if err := p.sendAudio(ctx, p.packets, p.guildID, p.voiceCID); err != nil && ctx.Err() == nil {
				p.l.Error("failed to play cue", "guildID", p.guildID, "channelID", p.voiceCID, "err", err)
			}
			return
		}
		cID := p.textCID()
		if cID == "" {
			p.l.Debug("no channel for text cue", "phase", phase)
			return
		}
		if err := p.sendText(cID, fmt.Sprintf("⏰ %s is over!", phase)); err != nil {
			p.l.Error("failed to send text cue", "channelID", cID, "err", err)
		}
	})
}

func (p *cuePlayer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Close stops playback and waits for it to return.
func (p *cuePlayer) Close() {
	p.stop()
	p.wg.Wait()
}
