// Package discordgo provides Discord API adapters using package github.com/bwmarrin/discordgo
package discordgo

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

type discordgoAdapter struct {
	cl *discordgo.Session
	l  *log.Logger
}

func NewDiscordAdapter(cl *discordgo.Session, logger *log.Logger) *discordgoAdapter {
	if logger == nil {
		logger = log.Default()
	}
	return &discordgoAdapter{
		cl: cl,
		l:  logger,
	}
}

// SendOpusAudio joins the voice channel and streams packets until done or ctx
// is cancelled.
func (w *discordgoAdapter) SendOpusAudio(ctx context.Context, packets [][]byte, gID, cID string) error {
	if packets == nil {
		return nil
	}
	conn, err := w.cl.ChannelVoiceJoin(gID, cID, false, true)
	if err != nil {
		return err
	}
	if err := conn.Speaking(true); err != nil {
		return err
	}
	for _, p := range packets {
		select {
		case <-ctx.Done():
			_ = conn.Speaking(false)
			w.l.Debug("stopped opus audio", "guildID", gID, "channelID", cID)
			return ctx.Err()
		case conn.OpusSend <- p:
		}
	}
	return conn.Speaking(false)
}

func (w *discordgoAdapter) SendChannelMessage(cID, content string) error {
	_, err := w.cl.ChannelMessageSend(cID, content)
	return err
}

// Disconnect leaves the guild's voice channel, if connected.
func (w *discordgoAdapter) Disconnect(gID string) error {
	w.cl.RLock()
	conn := w.cl.VoiceConnections[gID]
	w.cl.RUnlock()
	if conn == nil {
		return nil
	}
	return conn.Disconnect()
}
