package main

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

// clockController is the part of timer.Machine the hooks drive.
type clockController interface {
	AdjustLength(phase pomoclock.Phase, delta int) bool
	ToggleStartPause()
	Reset()
	View() timer.View
}

var _ clockController = (*timer.Machine)(nil)

type pinner interface {
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageUnpin(channelID, messageID string, options ...discordgo.RequestOption) error
}

// PostClock posts the clock in the invoking channel. There is only one clock:
// a previous clock message is replaced by a pointer to the new one.
func PostClock(ctx context.Context, ctl clockController, editor *clockEditor, dm DiscordMessenger, p pinner, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	if m.ApplicationCommandData().Name != pomoclock.ClockCommand.Name {
		return false
	}

	v := ctl.View()
	msg, err := dm.Respond(m.Interaction, true, editor.Components(ctx, v)...)
	if err != nil {
		log.Error("failed to post clock", "channelID", m.ChannelID, "err", err)
		return true
	}

	prevCID, prevMID := editor.Attach(m.ChannelID, msg.ID, v)
	log.Info("posted clock", "channelID", m.ChannelID, "messageID", msg.ID)
	if err := p.ChannelMessagePin(m.ChannelID, msg.ID); err != nil {
		log.Error("failed to pin message", "err", err)
	}

	if prevMID == "" || prevMID == msg.ID {
		return true
	}
	if _, err := dm.EditChannelMessage(prevCID, prevMID, movedMessage(m.ChannelID)...); err != nil {
		log.Error("failed to edit previous clock message", "channelID", prevCID, "messageID", prevMID, "err", err)
	}
	if err := p.ChannelMessageUnpin(prevCID, prevMID); err != nil {
		log.Error("failed to unpin previous clock message", "channelID", prevCID, "messageID", prevMID, "err", err)
	}
	return true
}

// ClockButton applies a clock message button press. The resulting machine
// update re-renders the message.
func ClockButton(ctl clockController, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionMessageComponent {
		return false
	}

	data := m.MessageComponentData()
	id, err := FromCustomID(data.CustomID)
	if err != nil {
		return false
	}
	if id.Type != clockInteractionType {
		return false
	}

	if err := dm.DeferMessageUpdate(m.Interaction); err != nil {
		log.Error("failed ClockButton ack", "err", err)
		return true
	}
	if !applyClockAction(ctl, id.Action) {
		log.Debug("clock action had no effect", "action", id.Action)
	}
	return true
}

// applyClockAction reports whether action changed the clock.
func applyClockAction(ctl clockController, action string) bool {
	switch action {
	case actionBreakDecrement:
		return ctl.AdjustLength(pomoclock.BreakPhase, -1)
	case actionBreakIncrement:
		return ctl.AdjustLength(pomoclock.BreakPhase, 1)
	case actionSessionDecrement:
		return ctl.AdjustLength(pomoclock.SessionPhase, -1)
	case actionSessionIncrement:
		return ctl.AdjustLength(pomoclock.SessionPhase, 1)
	case actionStartStop:
		ctl.ToggleStartPause()
		return true
	case actionReset:
		ctl.Reset()
		return true
	default:
		log.Warn("unknown clock action", "action", action)
		return false
	}
}

func ResetClock(ctl clockController, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	if m.ApplicationCommandData().Name != pomoclock.ResetCommand.Name {
		return false
	}

	ctl.Reset()
	log.Info("reset clock", "channelID", m.ChannelID)
	if err := dm.RespondEphemeral(m.Interaction, "Clock reset to 25 + 5."); err != nil {
		log.Error(err)
	}
	return true
}
