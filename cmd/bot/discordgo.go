package main

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/timer"
)

type DiscordMessenger interface {
	EditChannelMessage(cID, messageID string, components ...discordgo.MessageComponent) (*discordgo.Message, error)
	Respond(it *discordgo.Interaction, wait bool, components ...discordgo.MessageComponent) (*discordgo.Message, error)
	RespondEphemeral(it *discordgo.Interaction, content string) error
	DeferMessageUpdate(it *discordgo.Interaction) error
}

func NewDiscordMessenger(client *discordgo.Session) DiscordMessenger {
	return &messenger{
		client: client,
	}
}

type messenger struct {
	client *discordgo.Session
}

func (m *messenger) EditChannelMessage(cID, messageID string, components ...discordgo.MessageComponent) (*discordgo.Message, error) {
	return m.client.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    cID,
		ID:         messageID,
		Flags:      discordgo.MessageFlagsIsComponentsV2,
		Components: &components,
	})
}

// Respond returns message only when wait == true
func (m *messenger) Respond(it *discordgo.Interaction, wait bool, components ...discordgo.MessageComponent) (*discordgo.Message, error) {
	if err := m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:      discordgo.MessageFlagsIsComponentsV2,
			Components: components,
		},
	}); err != nil {
		return nil, err
	}
	if wait {
		return m.client.InteractionResponse(it)
	}
	return nil, nil
}

func (m *messenger) RespondEphemeral(it *discordgo.Interaction, content string) error {
	return m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	})
}

// DeferMessageUpdate acks a component interaction. The clock message itself is
// edited by the clock editor.
func (m *messenger) DeferMessageUpdate(it *discordgo.Interaction) error {
	return m.client.InteractionRespond(it, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

const clockInteractionType = "clock"

// Button actions carried in custom IDs.
const (
	actionBreakDecrement   = "break-dec"
	actionBreakIncrement   = "break-inc"
	actionSessionDecrement = "session-dec"
	actionSessionIncrement = "session-inc"
	actionStartStop        = "start_stop"
	actionReset            = "reset"
)

type InteractionID struct {
	Type   string
	Action string
}

func FromCustomID(customID string) (InteractionID, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return InteractionID{}, fmt.Errorf("invalid customID: %s", customID)
	}
	return InteractionID{
		Type:   parts[0],
		Action: parts[1],
	}, nil
}

func (id InteractionID) ToCustomID() string {
	return fmt.Sprintf("%s:%s", id.Type, id.Action)
}

func clockCustomID(action string) string {
	return InteractionID{Type: clockInteractionType, Action: action}.ToCustomID()
}

type Color int

const (
	ColorGreen     Color = 0x57f287
	ColorBlue      Color = 0x3498db
	ColorLightGrey Color = 0xbcc0c0
)

func (c Color) ToInt() *int {
	i := int(c)
	return &i
}

func TextDisplay(content string) discordgo.TextDisplay {
	return discordgo.TextDisplay{
		Content: content,
	}
}

// ClockMessageComponents renders v. completed may be nil when the phase log is
// disabled.
func ClockMessageComponents(v timer.View, completed map[pomoclock.Phase]int) []discordgo.MessageComponent {
	textParts := []string{
		"## " + v.PhaseLabel,
		"# " + v.RemainingLabel,
		v.TimerBar(),
		fmt.Sprintf("%s Length: %d min | %s Length: %d min",
			pomoclock.BreakPhase, v.Lengths.Break, pomoclock.SessionPhase, v.Lengths.Session),
	}
	if completed != nil {
		textParts = append(textParts, fmt.Sprintf("-# Completed today: %d sessions, %d breaks",
			completed[pomoclock.SessionPhase], completed[pomoclock.BreakPhase]))
	}

	accentColor := ColorLightGrey
	if v.Running {
		accentColor = ColorGreen
		if v.Phase == pomoclock.BreakPhase {
			accentColor = ColorBlue
		}
	}
	clockContainer := discordgo.Container{
		Components: []discordgo.MessageComponent{
			TextDisplay(strings.Join(textParts, "\n")),
		},
		AccentColor: accentColor.ToInt(),
	}

	lengthButton := func(label, action string) discordgo.Button {
		return discordgo.Button{
			Label:    label,
			Style:    discordgo.SecondaryButton,
			CustomID: clockCustomID(action),
			Disabled: v.Running,
		}
	}
	lengthRow := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			lengthButton("Break -", actionBreakDecrement),
			lengthButton("Break +", actionBreakIncrement),
			lengthButton("Session -", actionSessionDecrement),
			lengthButton("Session +", actionSessionIncrement),
		},
	}

	startStop := discordgo.Button{
		Label:    "Start",
		Style:    discordgo.SuccessButton,
		CustomID: clockCustomID(actionStartStop),
	}
	if v.Running {
		startStop.Label = "Pause"
		startStop.Style = discordgo.PrimaryButton
	}
	controlRow := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			startStop,
			discordgo.Button{
				Label:    "Reset",
				Style:    discordgo.DangerButton,
				CustomID: clockCustomID(actionReset),
			},
		},
	}

	return []discordgo.MessageComponent{
		clockContainer,
		lengthRow,
		controlRow,
	}
}

func movedMessage(channelID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		TextDisplay(fmt.Sprintf("The clock moved to <#%s>.", channelID)),
	}
}
