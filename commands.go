package pomoclock

import (
	"github.com/bwmarrin/discordgo"
)

var ClockCommand = discordgo.ApplicationCommand{
	Name:        "clock",
	Description: "post the pomodoro clock in this channel",
}

var ResetCommand = discordgo.ApplicationCommand{
	Name:        "reset",
	Description: "reset the pomodoro clock to 25 + 5",
}

// Commands lists everything cmd/register publishes.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		&ClockCommand,
		&ResetCommand,
	}
}
