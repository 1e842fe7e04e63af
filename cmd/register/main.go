package main

import (
	"flag"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
)

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "prod", false, "")
	flag.StringVar(&configPath, "config", "pomoclock.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := pomoclock.LoadConfig(configPath, isProd)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal(err)
	}

	bot, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}

	// Open a connection
	if err := bot.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	defer bot.Close() //nolint

	app, err := bot.Application("@me")
	if err != nil {
		log.Fatal("failed to get application", "err", err)
	}

	// empty guildID registers globally
	created, err := bot.ApplicationCommandBulkOverwrite(app.ID, cfg.GuildID, pomoclock.Commands())
	if err != nil {
		log.Fatal(err)
	}

	for _, cmd := range created {
		fmt.Printf("%s: %s\n", cmd.Name, cmd.Description)
	}
}
