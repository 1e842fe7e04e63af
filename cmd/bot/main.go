package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	dg "github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/discordgo"
	"github.com/benjamonnguyen/pomoclock/sqlite"
	"github.com/benjamonnguyen/pomoclock/ticker"
	"github.com/benjamonnguyen/pomoclock/timer"
)

const (
	RepoURL = "https://github.com/benjamonnguyen/pomoclock"
	Version = "0.1.0"
)

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "p", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "pomoclock.yaml", "path to YAML config")
	flag.Parse()

	// logger
	log.SetReportCaller(true)
	topCtx, topCtxC := context.WithCancel(context.Background())
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 10*time.Second)

	// config
	cfg, err := pomoclock.LoadConfig(configPath, isProd)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())

	// phase log
	var recorder *timer.PhaseRecorder
	if cfg.DatabaseURL != "" {
		log.Info("opening db", "url", cfg.DatabaseURL)
		db, err := sqlite.Open(initTimeout, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed database open", "err", err)
		}
		defer db.Close() //nolint

		tx, dbGetter := txStdLib.NewTransactor(
			db,
			txStdLib.NestedTransactionsSavepoints,
		)
		recorder = timer.NewPhaseRecorder(sqlite.NewPhaseLogRepo(dbGetter, log.Default()), tx, log.Default())
	}

	// set up discord cl
	cl, err := dg.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}
	cl.ShouldRetryOnRateLimit = false
	cl.Client = &http.Client{Timeout: (20 * time.Second)}
	cl.UserAgent = fmt.Sprintf("%s (%s, v%s)", cfg.BotName, RepoURL, Version)
	cl.ShouldReconnectVoiceOnSessionError = true
	cl.Identify.Intents = dg.IntentsGuilds | dg.IntentsGuildVoiceStates

	dm := NewDiscordMessenger(cl)
	discordAdapter := discordgo.NewDiscordAdapter(cl, log.Default())

	cuePackets, err := loadOpusFile(cfg.CueSoundPath)
	if err != nil {
		log.Fatal("failed to load cue sound", "path", cfg.CueSoundPath, "err", err)
	}
	log.Info("loaded cue sound", "path", cfg.CueSoundPath, "packets", len(cuePackets))

	// clock
	machine := timer.New(timer.Options{
		Logger:      log.Default(),
		LengthEdits: timer.ParseLengthEditMode(cfg.LengthEdits),
	})

	var stats statsFunc
	if recorder != nil {
		stats = func(ctx context.Context) (map[pomoclock.Phase]int, error) {
			return recorder.CompletedSince(ctx, timer.StartOfDay(time.Now()))
		}
		machine.OnUpdate(recorder.Handle)
	}
	editor := newClockEditor(dm, stats, log.Default())
	cues := newCuePlayer(
		topCtx,
		cuePackets,
		cfg.GuildID,
		cfg.VoiceChannelID,
		discordAdapter.SendOpusAudio,
		discordAdapter.SendChannelMessage,
		editor.ChannelID,
		log.Default(),
	)
	machine.OnUpdate(editor.Handle)
	machine.OnUpdate(cues.Handle)

	// countdown refresh, throttled to spare the rate limit
	refresher := ticker.Start(ticker.SystemClock, cfg.UpdateInterval, func() {
		if v := machine.View(); v.Running {
			editor.Render(topCtx, v)
		}
	})

	// discord event hooks
	cl.AddHandler(func(s *dg.Session, m *dg.InteractionCreate) {
		_ = PostClock(topCtx, machine, editor, dm, s, m) ||
			ClockButton(machine, dm, m) ||
			ResetClock(machine, dm, m)
	})

	// open connection
	if err := cl.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	log.Info(cfg.BotName + " running. Press CTRL-C to exit.")

	// init done
	initTimeoutC()

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	log.Info("terminating " + cfg.BotName)
	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), time.Minute)
	go func() {
		// to ensure proper shutdown ordering...
		refresher.Cancel()
		machine.Close()
		cues.Close()
		if cfg.GuildID != "" {
			if err := discordAdapter.Disconnect(cfg.GuildID); err != nil {
				log.Error(err)
			}
		}
		if err := cl.Close(); err != nil {
			log.Error(err)
		}
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		log.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}
}
