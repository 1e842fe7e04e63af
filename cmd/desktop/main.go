package main

import (
	"context"
	"flag"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/sqlite"
	"github.com/benjamonnguyen/pomoclock/timer"
)

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "p", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "pomoclock.yaml", "path to YAML config")
	flag.Parse()

	log.SetReportCaller(true)
	cfg, err := pomoclock.LoadConfig(configPath, isProd)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.Level())

	// phase log
	var stats statsFunc
	machine := timer.New(timer.Options{
		Logger:      log.Default(),
		LengthEdits: timer.ParseLengthEditMode(cfg.LengthEdits),
	})
	defer machine.Close()
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatal("failed database open", "err", err)
		}
		defer db.Close() //nolint

		tx, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
		recorder := timer.NewPhaseRecorder(sqlite.NewPhaseLogRepo(dbGetter, log.Default()), tx, log.Default())
		machine.OnUpdate(recorder.Handle)
		stats = func(ctx context.Context) (map[pomoclock.Phase]int, error) {
			return recorder.CompletedSince(ctx, timer.StartOfDay(time.Now()))
		}
	}

	fyneApp := app.NewWithID("com.benjamonnguyen.pomoclock")
	w := newClockWindow(fyneApp, machine, stats, log.Default())
	machine.OnUpdate(w.Handle)

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		desktopApp.SetSystemTrayMenu(fyne.NewMenu("Pomoclock",
			fyne.NewMenuItem("Start/Pause", machine.ToggleStartPause),
			fyne.NewMenuItem("Reset", machine.Reset),
			fyne.NewMenuItem("Show", w.window.Show),
		))
	} else {
		log.Debug("system tray unsupported on this platform")
	}

	w.ShowAndRun()
	log.Info("window closed")
}
