package main

import (
	"context"
	"fmt"
	"os"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomoclock"
	"github.com/benjamonnguyen/pomoclock/sqlite"
	"github.com/benjamonnguyen/pomoclock/timer"
)

type options struct {
	configPath  string
	prod        bool
	dbPath      string
	logFile     string
	lengthEdits string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "pomoclock",
		Short: "A pomodoro clock for the terminal",
		Long: `pomoclock alternates Session and Break countdowns (25 + 5 by default).

Lengths can be edited between 1 and 60 minutes while the clock is paused.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "pomoclock.yaml", "path to YAML config")
	cmd.Flags().BoolVar(&opts.prod, "prod", false, "load .env instead of .env.dev")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "phase log database, overrides config")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "pomoclock.log", "log destination")
	cmd.Flags().StringVar(&opts.lengthEdits, "length-edits", "", `countdown follows "active" or "inactive" phase edits, overrides config`)
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := pomoclock.LoadConfig(opts.configPath, opts.prod)
	if err != nil {
		return err
	}
	if opts.dbPath != "" {
		cfg.DatabaseURL = opts.dbPath
	}
	switch opts.lengthEdits {
	case "":
	case pomoclock.LengthEditsActive, pomoclock.LengthEditsInactive:
		cfg.LengthEdits = opts.lengthEdits
	default:
		return fmt.Errorf("invalid --length-edits %q", opts.lengthEdits)
	}

	// logger; stdout belongs to the alt screen
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close() //nolint
	logger := log.NewWithOptions(f, log.Options{
		Level:           cfg.Level(),
		ReportCaller:    true,
		ReportTimestamp: true,
	})
	log.SetDefault(logger)

	// phase log
	var recorder *timer.PhaseRecorder
	if cfg.DatabaseURL != "" {
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close() //nolint
		tx, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
		recorder = timer.NewPhaseRecorder(sqlite.NewPhaseLogRepo(dbGetter, logger), tx, logger)
	}

	machine := timer.New(timer.Options{
		Logger:      logger,
		LengthEdits: timer.ParseLengthEditMode(cfg.LengthEdits),
	})
	defer machine.Close()

	var stats statsFunc
	if recorder != nil {
		machine.OnUpdate(recorder.Handle)
		stats = func() (map[pomoclock.Phase]int, error) {
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return recorder.CompletedSince(ctx, timer.StartOfDay(time.Now()))
		}
	}

	p := tea.NewProgram(
		newModel(machine, stats, os.Stderr, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	machine.OnUpdate(func(u timer.Update) {
		p.Send(updateMsg(u))
	})

	logger.Info("starting", "lengthEdits", cfg.LengthEdits, "phaseLog", recorder != nil)
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "err", err)
		return err
	}
	return nil
}
