package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/taskwatch/internal/model"
	"github.com/nhle/taskwatch/internal/notify"
	"github.com/nhle/taskwatch/internal/sched"
	"github.com/nhle/taskwatch/internal/store"
	"github.com/nhle/taskwatch/internal/workflow"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskwatch",
	Short: "Date-driven monitoring engine for tasks and projects",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the date-check and reminder schedulers until interrupted",
	RunE:  runWatcher,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(),
		"path to the configuration file")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatcher(cmd *cobra.Command, args []string) error {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = time.DateTime
	log := zerolog.New(consoleWriter).With().Timestamp().Logger()

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.UserID == "" {
		return fmt.Errorf("config %s: user_id must be set", configPath)
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	filter := notify.NewFilter(st)
	ledger := notify.NewLedger(st, filter, log)
	confirm := workflow.NewManager(st, ledger, nil, cfg.UserID, log)

	scanner := sched.NewScanner(
		st, ledger, confirm,
		cfg.UserID, cfg.TeamIDs,
		time.Duration(cfg.Watcher.ScanIntervalSec)*time.Second,
		log,
	)
	reminders := sched.NewReminderScanner(
		st, ledger,
		time.Duration(cfg.Watcher.ReminderIntervalSec)*time.Second,
		log,
	)

	go func() {
		for ev := range confirm.Events() {
			log.Info().
				Str("kind", string(ev.Kind)).
				Str("entity", string(ev.Entity)).
				Str("entity_id", ev.EntityID).
				Str("check_type", ev.CheckType).
				Msg("workflow event")
		}
	}()

	scanner.Start()
	reminders.Start()
	log.Info().Str("user_id", cfg.UserID).Str("db", cfg.DBPath).Msg("taskwatch started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	scanner.Stop()
	reminders.Stop()

	return nil
}
