// ABOUTME: Root command wiring config, logging and storage for every subcommand.
// ABOUTME: Opens the diary before a command runs and closes it on exit.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/harper/diary/internal/config"
	"github.com/harper/diary/internal/diary"
	"github.com/harper/diary/internal/logging"
	"github.com/harper/diary/internal/store"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
	logger  *zap.Logger
	app     *diary.App
)

var rootCmd = &cobra.Command{
	Use:   "diary",
	Short: "A themed personal diary kept on this machine",
	Long: `diary keeps dated, themed entries with attached files in a local
SQLite database. When SQLite cannot be opened it falls back to a single
document store with a size quota.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	defer closeApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		return err
	}
	return nil
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger, err = logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return err
	}

	app, err = diary.Open(diary.OptionsFromConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to open diary: %w", err)
	}

	if app.Status == store.Degraded {
		fmt.Fprintln(os.Stderr, ui.Warning("SQLite storage is unavailable; entries are kept in the fallback blob store"))
	}
	logger.Debug("diary opened",
		zap.String("command", cmd.Name()),
		zap.String("engine", app.Backend.Engine()),
		zap.Stringer("status", app.Status))
	return nil
}

func closeApp() {
	if app != nil {
		if err := app.Close(); err != nil {
			fmt.Fprintln(os.Stderr, ui.Error(fmt.Sprintf("failed to close diary: %v", err)))
		}
		app = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/diary/config.yaml)")
	flags.String("data-dir", "", "directory holding the diary database")
	flags.String("engine", "", "storage engine: auto, sqlite, blob or memory")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	_ = v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyEngine, flags.Lookup("engine"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
}
