// Package cmd implements the locknote command line.
package cmd

import (
	"context"
	"os"

	"github.com/illarion/locknote/internal/config"
	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg      config.Config
	dbPath   string
	mirror   string
	logLevel string
	log      zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "locknote",
	Short: "Local notes with per-note password encryption",
	Long: `locknote keeps notes, folders and project boards in a local database.

Individual notes can be encrypted with a password (PBKDF2 + AES-256-GCM).
The session locks on demand or after inactivity, and the whole notebook
can be mirrored to a plain directory of markdown and YAML files.

Environment:
  LOCKNOTE_DB              database path (default ~/.locknote/notes.db)
  LOCKNOTE_MIRROR          mirror directory for sync
  LOCKNOTE_LOG_LEVEL       debug, info, warn or error
  LOCKNOTE_CHECK_INTERVAL  auto-lock check interval for watch
  LOCKNOTE_PASSWORD        note password for non-interactive use`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("db") {
			dbPath = cfg.DBPath
		}
		if !cmd.Flags().Changed("mirror") {
			mirror = cfg.MirrorDir
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.LogLevel
		}
		log = logging.New(logLevel, os.Stderr)
		crypto.SetLogger(log)
		return nil
	},
}

// Execute runs the command tree and reports errors.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		HandleError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func init() {
	cfg = config.Load()
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "path to the notes database")
	rootCmd.PersistentFlags().StringVar(&mirror, "mirror", cfg.MirrorDir, "mirror directory for sync")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

func options() core.Options {
	return core.Options{
		DBPath:        config.ExpandHome(dbPath),
		MirrorDir:     config.ExpandHome(mirror),
		CheckInterval: cfg.CheckInterval,
		Logger:        log,
	}
}

// openApp opens the database; the caller closes it.
func openApp() (*core.App, error) {
	return core.Open(options())
}

// withApp opens the database, runs fn and closes it, keeping fn's error
// first.
func withApp(fn func(app *core.App) error) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	err = fn(app)
	if cerr := app.Close(); err == nil {
		err = cerr
	}
	return err
}

// withUnlockedApp is withApp for commands that reveal note content.
func withUnlockedApp(fn func(app *core.App) error) error {
	return withApp(func(app *core.App) error {
		if err := app.RequireUnlocked(); err != nil {
			return err
		}
		return fn(app)
	})
}
