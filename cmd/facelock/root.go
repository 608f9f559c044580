package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/facelock/internal/config"
	"github.com/dmitrijs2005/facelock/internal/logging"
	"github.com/dmitrijs2005/facelock/internal/templates"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// Shared state initialized in the root PersistentPreRunE and used by every
// subcommand.
var (
	cfg     *config.Config
	storage *templates.SQLiteStorage
	store   *templates.Store
	logger  logging.Logger

	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "facelock",
	Short:   "Offline face enrollment and verification over image files",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if dbPath != "" {
			cfg.StoragePath = dbPath
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		logger = logging.NewSlogLogger(slog.New(h))

		var err error
		storage, err = templates.OpenSQLite(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("opening storage %q: %w", cfg.StoragePath, err)
		}
		store = templates.NewStore(storage, cfg.PBKDF2Iterations, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storage != nil {
			_ = storage.Close()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Registered for help and validation only; config.LoadConfig reads the
	// value itself from os.Args via flagx.
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite template store (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
