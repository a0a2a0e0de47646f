package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eliseohh/notebot/internal/bot"
	"github.com/eliseohh/notebot/internal/config"
	"github.com/eliseohh/notebot/internal/store"
)

var (
	configPath string
	dbPath     string
	verbose    bool
	reset      bool
)

var rootCmd = &cobra.Command{
	Use:          "notebot",
	Short:        "Telegram bot for personal notes",
	Long:         `notebot keeps short text notes per Telegram user: add, list, edit and delete them from the chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err := setupLogger(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		b, err := bot.New(bot.Config{Token: cfg.Token, PollTimeout: cfg.PollTimeout}, store.NewNoteStore(db), logger)
		if err != nil {
			return fmt.Errorf("bot init failed: %w", err)
		}

		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			<-ctx.Done()
			logger.Info("shutting down")
			b.Stop()
		}()

		b.Start()
		<-stopped
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&reset, "reset", false, "Drop all notes before applying the schema")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

// openStore opens the database and makes sure the schema exists.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.DB, error) {
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if reset {
		logger.Warn("dropping all notes", "db", cfg.DBPath)
		if err := db.DropSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema init failed: %w", err)
	}

	logger.Info("database ready", "db", cfg.DBPath)
	return db, nil
}
