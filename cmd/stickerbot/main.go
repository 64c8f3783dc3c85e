package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deepakdhakad/stickerbot/internal/api"
	"github.com/deepakdhakad/stickerbot/internal/config"
	"github.com/deepakdhakad/stickerbot/internal/memory"
	"github.com/deepakdhakad/stickerbot/internal/pipeline"
	"github.com/deepakdhakad/stickerbot/internal/reply"
	"github.com/deepakdhakad/stickerbot/internal/sticker"
	"github.com/deepakdhakad/stickerbot/internal/whatsapp"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "stickerbot",
		Short: "stickerbot - WhatsApp bot that converts images to stickers",
	}

	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging)

			store, err := setupMemory(cfg.Memory, log)
			if err != nil {
				return fmt.Errorf("failed to setup chat history store: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(context.Background()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			wa := whatsapp.NewClient(cfg.WhatsApp, log)
			codec := sticker.NewWebpmuxCodec(cfg.Pipeline.WebpmuxPath, cfg.Pipeline.TempDir, log)
			responder := reply.NewEchoResponder(store, cfg.Memory.ContextLimit, log)

			runner := pipeline.NewRunner(wa, codec, responder, store, cfg.Pipeline.NotifyFailures, log)
			pool := pipeline.NewPool(cfg.Pipeline, runner, log)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			webhook := api.NewWebhookHandler(cfg.WhatsApp.VerifyToken, cfg.WhatsApp.AppSecret, pool, log)
			server := api.NewServer(cfg.Server, webhook, log)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server error")
				}
			}()

			log.Info().
				Str("version", version).
				Int("port", cfg.Server.Port).
				Int("workers", cfg.Pipeline.Workers).
				Str("api_version", cfg.WhatsApp.APIVersion).
				Msg("stickerbot is running")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down...")

			if err := server.Shutdown(10 * time.Second); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			pool.Stop()

			log.Info().Msg("stickerbot stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run chat history store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := setupLogger(cfg.Logging)

			store, err := setupMemory(cfg.Memory, log)
			if err != nil {
				return fmt.Errorf("failed to setup chat history store: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(context.Background()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			log.Info().Msg("migrations completed successfully")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stickerbot v%s\n", version)
		},
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setupMemory(cfg config.MemoryConfig, log zerolog.Logger) (memory.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLite.Path).Msg("using SQLite chat history store")
		return memory.NewSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported memory driver: %s", cfg.Driver)
	}
}
