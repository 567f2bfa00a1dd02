package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/wallbot/internal/access"
	"github.com/m3rciful/wallbot/internal/bot"
	"github.com/m3rciful/wallbot/internal/config"
	"github.com/m3rciful/wallbot/internal/database"
	"github.com/m3rciful/wallbot/internal/logger"
	"github.com/m3rciful/wallbot/internal/storage"
	"github.com/m3rciful/wallbot/internal/telegram"
	"log/slog"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("wallbot: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	store := storage.NewPostgresStore(db)
	policy := access.NewPolicy(store, store, cfg.Admin.Secret)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info(ctx, "app", "ready",
		slog.Duration("startup_duration", logger.Took(startedAt)),
	)

	err = telegram.Run(ctx, cfg, func(out bot.Outbox) *bot.App {
		return bot.NewApp(store, policy, out, cfg.Session.TTL())
	})

	logger.Info(context.Background(), "app", "shutdown")
	return err
}
