// cmd/bot/main.go
package main

import (
	"budget-tracker/internal/auth"
	"budget-tracker/internal/bot"
	"budget-tracker/internal/config"
	"budget-tracker/internal/logging"
	"budget-tracker/internal/storage/postgres"
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg := config.MustLoad()
	log := logging.Setup(cfg.Env)

	if cfg.TelegramToken == "" {
		log.Error("TELEGRAM_BOT_TOKEN not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DBConn, cfg.DBRetries)
	if err != nil {
		log.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStorage(pool)
	authSvc := auth.NewService(store, auth.NewTokenService(cfg))

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Error("failed to init Telegram bot", "error", err)
		os.Exit(1)
	}
	api.Debug = cfg.Env == config.EnvLocal

	if err := bot.New(authSvc, store).Run(ctx, api); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}
