package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talento/internal/app"
	"talento/internal/bot"
	"talento/internal/config"
	"talento/internal/export"
	"talento/internal/metrics"
	"talento/internal/service"
	"talento/internal/shell"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := app.LoadConfig("")
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg, "bot-main")
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("Cleanup failed")
		}
	}()
	logger := rt.Logger

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	if cfg.API.Enabled {
		statusServer := rt.StatusServer()
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Status server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = statusServer.Shutdown(shutdownCtx)
		}()
	}

	return startBot(ctx, cfg, rt, logger)
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Failed to create export directory")
		return err
	}
	return nil
}

func startBot(ctx context.Context, cfg *config.Config, rt *app.Runtime, logger *zerolog.Logger) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService := service.NewTelegramService(service.NewAPISender(botAPI))

	var botMetrics *bot.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		botMetrics = bot.NewMetrics(nil)
	}

	telegramBot, err := bot.NewBot(
		tgService, cfg, rt.Sessions, rt.Backend,
		shell.New(rt.Sessions, logger), rt.Hub,
		export.New(cfg.Exports.Path, logger), botMetrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create bot")
		return err
	}

	logger.Info().Str("bot", botAPI.Self.UserName).Msg("Bot started")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
