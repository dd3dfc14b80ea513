package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"unisocial/cmd/app"
	"unisocial/internal/config"
	"unisocial/internal/logger"
)

func main() {
	// setting up config
	cfg := config.LoadConfig()

	if err := config.ParseFlags(cfg, os.Args[0], os.Args[1:]); err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("Некорректные параметры запуска")
		os.Exit(2)
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Auth.JWTSecretKey == "" {
		log.Warn().Msg("JWT_SECRET_KEY не задан, токены восстановления сессии отключены")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Не удалось запустить сервер")
		os.Exit(1)
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Str("database", cfg.DB.URL).
		Int("max_clients", cfg.Server.MaxClients).
		Msg("UniSocial сервер готов принимать клиентов")

	runErr := a.Run(ctx)
	a.Close()

	if runErr != nil {
		log.Error().Err(runErr).Msg("Сервер завершился с ошибкой")
		os.Exit(1)
	}
	log.Info().Msg("Сервер остановлен")
}
