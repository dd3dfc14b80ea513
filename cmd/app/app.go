package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"unisocial/internal/cache"
	"unisocial/internal/config"
	"unisocial/internal/database"
	handlers "unisocial/internal/handler"
	"unisocial/internal/metrics"
	"unisocial/internal/repository"
	"unisocial/internal/server"
	"unisocial/internal/service"
	"unisocial/internal/storage"
)

type App struct {
	Cfg      *config.Config
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Tokens   cache.TokenStore
	Metrics  *metrics.Metrics
	Server   *server.Server
	Admin    *http.Server
}

// NewStorage picks MinIO when an endpoint is configured and the upload directory otherwise.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.MinIO.Endpoint != "" {
		return storage.NewMinIOClient(ctx, cfg.MinIO)
	}
	return storage.NewLocalStorage(cfg.Avatar.UploadDir)
}

// NewTokenStore uses Redis when REDIS_ADDR is set and an in-process store otherwise.
func NewTokenStore(ctx context.Context, cfg *config.Config) (cache.TokenStore, error) {
	if cfg.Redis.Addr != "" {
		return cache.NewRedisTokenStore(ctx, cfg.Redis)
	}
	return cache.NewMemoryTokenStore(), nil
}

// Base opens the database and builds the services without any network surface.
func Base(ctx context.Context, cfg *config.Config) (*App, error) {
	// connection DB
	db, err := database.ConnectDB(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	avatars, err := NewStorage(ctx, cfg)
	if err != nil {
		_ = db.CloseDB()
		return nil, fmt.Errorf("не удалось инициализировать хранилище аватаров: %w", err)
	}

	tokens, err := NewTokenStore(ctx, cfg)
	if err != nil {
		_ = db.CloseDB()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	// enabling dependencies
	repo := repository.NewRepository(db)
	services := service.NewService(repo, cfg, avatars, tokens)

	return &App{
		Cfg:      cfg,
		DB:       db,
		Repo:     repo,
		Services: services,
		Tokens:   tokens,
	}, nil
}

// New builds the whole server: storage, services, dispatcher, listener and admin endpoint.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a, err := Base(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.Metrics = metrics.New()
	handler := handlers.NewHandlers(a.Services, a.Metrics, cfg.Server.ReadTimeout)
	a.Server = server.New(handler, cfg.Server.MaxClients, a.Metrics)

	if cfg.Server.MetricsAddr != "" {
		a.Admin = metrics.NewAdminServer(cfg.Server.MetricsAddr, a.DB, a.Metrics)
	}

	if err := a.Server.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		a.Close()
		return nil, fmt.Errorf("не удалось открыть порт %d: %w", cfg.Server.Port, err)
	}
	return a, nil
}

// Run serves clients until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.Admin != nil {
		go func() {
			log.Info().Str("addr", a.Admin.Addr).Msg("Административный HTTP сервер запущен")
			if err := a.Admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Ошибка административного HTTP сервера")
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Server.Serve() }()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("ошибка сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.Admin != nil {
		if err := a.Admin.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Административный сервер остановлен с ошибкой")
		}
	}

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Не все соединения завершились вовремя")
	}
	return <-serveErr
}

// Close releases the token store and the database.
func (a *App) Close() {
	if a.Tokens != nil {
		if err := a.Tokens.Close(); err != nil {
			log.Warn().Err(err).Msg("Ошибка при закрытии хранилища токенов")
		}
	}
	if a.DB != nil {
		if err := a.DB.CloseDB(); err != nil {
			log.Warn().Err(err).Msg("Ошибка при закрытии БД")
		}
	}
}
