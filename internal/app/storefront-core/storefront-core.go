// Package storefrontcore собирает и запускает основной HTTP-сервис:
// хранилище, кеш и шину снимков на Redis, канал RabbitMQ для почтовых
// событий, бизнес-сервисы и маршруты.
package storefrontcore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/daryakhm/storefront-core/internal/cache"
	"github.com/daryakhm/storefront-core/internal/config"
	"github.com/daryakhm/storefront-core/internal/lib/jwt"
	"github.com/daryakhm/storefront-core/internal/lib/rabbitmq"
	"github.com/daryakhm/storefront-core/internal/migrations"
	accountservice "github.com/daryakhm/storefront-core/internal/services/accounts"
	authservice "github.com/daryakhm/storefront-core/internal/services/auth"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
	notificationservice "github.com/daryakhm/storefront-core/internal/services/notifications"
	requestservice "github.com/daryakhm/storefront-core/internal/services/requests"
	"github.com/daryakhm/storefront-core/internal/storage/repository"
)

// App представляет основной HTTP-сервис.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение: подключения, миграции, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	accountService := accountservice.NewAccountService(db, cacheRedis, logger)
	authService := authservice.NewAuthService(db, accountService, jwtMaker, cfg.TrialDays, logger)
	notificationService := notificationservice.NewNotificationService(db, cacheRedis, logger)
	requestService := requestservice.NewRequestService(db, accountService, notificationService, ch, logger)
	enforcerService := enforcerservice.NewEnforcerService(db, accountService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, accountService, requestService, notificationService, enforcerService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
