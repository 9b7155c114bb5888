// Package enforcer собирает и запускает фоновый сервис коррекции
// истекших пробных периодов.
package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/daryakhm/storefront-core/internal/cache"
	"github.com/daryakhm/storefront-core/internal/config"
	"github.com/daryakhm/storefront-core/internal/lib/rabbitmq"
	accountservice "github.com/daryakhm/storefront-core/internal/services/accounts"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
	"github.com/daryakhm/storefront-core/internal/storage/repository"
)

// App представляет приложение энфорсера.
type App struct {
	enforcerService *enforcerservice.EnforcerService
	sweepInterval   time.Duration
	conn            *amqp.Connection
	ch              *amqp.Channel
	logger          *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения энфорсера.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	// Коррекция пишет через сервис профиля, чтобы живые сессии получили
	// свежие снимки после понижения аккаунта.
	accountService := accountservice.NewAccountService(db, cacheRedis, logger)
	enforcerService := enforcerservice.NewEnforcerService(db, accountService, logger)

	return &App{
		enforcerService: enforcerService,
		sweepInterval:   cfg.SweepInterval,
		conn:            conn,
		ch:              ch,
		logger:          logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает цикл обхода и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.enforcerService.Run(ctx, a.ch, a.sweepInterval)

	<-ctx.Done()

	a.logger.Info("shutting down enforcer service")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
