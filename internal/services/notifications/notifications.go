// Package services содержит бизнес-логику центра уведомлений: глобальные
// объявления с отметками о прочтении и персональные уведомления.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

const activeBroadcastsKey = "broadcasts:active"

// NotificationRepository описывает контракт для работы с уведомлениями в хранилище.
type NotificationRepository interface {
	// CreateBroadcast сохраняет глобальное уведомление и возвращает его ID.
	CreateBroadcast(ctx context.Context, b models.Broadcast) (string, error)
	// UpdateBroadcast обновляет глобальное уведомление.
	UpdateBroadcast(ctx context.Context, b models.Broadcast) (int, error)
	// DeleteBroadcast удаляет глобальное уведомление.
	DeleteBroadcast(ctx context.Context, id string) (int, error)
	// GetBroadcast возвращает глобальное уведомление по ID.
	GetBroadcast(ctx context.Context, id string) (*models.Broadcast, error)
	// ListActiveBroadcasts возвращает все активные уведомления.
	ListActiveBroadcasts(ctx context.Context) ([]*models.Broadcast, error)
	// ListActiveBroadcastsForAccount возвращает активные уведомления с признаком прочтения.
	ListActiveBroadcastsForAccount(ctx context.Context, accountUID string) ([]*models.BroadcastWithRead, error)
	// CountUnreadBroadcasts считает непрочитанные активные уведомления.
	CountUnreadBroadcasts(ctx context.Context, accountUID string) (int, error)
	// MarkBroadcastRead создает отметку о прочтении, повторная отметка — no-op.
	MarkBroadcastRead(ctx context.Context, accountUID, broadcastID string) error
	// CreateDirectNotification сохраняет персональное уведомление.
	CreateDirectNotification(ctx context.Context, n models.DirectNotification) (string, error)
	// ListDirectNotifications возвращает персональные уведомления аккаунта.
	ListDirectNotifications(ctx context.Context, accountUID string) ([]*models.DirectNotification, error)
	// MarkDirectNotificationRead помечает персональное уведомление прочитанным.
	MarkDirectNotificationRead(ctx context.Context, accountUID, id string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// NotificationService реализует центр уведомлений.
type NotificationService struct {
	repo  NotificationRepository
	cache Cache
	log   *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepository, cache Cache, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CreateBroadcast создает глобальное уведомление. Доступно только роли admin.
func (s *NotificationService) CreateBroadcast(ctx context.Context, role string, req models.DummyBroadcast) (string, error) {
	if role != string(models.RoleAdmin) {
		return "", apperr.ErrForbidden
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	id, err := s.repo.CreateBroadcast(ctx, models.Broadcast{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    isActive,
	})
	if err != nil {
		return "", err
	}
	s.invalidateActive()
	s.log.Info("broadcast created", slog.String("broadcast_id", id))
	return id, nil
}

// UpdateBroadcast изменяет глобальное уведомление. Доступно только роли admin.
func (s *NotificationService) UpdateBroadcast(ctx context.Context, role, id string, req models.DummyBroadcast) error {
	if role != string(models.RoleAdmin) {
		return apperr.ErrForbidden
	}
	current, err := s.repo.GetBroadcast(ctx, id)
	if err != nil {
		return err
	}
	isActive := current.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	rowsAffected, err := s.repo.UpdateBroadcast(ctx, models.Broadcast{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		IsActive:    isActive,
	})
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}
	s.invalidateActive()
	return nil
}

// DeleteBroadcast удаляет глобальное уведомление. Доступно только роли admin.
func (s *NotificationService) DeleteBroadcast(ctx context.Context, role, id string) error {
	if role != string(models.RoleAdmin) {
		return apperr.ErrForbidden
	}
	rowsAffected, err := s.repo.DeleteBroadcast(ctx, id)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}
	s.invalidateActive()
	return nil
}

// ListActive возвращает активные глобальные уведомления без привязки
// к аккаунту, через кеш. Используется административным обзором.
func (s *NotificationService) ListActive(ctx context.Context) ([]*models.Broadcast, error) {
	var cached []*models.Broadcast
	found, err := s.cache.Get(activeBroadcastsKey, &cached)
	if err != nil {
		s.log.Warn("failed to read broadcasts cache", slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	result, err := s.repo.ListActiveBroadcasts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(activeBroadcastsKey, result, time.Minute); err != nil {
		s.log.Warn("failed to cache broadcasts", slog.Any("err", err))
	}
	return result, nil
}

// ListForAccount возвращает активные глобальные уведомления с признаком
// прочтения данным аккаунтом. Признак вычисляется по отметкам, поэтому
// одно уведомление у одного аккаунта прочитано, у другого — нет.
func (s *NotificationService) ListForAccount(ctx context.Context, accountUID string) ([]*models.BroadcastWithRead, error) {
	return s.repo.ListActiveBroadcastsForAccount(ctx, accountUID)
}

// CountUnread возвращает число непрочитанных активных уведомлений аккаунта.
func (s *NotificationService) CountUnread(ctx context.Context, accountUID string) (int, error) {
	return s.repo.CountUnreadBroadcasts(ctx, accountUID)
}

// MarkRead помечает глобальное уведомление прочитанным для аккаунта.
// Операция идемпотентна: повторный вызов не меняет состояние и не ошибка.
func (s *NotificationService) MarkRead(ctx context.Context, accountUID, broadcastID string) error {
	if _, err := s.repo.GetBroadcast(ctx, broadcastID); err != nil {
		return err
	}
	return s.repo.MarkBroadcastRead(ctx, accountUID, broadcastID)
}

// SendDirectNotification создает персональное уведомление для аккаунта.
func (s *NotificationService) SendDirectNotification(ctx context.Context, accountUID, title, body string) error {
	_, err := s.repo.CreateDirectNotification(ctx, models.DirectNotification{
		AccountUID: accountUID,
		Title:      title,
		Body:       body,
	})
	return err
}

// ListDirect возвращает персональные уведомления аккаунта, новые сверху.
func (s *NotificationService) ListDirect(ctx context.Context, accountUID string) ([]*models.DirectNotification, error) {
	return s.repo.ListDirectNotifications(ctx, accountUID)
}

// MarkDirectRead помечает персональное уведомление прочитанным.
func (s *NotificationService) MarkDirectRead(ctx context.Context, accountUID, id string) error {
	return s.repo.MarkDirectNotificationRead(ctx, accountUID, id)
}

func (s *NotificationService) invalidateActive() {
	if err := s.cache.Invalidate(activeBroadcastsKey); err != nil {
		s.log.Warn("failed to invalidate broadcasts cache", slog.Any("err", err))
	}
}
