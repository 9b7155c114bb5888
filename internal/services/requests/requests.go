// Package services содержит бизнес-логику заявок на платную подписку.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/lib/plan"
	"github.com/daryakhm/storefront-core/internal/lib/rabbitmq"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// RequestRepository описывает контракт для работы с заявками в хранилище.
type RequestRepository interface {
	// CreateRequest сохраняет новую заявку и возвращает её ID.
	CreateRequest(ctx context.Context, req models.SubscriptionRequest) (string, error)
	// GetRequest возвращает заявку по ID.
	GetRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error)
	// ListRequests возвращает заявки, новые сверху, с фильтром по статусу.
	ListRequests(ctx context.Context, status *models.RequestStatus, limit, offset int) ([]*models.SubscriptionRequest, error)
	// ListRequestsByAccount возвращает заявки одного аккаунта, новые сверху.
	ListRequestsByAccount(ctx context.Context, accountUID string, limit, offset int) ([]*models.SubscriptionRequest, error)
	// UpdateRequestReview записывает решение по заявке.
	UpdateRequestReview(ctx context.Context, id string, status models.RequestStatus,
		reviewedBy string, notes *string, reviewedAt time.Time) (int, error)
	// GetAccount возвращает аккаунт по UID.
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
}

// ProfileWriter выдает права так, чтобы подписчики профиля получили
// свежие снимки.
type ProfileWriter interface {
	UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.ProfileSnapshot, error)
	UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error)
}

// Notifier доставляет заявителю итог рассмотрения внутри сервиса.
type Notifier interface {
	SendDirectNotification(ctx context.Context, accountUID, title, body string) error
}

// RequestService реализует подачу и рассмотрение заявок.
type RequestService struct {
	repo     RequestRepository
	profile  ProfileWriter
	notifier Notifier
	channel  *amqp.Channel
	log      *slog.Logger
}

// NewRequestService создает новый экземпляр RequestService.
func NewRequestService(repo RequestRepository, profile ProfileWriter, notifier Notifier,
	channel *amqp.Channel, log *slog.Logger) *RequestService {
	return &RequestService{
		repo:     repo,
		profile:  profile,
		notifier: notifier,
		channel:  channel,
		log:      log,
	}
}

// Submit создает заявку со статусом pending от имени аккаунта.
func (s *RequestService) Submit(ctx context.Context, accountUID string, req models.DummySubmitRequest) (string, error) {
	p, err := plan.Parse(req.Plan)
	if err != nil {
		return "", err
	}
	if len(req.PaymentProofURLs) == 0 {
		return "", fmt.Errorf("payment proof is required: %w", apperr.ErrValidation)
	}

	id, err := s.repo.CreateRequest(ctx, models.SubscriptionRequest{
		AccountUID:       accountUID,
		Plan:             string(p),
		PaymentProofURLs: req.PaymentProofURLs,
		Status:           models.RequestPending,
	})
	if err != nil {
		return "", err
	}
	s.log.Info("subscription request submitted",
		slog.String("request_id", id), slog.String("plan", string(p)))
	return id, nil
}

// List возвращает заявки для административного обзора, новые сверху.
// Доступно только роли admin.
func (s *RequestService) List(ctx context.Context, role string, status *models.RequestStatus, limit, offset int) ([]*models.SubscriptionRequest, error) {
	if role != string(models.RoleAdmin) {
		return nil, apperr.ErrForbidden
	}
	return s.repo.ListRequests(ctx, status, limit, offset)
}

// ListOwn возвращает заявки самого аккаунта.
func (s *RequestService) ListOwn(ctx context.Context, accountUID string, limit, offset int) ([]*models.SubscriptionRequest, error) {
	return s.repo.ListRequestsByAccount(ctx, accountUID, limit, offset)
}

// Review записывает решение администратора по заявке.
//
// Порядок фиксирован: сначала выдача прав, потом статус заявки, потом
// уведомления. Если выдача прав удалась, а запись статуса — нет, заявка
// остается pending и повторное одобрение лишь повторит идемпотентную
// выдачу. Проверка "статус еще pending" выполняется чтением перед
// записью, без compare-and-swap: рассмотрение ведут администраторы,
// и одновременные решения по одной заявке на практике не встречаются.
func (s *RequestService) Review(ctx context.Context, reviewerUID, reviewerRole, requestID string,
	review models.DummyReviewRequest) (*models.SubscriptionRequest, error) {
	if reviewerRole != string(models.RoleAdmin) {
		return nil, apperr.ErrForbidden
	}

	var status models.RequestStatus
	switch review.Decision {
	case string(models.RequestApproved):
		status = models.RequestApproved
	case string(models.RequestRejected):
		status = models.RequestRejected
	default:
		return nil, fmt.Errorf("decision must be approved or rejected: %w", apperr.ErrValidation)
	}

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, apperr.ErrAlreadyReviewed
	}

	if status == models.RequestApproved {
		if err := s.grant(ctx, req); err != nil {
			return nil, err
		}
	}

	var notes *string
	if review.Notes != "" {
		notes = &review.Notes
	}
	rowsAffected, err := s.repo.UpdateRequestReview(ctx, requestID, status, reviewerUID, notes, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}
	s.log.Info("subscription request reviewed",
		slog.String("request_id", requestID), slog.String("status", string(status)))

	s.notify(ctx, req, status)

	return s.repo.GetRequest(ctx, requestID)
}

// grant выдает права по плану заявки: сначала аккаунт, затем флаги витрины.
// Обе записи идемпотентны, частично выполненную выдачу доисправит энфорсер
// либо повторное одобрение.
func (s *RequestService) grant(ctx context.Context, req *models.SubscriptionRequest) error {
	p, err := plan.Parse(req.Plan)
	if err != nil {
		return err
	}
	if _, err := s.profile.UpdateAccount(ctx, req.AccountUID, p.Grant(time.Now().UTC())); err != nil {
		return err
	}
	on := true
	_, err = s.profile.UpdateSettings(ctx, req.AccountUID, models.SettingsPatch{
		WidgetEnabled:  &on,
		BannerEnabled:  &on,
		ShowCategories: &on,
	})
	return err
}

// notify доставляет итог заявителю: запись внутри сервиса и событие для
// почтового воркера. Обе доставки best-effort, решение уже зафиксировано.
func (s *RequestService) notify(ctx context.Context, req *models.SubscriptionRequest, status models.RequestStatus) {
	title := "Заявка на подписку отклонена"
	body := fmt.Sprintf("Ваша заявка на тариф %q отклонена.", req.Plan)
	if status == models.RequestApproved {
		title = "Заявка на подписку одобрена"
		body = fmt.Sprintf("Ваша заявка на тариф %q одобрена, премиум-доступ включен.", req.Plan)
	}

	if err := s.notifier.SendDirectNotification(ctx, req.AccountUID, title, body); err != nil {
		s.log.Warn("failed to create direct notification", sl.Err(err))
	}

	account, err := s.repo.GetAccount(ctx, req.AccountUID)
	if err != nil {
		s.log.Warn("failed to load account for email event", sl.Err(err))
		return
	}
	event := models.NotificationEvent{
		AccountUID: account.UID,
		Email:      account.Email,
		Username:   account.Username,
		Title:      title,
		Body:       body,
	}
	if s.channel != nil {
		if err := rabbitmq.PublishMessage(s.channel, rabbitmq.Exchange, rabbitmq.ReviewKey, event); err != nil {
			s.log.Warn("failed to publish message", sl.Err(err))
		}
	}
}
