// Package services содержит принудительное завершение пробных периодов.
//
// Премиум на время пробного периода включается двумя несвязанными записями:
// флагом на аккаунте и флагами витрины в настройках. Транзакции между ними
// нет, поэтому после сбоя возможно частично завершенное состояние. Энфорсер
// классифицирует аккаунт и дописывает недостающие корректировки; повторный
// запуск на уже исправленном аккаунте ничего не пишет.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/daryakhm/storefront-core/internal/lib/rabbitmq"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// State классификация аккаунта по премиум-доступу.
type State string

const (
	// StateStandard — премиума нет, витрина выключена, корректировки не нужны.
	StateStandard State = "standard"
	// StateActiveTrial — пробный или оплаченный период еще идет.
	StateActiveTrial State = "active_trial"
	// StatePremiumPermanent — премиум выдан администратором навсегда,
	// автоматическое завершение не применяется.
	StatePremiumPermanent State = "premium_permanent"
	// StateExpiredUnenforced — срок истек, но часть премиум-флагов еще
	// включена. Единственное состояние, в котором энфорсер пишет.
	StateExpiredUnenforced State = "expired_unenforced"
	// StateInconsistent — сочетание флагов, которое не возникает ни на одном
	// нормальном пути. Энфорсер его не чинит, только громко сообщает.
	StateInconsistent State = "inconsistent"
)

// ProfileWriter применяет корректировки так, чтобы подписчики профиля
// получили свежие снимки.
type ProfileWriter interface {
	UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.ProfileSnapshot, error)
	UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error)
}

// EnforcerRepository описывает выборку кандидатов на завершение.
type EnforcerRepository interface {
	// FindExpiredUnenforcedTrials возвращает аккаунты с истекшим сроком
	// и хотя бы одним включенным премиум-флагом.
	FindExpiredUnenforcedTrials(ctx context.Context) ([]*models.Account, error)
	// GetStoreSettings возвращает настройки витрины по UID владельца.
	GetStoreSettings(ctx context.Context, accountUID string) (*models.StoreSettings, error)
}

// EnforcerService завершает истекшие пробные периоды.
type EnforcerService struct {
	repo    EnforcerRepository
	profile ProfileWriter
	log     *slog.Logger
}

// NewEnforcerService создает новый экземпляр EnforcerService.
func NewEnforcerService(repo EnforcerRepository, profile ProfileWriter, log *slog.Logger) *EnforcerService {
	return &EnforcerService{
		repo:    repo,
		profile: profile,
		log:     log,
	}
}

// Classify определяет состояние аккаунта на момент now.
func Classify(a *models.Account, s *models.StoreSettings, now time.Time) State {
	anyFlagOn := s != nil && (s.WidgetEnabled || s.BannerEnabled || s.ShowCategories)

	switch {
	case a.IsPremium && a.IsPremiumAdminSet:
		return StatePremiumPermanent
	case !a.IsPremiumAdminSet && a.TrialEndDate != nil && !a.TrialEndDate.After(now) &&
		(a.IsPremium || anyFlagOn):
		return StateExpiredUnenforced
	case a.IsPremium && !a.IsPremiumAdminSet && a.TrialEndDate != nil && a.TrialEndDate.After(now):
		return StateActiveTrial
	case !a.IsPremium && !a.IsPremiumAdminSet && !anyFlagOn:
		return StateStandard
	default:
		return StateInconsistent
	}
}

// Evaluate классифицирует аккаунт и применяет недостающие корректировки.
// Пишет только то, что действительно требует исправления: аккаунт — если
// еще включен is_premium, настройки — только включенные флаги. Поэтому
// повторный вызов на исправленном аккаунте не порождает новых снимков.
func (s *EnforcerService) Evaluate(ctx context.Context, account *models.Account, settings *models.StoreSettings) (State, error) {
	state := Classify(account, settings, time.Now().UTC())
	if state == StateInconsistent {
		s.log.Error("account flags are inconsistent, refusing to auto-correct",
			slog.String("account_uid", account.UID),
			slog.Bool("is_premium", account.IsPremium),
			slog.Bool("is_premium_admin_set", account.IsPremiumAdminSet))
		return state, nil
	}
	if state != StateExpiredUnenforced {
		return state, nil
	}

	if account.IsPremium {
		off := false
		if _, err := s.profile.UpdateAccount(ctx, account.UID, models.AccountPatch{
			IsPremium: &off,
		}); err != nil {
			return state, err
		}
	}

	if settings != nil && (settings.WidgetEnabled || settings.BannerEnabled || settings.ShowCategories) {
		off := false
		patch := models.SettingsPatch{}
		if settings.WidgetEnabled {
			patch.WidgetEnabled = &off
		}
		if settings.BannerEnabled {
			patch.BannerEnabled = &off
		}
		if settings.ShowCategories {
			patch.ShowCategories = &off
		}
		if _, err := s.profile.UpdateSettings(ctx, account.UID, patch); err != nil {
			return state, err
		}
	}

	s.log.Info("trial enforcement completed", slog.String("account_uid", account.UID))
	return state, nil
}

// Run периодически находит аккаунты с истекшим сроком, завершает их премиум
// и публикует событие для почтовой рассылки.
func (s *EnforcerService) Run(ctx context.Context, channel *amqp.Channel, interval time.Duration) {
	s.runSweep(ctx, channel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx, channel)
		}
	}
}

func (s *EnforcerService) runSweep(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting trial enforcement sweep")
	accounts, err := s.repo.FindExpiredUnenforcedTrials(ctx)
	if err != nil {
		s.log.Error("failed to find expired trials", sl.Err(err))
		return
	}
	if len(accounts) == 0 {
		s.log.Info("no expired trials found")
		return
	}
	s.log.Info("found expired trials", "count", len(accounts))

	for _, account := range accounts {
		settings, err := s.repo.GetStoreSettings(ctx, account.UID)
		if err != nil {
			s.log.Error("failed to load store settings",
				slog.String("account_uid", account.UID), sl.Err(err))
			continue
		}
		state, err := s.Evaluate(ctx, account, settings)
		if err != nil {
			s.log.Error("failed to enforce trial expiry",
				slog.String("account_uid", account.UID), sl.Err(err))
			continue
		}
		if state != StateExpiredUnenforced {
			continue
		}
		event := models.NotificationEvent{
			AccountUID: account.UID,
			Email:      account.Email,
			Username:   account.Username,
			Title:      "Пробный период завершен",
			Body:       "Срок вашего премиум-доступа истек, витрина переведена в базовый режим.",
		}
		if err := rabbitmq.PublishMessage(channel, rabbitmq.Exchange, rabbitmq.TrialKey, event); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
