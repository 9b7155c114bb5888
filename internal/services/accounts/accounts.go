// Package services содержит бизнес-логику работы с профилем аккаунта
// и настройками витрины.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// AccountRepository описывает контракт для работы с аккаунтами в хранилище.
type AccountRepository interface {
	// GetAccount возвращает аккаунт по UID.
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
	// UpdateAccount применяет частичное обновление и возвращает свежую строку.
	UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.Account, error)
	// GetStoreSettings возвращает настройки витрины по UID владельца.
	GetStoreSettings(ctx context.Context, accountUID string) (*models.StoreSettings, error)
	// UpdateStoreSettings применяет частичное обновление настроек.
	UpdateStoreSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.StoreSettings, error)
}

// Bus описывает шину изменений, по которой раздаются снимки профилей.
type Bus interface {
	// Publish сериализует значение в JSON и публикует его в канал.
	Publish(ctx context.Context, channel string, value any) error
	// Subscribe возвращает поток сырых сообщений канала и функцию отписки.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error)
}

// AccountService отвечает за чтение и изменение профиля.
// Каждая успешная запись публикует свежий снимок профиля целиком в канал
// аккаунта, поэтому подписчики не обязаны читать хранилище сами.
type AccountService struct {
	repo AccountRepository
	bus  Bus
	log  *slog.Logger
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(repo AccountRepository, bus Bus, log *slog.Logger) *AccountService {
	return &AccountService{
		repo: repo,
		bus:  bus,
		log:  log,
	}
}

// UpdatesChannel возвращает имя канала со снимками профиля аккаунта.
func UpdatesChannel(accountUID string) string {
	return "account.updates." + accountUID
}

// GetProfile возвращает текущий снимок профиля аккаунта.
func (s *AccountService) GetProfile(ctx context.Context, accountUID string) (*models.ProfileSnapshot, error) {
	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetStoreSettings(ctx, accountUID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return models.NewProfileSnapshot(account, settings), nil
}

// UpdateAccount применяет частичное обновление аккаунта и публикует
// свежий снимок. Ошибка публикации не откатывает запись: подписчики
// получат актуальное состояние со следующим изменением.
func (s *AccountService) UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.ProfileSnapshot, error) {
	account, err := s.repo.UpdateAccount(ctx, accountUID, patch)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetStoreSettings(ctx, accountUID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	snap := models.NewProfileSnapshot(account, settings)
	s.publishSnapshot(ctx, accountUID, snap)
	return snap, nil
}

// UpdateSettings применяет частичное обновление настроек витрины
// и публикует свежий снимок.
func (s *AccountService) UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error) {
	settings, err := s.repo.UpdateStoreSettings(ctx, accountUID, patch)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, err
	}
	snap := models.NewProfileSnapshot(account, settings)
	s.publishSnapshot(ctx, accountUID, snap)
	return snap, nil
}

// SetPermanentPremium включает или выключает постоянный премиум аккаунта.
// Выдача сбрасывает дату окончания пробного периода: постоянный премиум
// не отзывается автоматически. Отзыв выполняется двумя записями, как и
// выдача прав по заявке: флаг аккаунта и флаги витрины.
func (s *AccountService) SetPermanentPremium(ctx context.Context, accountUID string, enabled bool) (*models.ProfileSnapshot, error) {
	if enabled {
		on := true
		return s.UpdateAccount(ctx, accountUID, models.AccountPatch{
			IsPremium:         &on,
			IsPremiumAdminSet: &on,
			ClearTrialEndDate: true,
		})
	}
	off := false
	if _, err := s.UpdateAccount(ctx, accountUID, models.AccountPatch{
		IsPremium:         &off,
		IsPremiumAdminSet: &off,
	}); err != nil {
		return nil, err
	}
	return s.UpdateSettings(ctx, accountUID, models.SettingsPatch{
		WidgetEnabled:  &off,
		BannerEnabled:  &off,
		ShowCategories: &off,
	})
}

// SubscribeProfile подписывается на изменения профиля аккаунта.
// Подписка оформляется до чтения текущего состояния, поэтому изменение,
// совпавшее с подпиской, не теряется; дубликаты снимков возможны,
// каждый снимок самодостаточен. Доставка негарантированная: публикации
// во время обрыва соединения пропадают, пропуски закрываются начальным
// чтением при подписке и фоновым обходом энфорсера. Если профиля еще
// нет, первым значением приходит nil.
func (s *AccountService) SubscribeProfile(ctx context.Context, accountUID string) (<-chan *models.ProfileSnapshot, func() error, error) {
	raw, unsubscribe := s.bus.Subscribe(ctx, UpdatesChannel(accountUID))

	initial, err := s.GetProfile(ctx, accountUID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		_ = unsubscribe()
		return nil, nil, err
	}

	out := make(chan *models.ProfileSnapshot, 1)
	out <- initial

	go func() {
		defer close(out)
		for payload := range raw {
			var snap *models.ProfileSnapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				s.log.Warn("failed to decode profile snapshot", sl.Err(err))
				continue
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, unsubscribe, nil
}

func (s *AccountService) publishSnapshot(ctx context.Context, accountUID string, snap *models.ProfileSnapshot) {
	if err := s.bus.Publish(ctx, UpdatesChannel(accountUID), snap); err != nil {
		s.log.Warn("failed to publish profile snapshot",
			slog.String("account_uid", accountUID), sl.Err(err))
	}
}
