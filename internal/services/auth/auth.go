// Package services содержит логику бизнес-уровня для регистрации
// и аутентификации аккаунтов.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/daryakhm/storefront-core/internal/lib/jwt"
	"github.com/daryakhm/storefront-core/internal/lib/password"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// AccountRepository описывает контракт для работы с аккаунтами в базе данных.
type AccountRepository interface {
	// CreateAccount сохраняет новый аккаунт и возвращает его UID.
	CreateAccount(ctx context.Context, account models.Account) (string, error)

	// GetAccountByUsername возвращает аккаунт по имени или ошибку, если не найден.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// ProfileWriter включает витрину новому аккаунту так, чтобы подписчики
// профиля получили свежий снимок.
type ProfileWriter interface {
	UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	accounts  AccountRepository
	profile   ProfileWriter
	jwtMaker  jwt.Maker
	trialDays int
	log       *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(accounts AccountRepository, profile ProfileWriter, jwtMaker jwt.Maker,
	trialDays int, log *slog.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		profile:   profile,
		jwtMaker:  jwtMaker,
		trialDays: trialDays,
		log:       log,
	}
}

// Register создает новый аккаунт с хэшированием пароля, дефолтной ролью user
// и пробным премиум-периодом. Премиум включается двумя записями: флагом
// на аккаунте и флагами витрины; если вторая запись не удалась, аккаунт
// остается с частично включенной витриной и энфорсер доведет его до
// согласованного состояния после окончания срока.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	trialEndDate := time.Now().UTC().AddDate(0, 0, s.trialDays)
	account := models.Account{
		Email:             email,
		Username:          username,
		PasswordHash:      hashed,
		Role:              models.RoleUser,
		IsPremium:         true,
		IsPremiumAdminSet: false,
		TrialEndDate:      &trialEndDate,
	}
	uid, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return "", err
	}

	on := true
	if _, err := s.profile.UpdateSettings(ctx, uid, models.SettingsPatch{
		WidgetEnabled:  &on,
		BannerEnabled:  &on,
		ShowCategories: &on,
	}); err != nil {
		s.log.Warn("failed to enable storefront for new account",
			slog.String("account_uid", uid), sl.Err(err))
	}
	return uid, nil
}

// Login проверяет пароль и генерирует JWT с UID и ролью аккаунта.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return "", "", errors.New("invalid credentials")
	}
	token, err = s.jwtMaker.GenerateToken(account.UID, string(account.Role))
	if err != nil {
		return "", "", err
	}
	return token, string(account.Role), nil
}

// ValidateToken проверяет JWT и возвращает UID аккаунта и его роль.
func (s *AuthService) ValidateToken(_ context.Context, token string) (accountUID, role string, err error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.AccountUID, claims.Role, nil
}
