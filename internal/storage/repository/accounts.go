package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/models"
)

// CreateAccount сохраняет новый аккаунт и его настройки магазина,
// возвращает UID аккаунта. Настройки создаются сразу, с выключенными
// премиум-флагами.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "repository.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO accounts (email, username, password_hash, role, is_premium,
			      is_premium_admin_set, trial_end_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.Username, account.PasswordHash, account.Role,
		account.IsPremium, account.IsPremiumAdminSet, account.TrialEndDate).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	settingsQuery := `INSERT INTO store_settings (account_uid) VALUES ($1)
			  ON CONFLICT (account_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, settingsQuery, newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccount возвращает аккаунт по его UID.
func (s *Storage) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	const op = "repository.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, is_premium,
			      is_premium_admin_set, trial_end_date, created_at, updated_at
			  FROM accounts
			  WHERE uid = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, accountUID), op)
}

// GetAccountByUsername возвращает аккаунт по имени пользователя.
func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "repository.GetAccountByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, is_premium,
			      is_premium_admin_set, trial_end_date, created_at, updated_at
			  FROM accounts
			  WHERE username = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, username), op)
}

func (s *Storage) scanAccount(row *sql.Row, op string) (*models.Account, error) {
	a := &models.Account{}
	var trialEndDate sql.NullTime
	if err := row.Scan(&a.UID, &a.Email, &a.Username, &a.PasswordHash, &a.Role,
		&a.IsPremium, &a.IsPremiumAdminSet, &trialEndDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trialEndDate.Valid {
		a.TrialEndDate = &trialEndDate.Time
	}
	return a, nil
}

// UpdateAccount применяет частичное обновление аккаунта и возвращает свежую
// строку. nil-поля не трогают текущие значения (last-write-wins по полям).
func (s *Storage) UpdateAccount(ctx context.Context, accountUID string, patch models.AccountPatch) (*models.Account, error) {
	const op = "repository.UpdateAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET is_premium = COALESCE($1, is_premium),
			      is_premium_admin_set = COALESCE($2, is_premium_admin_set),
			      trial_end_date = CASE WHEN $3 THEN NULL ELSE COALESCE($4, trial_end_date) END,
			      updated_at = NOW()
			  WHERE uid = $5
			  RETURNING uid, email, username, password_hash, role, is_premium,
			      is_premium_admin_set, trial_end_date, created_at, updated_at`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query,
		patch.IsPremium, patch.IsPremiumAdminSet, patch.ClearTrialEndDate,
		patch.TrialEndDate, accountUID), op)
}

// GetStoreSettings возвращает настройки магазина по UID владельца.
func (s *Storage) GetStoreSettings(ctx context.Context, accountUID string) (*models.StoreSettings, error) {
	const op = "repository.GetStoreSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT account_uid, widget_enabled, banner_enabled, show_categories, updated_at
			  FROM store_settings
			  WHERE account_uid = $1`
	st := &models.StoreSettings{}
	row := s.DB.QueryRowContext(ctx, query, accountUID)
	if err := row.Scan(&st.AccountUID, &st.WidgetEnabled, &st.BannerEnabled,
		&st.ShowCategories, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// UpdateStoreSettings применяет частичное обновление настроек магазина
// и возвращает свежую строку.
func (s *Storage) UpdateStoreSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.StoreSettings, error) {
	const op = "repository.UpdateStoreSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE store_settings
			  SET widget_enabled = COALESCE($1, widget_enabled),
			      banner_enabled = COALESCE($2, banner_enabled),
			      show_categories = COALESCE($3, show_categories),
			      updated_at = NOW()
			  WHERE account_uid = $4
			  RETURNING account_uid, widget_enabled, banner_enabled, show_categories, updated_at`
	st := &models.StoreSettings{}
	row := s.DB.QueryRowContext(ctx, query,
		patch.WidgetEnabled, patch.BannerEnabled, patch.ShowCategories, accountUID)
	if err := row.Scan(&st.AccountUID, &st.WidgetEnabled, &st.BannerEnabled,
		&st.ShowCategories, &st.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// FindExpiredUnenforcedTrials находит аккаунты, у которых срочный премиум
// истек, но понижение еще не применено до конца: либо аккаунт все еще
// премиум, либо в настройках магазина остались включенные премиум-флаги.
// Отбор идет по is_premium_admin_set и trial_end_date, а не по is_premium,
// чтобы дожать частично выполненные коррекции.
func (s *Storage) FindExpiredUnenforcedTrials(ctx context.Context) ([]*models.Account, error) {
	const op = "repository.FindExpiredUnenforcedTrials"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT a.uid, a.email, a.username, a.password_hash, a.role, a.is_premium,
			      a.is_premium_admin_set, a.trial_end_date, a.created_at, a.updated_at
			  FROM accounts a
			  JOIN store_settings st ON st.account_uid = a.uid
			  WHERE a.is_premium_admin_set = false
			    AND a.trial_end_date IS NOT NULL
			    AND a.trial_end_date <= NOW()
			    AND (a.is_premium = true
			         OR st.widget_enabled = true
			         OR st.banner_enabled = true
			         OR st.show_categories = true)`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		a := &models.Account{}
		var trialEndDate sql.NullTime
		if err := rows.Scan(&a.UID, &a.Email, &a.Username, &a.PasswordHash, &a.Role,
			&a.IsPremium, &a.IsPremiumAdminSet, &trialEndDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if trialEndDate.Valid {
			a.TrialEndDate = &trialEndDate.Time
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
