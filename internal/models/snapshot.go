package models

import "time"

// SettingsView флаги витрины в составе снимка профиля.
type SettingsView struct {
	WidgetEnabled  bool `json:"widget_enabled"`
	BannerEnabled  bool `json:"banner_enabled"`
	ShowCategories bool `json:"show_categories"`
}

// ProfileSnapshot снимок профиля аккаунта без чувствительных полей.
// Снимки раздаются живым сессиям профиля через Redis Pub/Sub: каждое
// изменение аккаунта или настроек публикует свежий снимок целиком.
// nil-снимок означает, что профиля еще нет.
type ProfileSnapshot struct {
	AccountUID        string       `json:"account_uid"`
	Email             string       `json:"email"`
	Username          string       `json:"username"`
	Role              Role         `json:"role"`
	IsPremium         bool         `json:"is_premium"`
	IsPremiumAdminSet bool         `json:"is_premium_admin_set"`
	TrialEndDate      *time.Time   `json:"trial_end_date,omitempty"`
	Settings          SettingsView `json:"settings"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// AccountView восстанавливает из снимка поля аккаунта, по которым
// вычисляются права. Хэш пароля в снимок не входит и остается пустым.
func (p *ProfileSnapshot) AccountView() *Account {
	if p == nil {
		return nil
	}
	return &Account{
		UID:               p.AccountUID,
		Email:             p.Email,
		Username:          p.Username,
		Role:              p.Role,
		IsPremium:         p.IsPremium,
		IsPremiumAdminSet: p.IsPremiumAdminSet,
		TrialEndDate:      p.TrialEndDate,
		UpdatedAt:         p.UpdatedAt,
	}
}

// StoreSettingsView восстанавливает из снимка строку настроек витрины.
func (p *ProfileSnapshot) StoreSettingsView() *StoreSettings {
	if p == nil {
		return nil
	}
	return &StoreSettings{
		AccountUID:     p.AccountUID,
		WidgetEnabled:  p.Settings.WidgetEnabled,
		BannerEnabled:  p.Settings.BannerEnabled,
		ShowCategories: p.Settings.ShowCategories,
		UpdatedAt:      p.UpdatedAt,
	}
}

// NewProfileSnapshot собирает снимок из аккаунта и настроек витрины.
func NewProfileSnapshot(a *Account, s *StoreSettings) *ProfileSnapshot {
	snap := &ProfileSnapshot{
		AccountUID:        a.UID,
		Email:             a.Email,
		Username:          a.Username,
		Role:              a.Role,
		IsPremium:         a.IsPremium,
		IsPremiumAdminSet: a.IsPremiumAdminSet,
		TrialEndDate:      a.TrialEndDate,
		UpdatedAt:         a.UpdatedAt,
	}
	if s != nil {
		snap.Settings = SettingsView{
			WidgetEnabled:  s.WidgetEnabled,
			BannerEnabled:  s.BannerEnabled,
			ShowCategories: s.ShowCategories,
		}
		if s.UpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = s.UpdatedAt
		}
	}
	return snap
}
