// Package entitlement содержит чистые предикаты над снимком аккаунта:
// премиум, пробный период, истекший пробный период, доступ к функциям.
// Функции не выполняют I/O и не изменяют состояние — коррекция истекших
// пробных периодов лежит на энфорсере, предикаты лишь читают снимок,
// возможно устаревший.
package entitlement

import (
	"math"
	"time"

	"github.com/daryakhm/storefront-core/internal/models"
)

// Feature закрытое перечисление закрытых premium-функций витрины.
type Feature string

const (
	// FeatureAdmin — административная панель, требует роль admin.
	FeatureAdmin Feature = "admin"
	// FeatureAnalytics — аналитика продаж.
	FeatureAnalytics Feature = "analytics"
	// FeatureCSVImport — импорт товаров из CSV.
	FeatureCSVImport Feature = "csv_import"
	// FeatureWidgets — виджеты на витрине.
	FeatureWidgets Feature = "widgets"
	// FeatureBanners — баннеры на витрине.
	FeatureBanners Feature = "banners"
)

// IsPremium сообщает, есть ли у аккаунта премиум-доступ прямо сейчас.
func IsPremium(a *models.Account) bool {
	return a != nil && a.IsPremium
}

// IsOnTrial сообщает, находится ли аккаунт в активном временном премиуме:
// премиум выдан не навсегда и дата окончания еще впереди.
func IsOnTrial(a *models.Account, now time.Time) bool {
	if a == nil || !a.IsPremium || a.IsPremiumAdminSet {
		return false
	}
	return a.TrialEndDate != nil && a.TrialEndDate.After(now)
}

// HasTrialExpired сообщает, что временный премиум закончился, но аккаунт
// еще не понижен. Для аккаунтов с IsPremiumAdminSet всегда false,
// независимо от устаревшего TrialEndDate.
func HasTrialExpired(a *models.Account, now time.Time) bool {
	if a == nil || !a.IsPremium || a.IsPremiumAdminSet {
		return false
	}
	return a.TrialEndDate != nil && !a.TrialEndDate.After(now)
}

// TrialDaysRemaining возвращает число оставшихся дней временного премиума,
// округленное вверх, но не меньше нуля.
func TrialDaysRemaining(a *models.Account, now time.Time) int {
	if a == nil || a.TrialEndDate == nil || a.IsPremiumAdminSet {
		return 0
	}
	left := a.TrialEndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// CanAccessFeature проверяет доступ аккаунта к функции.
// FeatureAdmin требует роль admin; остальные функции — премиум.
// Неизвестный аккаунт (nil) не имеет доступа ни к чему.
func CanAccessFeature(a *models.Account, f Feature) bool {
	if a == nil {
		return false
	}
	switch f {
	case FeatureAdmin:
		return a.Role == models.RoleAdmin
	case FeatureAnalytics, FeatureCSVImport, FeatureWidgets, FeatureBanners:
		return IsPremium(a)
	}
	return false
}

// Summary производное представление прав аккаунта для потребителей
// (дашборд, гейты функций).
type Summary struct {
	IsPremium          bool        `json:"is_premium"`
	IsOnTrial          bool        `json:"is_on_trial"`
	TrialExpired       bool        `json:"trial_expired"`
	TrialDaysRemaining int         `json:"trial_days_remaining"`
	Role               models.Role `json:"role"`
}

// Derive собирает Summary из снимка аккаунта.
func Derive(a *models.Account, now time.Time) *Summary {
	if a == nil {
		return nil
	}
	return &Summary{
		IsPremium:          IsPremium(a),
		IsOnTrial:          IsOnTrial(a, now),
		TrialExpired:       HasTrialExpired(a, now),
		TrialDaysRemaining: TrialDaysRemaining(a, now),
		Role:               a.Role,
	}
}
