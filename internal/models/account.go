// Package models содержит доменные структуры витринного сервиса:
// аккаунт владельца магазина, настройки магазина, заявки на подписку
// и уведомления. Структуры используются в бизнес‑логике и при работе
// с хранилищем.
package models

import "time"

// Role роль аккаунта в системе.
type Role string

const (
	// RoleUser — обычный владелец магазина.
	RoleUser Role = "user"
	// RoleAdmin — администратор сервиса.
	RoleAdmin Role = "admin"
)

// Account представляет аккаунт владельца магазина.
//
// Если IsPremium == true, IsPremiumAdminSet == false и TrialEndDate в прошлом,
// аккаунт находится в переходном состоянии "expired-unenforced" и должен быть
// скорректирован энфорсером.
type Account struct {
	UID               string     // Уникальный идентификатор аккаунта
	Email             string     // Электронная почта
	Username          string     // Имя пользователя (уникальное)
	PasswordHash      string     // Хэш пароля
	Role              Role       // Роль аккаунта, admin или user
	IsPremium         bool       // Признак премиум-доступа
	IsPremiumAdminSet bool       // true, если премиум выдан вручную навсегда и не отзывается автоматически
	TrialEndDate      *time.Time // Дата окончания пробного периода или оплаченного срока
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AccountPatch описывает частичное обновление аккаунта.
// Каждое nil-поле оставляет текущее значение (last-write-wins по полям).
type AccountPatch struct {
	IsPremium         *bool
	IsPremiumAdminSet *bool
	TrialEndDate      *time.Time
	ClearTrialEndDate bool // сбросить trial_end_date в NULL
}
