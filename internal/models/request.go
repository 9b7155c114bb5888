package models

import "time"

// RequestStatus статус заявки на подписку.
type RequestStatus string

const (
	// RequestPending — заявка ждет решения администратора.
	RequestPending RequestStatus = "pending"
	// RequestApproved — заявка одобрена, права выданы.
	RequestApproved RequestStatus = "approved"
	// RequestRejected — заявка отклонена.
	RequestRejected RequestStatus = "rejected"
)

// SubscriptionRequest заявка пользователя на платную подписку.
// Статус меняется только pending→approved или pending→rejected, ровно один раз,
// и только аккаунтом с ролью admin. После создания заявитель ее не изменяет.
type SubscriptionRequest struct {
	ID               string        `json:"id"`                 // Уникальный идентификатор заявки
	AccountUID       string        `json:"account_uid"`        // UID аккаунта-заявителя
	Plan             string        `json:"plan"`               // Тариф: monthly, quarterly, yearly, lifetime
	PaymentProofURLs []string      `json:"payment_proof_urls"` // Ссылки на подтверждение оплаты (непрозрачные строки)
	Status           RequestStatus `json:"status"`             // Текущий статус
	SubmittedAt      time.Time     `json:"submitted_at"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"` // Момент решения
	ReviewedBy       *string       `json:"reviewed_by,omitempty"` // UID администратора, принявшего решение
	Notes            *string       `json:"notes,omitempty"`       // Комментарий администратора
}

// DummySubmitRequest используется для приёма данных из JSON-запроса
// перед конвертацией в SubscriptionRequest.
type DummySubmitRequest struct {
	Plan             string   `json:"plan" validate:"required"`               // Тариф
	PaymentProofURLs []string `json:"payment_proof_urls" validate:"required"` // Ссылки на чеки
}

// DummyReviewRequest используется для приёма решения администратора.
type DummyReviewRequest struct {
	Decision string `json:"decision" validate:"required"` // approved или rejected
	Notes    string `json:"notes"`                        // Комментарий (опционально)
}
