package models

import "time"

// Broadcast глобальное уведомление, видимое всем аккаунтам, пока IsActive == true.
// Создается и изменяется только администраторами.
type Broadcast struct {
	ID          string    `json:"id"`          // Уникальный идентификатор уведомления
	Title       string    `json:"title"`       // Заголовок
	Description string    `json:"description"` // Текст уведомления
	IsActive    bool      `json:"is_active"`   // Признак активности
	CreatedAt   time.Time `json:"created_at"`
}

// BroadcastWithRead глобальное уведомление вместе с признаком прочтения
// конкретным аккаунтом. Признак вычисляется как отсутствие/наличие
// отметки о прочтении, а не хранится на самом уведомлении.
type BroadcastWithRead struct {
	Broadcast
	IsRead bool `json:"is_read"`
}

// DirectNotification персональное уведомление для одного аккаунта
// (например, об итоге рассмотрения заявки). Так как получатель ровно один,
// признак прочтения хранится прямо на записи.
type DirectNotification struct {
	ID         string    `json:"id"`
	AccountUID string    `json:"account_uid"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// DummyBroadcast используется для приёма данных из JSON-запроса
// при создании или изменении глобального уведомления.
type DummyBroadcast struct {
	Title       string `json:"title" validate:"required"`       // Заголовок
	Description string `json:"description" validate:"required"` // Текст
	IsActive    *bool  `json:"is_active"`                       // Признак активности, по умолчанию true
}

// NotificationEvent событие для воркера почтовой рассылки.
// Публикуется в RabbitMQ после решения по заявке или окончания
// пробного периода.
type NotificationEvent struct {
	AccountUID string `json:"account_uid"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}
