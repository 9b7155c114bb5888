package models

// DummyRegisterRequest используется для приёма данных регистрации из JSON-запроса.
type DummyRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`          // Электронная почта
	Username string `json:"username" validate:"required,alphanum"`    // Имя пользователя
	Password string `json:"password" validate:"required,min=8,max=64"` // Пароль
}

// DummyLoginRequest используется для приёма данных входа из JSON-запроса.
type DummyLoginRequest struct {
	Username string `json:"username" validate:"required"` // Имя пользователя
	Password string `json:"password" validate:"required"` // Пароль
}

// DummySettingsRequest используется для приёма частичного обновления
// настроек витрины. Отсутствующее поле оставляет текущее значение.
type DummySettingsRequest struct {
	WidgetEnabled  *bool `json:"widget_enabled"`  // Виджет "связаться с продавцом"
	BannerEnabled  *bool `json:"banner_enabled"`  // Рекламный баннер
	ShowCategories *bool `json:"show_categories"` // Дерево категорий
}

// DummyPremiumRequest используется для приёма решения администратора
// о постоянном премиуме аккаунта.
type DummyPremiumRequest struct {
	Action string `json:"action" validate:"required"` // grant или revoke
}
