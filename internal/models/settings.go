package models

import "time"

// StoreSettings настройки магазина, связанные с аккаунтом один к одному.
// Все три флага доступны только премиум-аккаунтам: когда аккаунт не премиум,
// все флаги должны быть false.
type StoreSettings struct {
	AccountUID     string // UID владельца, совпадает с первичным ключом аккаунта
	WidgetEnabled  bool   // Виджет "связаться с продавцом"
	BannerEnabled  bool   // Рекламный баннер на витрине
	ShowCategories bool   // Отображение дерева категорий
	UpdatedAt      time.Time
}

// SettingsPatch описывает частичное обновление настроек магазина.
// nil-поле оставляет текущее значение.
type SettingsPatch struct {
	WidgetEnabled  *bool
	BannerEnabled  *bool
	ShowCategories *bool
}
