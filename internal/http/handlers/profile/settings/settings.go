// Package settings реализует HTTP-обработчик изменения настроек витрины.
//
// Handler принимает частичное обновление флагов, проверяет права аккаунта
// на включение premium-функций и применяет изменение через сервис профиля.
// Включение флага доступно только премиум-аккаунтам; выключение доступно всем.
package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/entitlement"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на изменение настроек витрины.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики профиля.
type Service interface {
	GetProfile(ctx context.Context, accountUID string) (*models.ProfileSnapshot, error)
	UpdateSettings(ctx context.Context, accountUID string, patch models.SettingsPatch) (*models.ProfileSnapshot, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Изменить настройки витрины
// @Description Применяет частичное обновление флагов витрины текущего аккаунта.
// @Tags Profile
// @Accept  json
// @Produce  json
// @Param request body models.DummySettingsRequest true "Изменяемые флаги"
// @Success 200 {object} map[string]any "Свежий снимок профиля"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Функция доступна только премиум-аккаунтам"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profile/settings [patch]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.settings"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummySettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if enablesAny(req) {
		snap, err := h.service.GetProfile(r.Context(), accountUID)
		if err != nil {
			log.Error("failed to load profile", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not load profile"))
			return
		}
		if !entitlement.CanAccessFeature(snap.AccountView(), entitlement.FeatureWidgets) {
			log.Error("premium feature requested without premium",
				slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("premium required to enable storefront features"))
			return
		}
	}

	snap, err := h.service.UpdateSettings(r.Context(), accountUID, models.SettingsPatch{
		WidgetEnabled:  req.WidgetEnabled,
		BannerEnabled:  req.BannerEnabled,
		ShowCategories: req.ShowCategories,
	})
	if err != nil {
		log.Error("failed to update settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update settings"))
		return
	}

	log.Info("settings updated", slog.String("account_uid", accountUID))
	render.JSON(w, r, response.StatusOKWithData(snap))
}

// enablesAny сообщает, включает ли патч хотя бы один флаг.
func enablesAny(req models.DummySettingsRequest) bool {
	for _, f := range []*bool{req.WidgetEnabled, req.BannerEnabled, req.ShowCategories} {
		if f != nil && *f {
			return true
		}
	}
	return false
}
