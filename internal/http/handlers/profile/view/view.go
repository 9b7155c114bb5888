// Package view реализует HTTP-обработчик просмотра профиля.
//
// Handler возвращает текущий снимок профиля аккаунта вместе с производной
// сводкой прав: премиум, пробный период, оставшиеся дни. Перед ответом
// снимок сверяется с энфорсером: истекший премиум завершается на месте,
// и клиент получает уже исправленное состояние.
package view

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/entitlement"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
)

// Handler управляет HTTP-запросами на просмотр профиля.
type Handler struct {
	log       *slog.Logger
	service   Service
	corrector Corrector
}

// Service описывает интерфейс бизнес-логики чтения профиля.
type Service interface {
	GetProfile(ctx context.Context, accountUID string) (*models.ProfileSnapshot, error)
}

// Corrector сверяет премиум-флаги аккаунта со сроком действия.
type Corrector interface {
	Evaluate(ctx context.Context, account *models.Account, settings *models.StoreSettings) (enforcerservice.State, error)
}

// New создает новый Handler с переданными логгером, сервисом и энфорсером.
func New(log *slog.Logger, service Service, corrector Corrector) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		corrector: corrector,
	}
}

// ServeHTTP godoc
// @Summary Получить профиль
// @Description Возвращает снимок профиля текущего аккаунта и сводку прав.
// @Tags Profile
// @Produce  json
// @Success 200 {object} map[string]any "Профиль и права"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profile [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.view"
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

	snap, err := h.service.GetProfile(r.Context(), accountUID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Error("profile not found", slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("profile not found"))
			return
		}
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load profile"))
		return
	}

	// Попутная сверка: если срок истек, а премиум-флаги еще включены,
	// энфорсер завершает их, и ответ собирается по свежему снимку.
	state, err := h.corrector.Evaluate(r.Context(), snap.AccountView(), snap.StoreSettingsView())
	if err != nil {
		log.Warn("failed to reconcile premium flags", sl.Err(err))
	} else if state == enforcerservice.StateExpiredUnenforced {
		if fresh, err := h.service.GetProfile(r.Context(), accountUID); err == nil {
			snap = fresh
		} else {
			log.Warn("failed to reload corrected profile", sl.Err(err))
		}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":     snap,
		"entitlement": entitlement.Derive(snap.AccountView(), time.Now().UTC()),
	}))
}
