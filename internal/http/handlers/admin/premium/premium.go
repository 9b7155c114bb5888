// Package premium реализует HTTP-обработчик ручного управления премиумом.
//
// Handler выдает аккаунту постоянный премиум или отзывает его. Постоянный
// премиум не отзывается автоматической коррекцией, даже если у аккаунта
// осталась устаревшая дата окончания пробного периода.
package premium

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на выдачу и отзыв постоянного премиума.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики профиля.
type Service interface {
	SetPermanentPremium(ctx context.Context, accountUID string, enabled bool) (*models.ProfileSnapshot, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Управлять постоянным премиумом
// @Description Выдает аккаунту постоянный премиум или отзывает его. Доступно только администраторам.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param uid path string true "UID аккаунта"
// @Param request body models.DummyPremiumRequest true "Действие: grant или revoke"
// @Success 200 {object} map[string]any "Свежий снимок профиля"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или действие"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 404 {object} response.ErrorResponse "Аккаунт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/accounts/{uid}/premium [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.premium"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountUID := chi.URLParam(r, "uid")

	var req models.DummyPremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	var enabled bool
	switch req.Action {
	case "grant":
		enabled = true
	case "revoke":
		enabled = false
	default:
		log.Error("unknown premium action", slog.String("action", req.Action))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("action must be grant or revoke"))
		return
	}

	snap, err := h.service.SetPermanentPremium(r.Context(), accountUID, enabled)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Error("account not found", slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to change premium", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not change premium"))
		return
	}

	log.Info("permanent premium changed",
		slog.String("account_uid", accountUID), slog.Bool("enabled", enabled))
	render.JSON(w, r, response.StatusOKWithData(snap))
}
