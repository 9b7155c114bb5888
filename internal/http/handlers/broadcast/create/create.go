// Package create реализует HTTP-обработчик создания глобального уведомления.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на создание глобальных уведомлений.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики глобальных уведомлений.
type Service interface {
	CreateBroadcast(ctx context.Context, role string, req models.DummyBroadcast) (string, error)
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
// @Summary Создать глобальное уведомление
// @Description Создает уведомление, видимое всем аккаунтам. Доступно только администраторам.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyBroadcast true "Заголовок и текст"
// @Success 200 {object} map[string]any "Уведомление создано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/broadcasts [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)

	var req models.DummyBroadcast
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.CreateBroadcast(r.Context(), role, req)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			log.Error("admin role required", slog.String("role", role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to create broadcast", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create broadcast"))
		return
	}

	log.Info("broadcast created", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"broadcast_id": id,
	}))
}
