// Package markdirect реализует HTTP-обработчик отметки о прочтении
// персонального уведомления.
package markdirect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
)

// Handler управляет HTTP-запросами на отметку персонального уведомления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики персональных уведомлений.
type Service interface {
	MarkDirectRead(ctx context.Context, accountUID, id string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отметить персональное уведомление прочитанным
// @Description Помечает персональное уведомление текущего аккаунта прочитанным.
// @Tags Notifications
// @Produce  json
// @Param id path string true "ID уведомления"
// @Success 200 {object} map[string]any "Отметка создана"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /notifications/direct/{id}/read [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.markdirect"
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
	id := chi.URLParam(r, "id")

	if err := h.service.MarkDirectRead(r.Context(), accountUID, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Error("direct notification not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("notification not found"))
			return
		}
		log.Error("failed to mark direct notification read", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not mark notification read"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "notification marked as read",
	}))
}
