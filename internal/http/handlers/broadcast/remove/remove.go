// Package remove реализует HTTP-обработчик удаления глобального уведомления.
package remove

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

// Handler управляет HTTP-запросами на удаление глобальных уведомлений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики глобальных уведомлений.
type Service interface {
	DeleteBroadcast(ctx context.Context, role, id string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить глобальное уведомление
// @Description Удаляет уведомление вместе с отметками о прочтении. Доступно только администраторам.
// @Tags Admin
// @Produce  json
// @Param id path string true "ID уведомления"
// @Success 200 {object} map[string]any "Уведомление удалено"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/broadcasts/{id} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBroadcast(r.Context(), role, id); err != nil {
		switch {
		case errors.Is(err, apperr.ErrForbidden):
			log.Error("admin role required", slog.String("role", role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, apperr.ErrNotFound):
			log.Error("broadcast not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("broadcast not found"))
		default:
			log.Error("failed to delete broadcast", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not delete broadcast"))
		}
		return
	}

	log.Info("broadcast deleted", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "broadcast deleted successfully",
	}))
}
