// Package list реализует HTTP-обработчик административного списка
// активных глобальных уведомлений.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на список активных уведомлений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики глобальных уведомлений.
type Service interface {
	ListActive(ctx context.Context) ([]*models.Broadcast, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список активных уведомлений
// @Description Возвращает все активные глобальные уведомления без привязки к аккаунту.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Список уведомлений"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/broadcasts [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list broadcasts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list broadcasts"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"broadcasts": items,
		"count":      len(items),
	}))
}
