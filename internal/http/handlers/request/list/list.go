// Package list реализует HTTP-обработчик административного обзора заявок.
package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/apperr"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на обзор заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики обзора заявок.
type Service interface {
	List(ctx context.Context, role string, status *models.RequestStatus, limit, offset int) ([]*models.SubscriptionRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обзор заявок
// @Description Возвращает заявки всех аккаунтов, новые сверху. Доступно только администраторам.
// @Tags Admin
// @Produce  json
// @Param status query string false "Фильтр по статусу: pending, approved, rejected"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список заявок"
// @Failure 400 {object} response.ErrorResponse "Некорректный статус"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/requests [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)

	status, err := statusFilter(r.URL.Query().Get("status"))
	if err != nil {
		log.Error("invalid status filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	limit, offset := pagination(r)
	items, err := h.service.List(r.Context(), role, status, limit, offset)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			log.Error("admin role required", slog.String("role", role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
			return
		}
		log.Error("failed to list requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list requests"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"requests": items,
		"count":    len(items),
	}))
}

// statusFilter преобразует query-параметр в фильтр по статусу.
// Пустая строка означает отсутствие фильтра.
func statusFilter(raw string) (*models.RequestStatus, error) {
	if raw == "" {
		return nil, nil
	}
	switch s := models.RequestStatus(raw); s {
	case models.RequestPending, models.RequestApproved, models.RequestRejected:
		return &s, nil
	}
	return nil, fmt.Errorf("unknown status %q", raw)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
