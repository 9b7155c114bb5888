// Package review реализует HTTP-обработчик решения администратора по заявке.
//
// Handler принимает решение approved или rejected, вызывает бизнес-логику
// рассмотрения и возвращает заявку в итоговом состоянии. Повторное решение
// по уже рассмотренной заявке отклоняется со статусом 409.
package review

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
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
)

// Handler управляет HTTP-запросами на рассмотрение заявок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики рассмотрения заявки.
type Service interface {
	Review(ctx context.Context, reviewerUID, reviewerRole, requestID string,
		review models.DummyReviewRequest) (*models.SubscriptionRequest, error)
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
// @Summary Рассмотреть заявку
// @Description Фиксирует решение администратора по заявке. Одобрение выдает премиум-доступ.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "ID заявки"
// @Param request body models.DummyReviewRequest true "Решение и комментарий"
// @Success 200 {object} map[string]any "Заявка в итоговом состоянии"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже рассмотрена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/requests/{id}/review [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.review"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reviewerUID, _ := r.Context().Value(middlewarectx.AccountUID).(string)
	role, _ := r.Context().Value(middlewarectx.Role).(string)
	requestID := chi.URLParam(r, "id")

	var req models.DummyReviewRequest
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

	result, err := h.service.Review(r.Context(), reviewerUID, role, requestID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrForbidden):
			log.Error("admin role required", slog.String("role", role))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("admin role required"))
		case errors.Is(err, apperr.ErrNotFound):
			log.Error("request not found", slog.String("id", requestID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
		case errors.Is(err, apperr.ErrAlreadyReviewed):
			log.Error("request already reviewed", slog.String("id", requestID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("request already reviewed"))
		case errors.Is(err, apperr.ErrValidation):
			log.Error("invalid decision", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to review request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not review request"))
		}
		return
	}

	log.Info("request reviewed",
		slog.String("id", requestID), slog.String("status", string(result.Status)))
	render.JSON(w, r, response.StatusOKWithData(result))
}
