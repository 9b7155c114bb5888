// Package stream реализует HTTP-обработчик живого потока профиля.
//
// Handler открывает сессию профиля и отдает представления по Server-Sent
// Events: снимок вместе с производной сводкой прав. Представления приходят
// с вытеснением: медленный клиент получает не каждое промежуточное
// состояние, а последнее актуальное.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	"github.com/daryakhm/storefront-core/internal/http/response"
	"github.com/daryakhm/storefront-core/internal/lib/sl"
	"github.com/daryakhm/storefront-core/internal/models"
	session "github.com/daryakhm/storefront-core/internal/services/session"
)

// Handler управляет SSE-потоком представлений профиля.
type Handler struct {
	log       *slog.Logger
	sub       Subscriber
	corrector session.Corrector
}

// Subscriber описывает источник снимков профиля.
type Subscriber interface {
	SubscribeProfile(ctx context.Context, accountUID string) (<-chan *models.ProfileSnapshot, func() error, error)
}

// New создает новый Handler. corrector сверяет премиум-флаги на каждом
// входящем снимке открытой сессии.
func New(log *slog.Logger, sub Subscriber, corrector session.Corrector) *Handler {
	return &Handler{
		log:       log,
		sub:       sub,
		corrector: corrector,
	}
}

// ServeHTTP godoc
// @Summary Поток обновлений профиля
// @Description Отдает снимки профиля текущего аккаунта со сводкой прав по Server-Sent Events.
// @Tags Profile
// @Produce  text/event-stream
// @Success 200 {string} string "Поток представлений профиля"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profile/stream [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.stream"
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

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("response writer does not support streaming")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("streaming unsupported"))
		return
	}

	// Серверный WriteTimeout оборвал бы долгоживущий поток, снимаем
	// дедлайн для этого ответа.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("failed to clear write deadline", sl.Err(err))
	}

	sess, err := session.OpenProfileSession(r.Context(), h.sub, h.corrector, accountUID, log)
	if err != nil {
		log.Error("failed to open profile session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not open profile stream"))
		return
	}
	defer sess.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Info("profile stream opened", slog.String("account_uid", accountUID))
	for {
		select {
		case <-r.Context().Done():
			log.Info("profile stream closed by client")
			return
		case view, open := <-sess.Updates():
			if !open {
				return
			}
			payload, err := json.Marshal(view)
			if err != nil {
				log.Error("failed to encode profile view", sl.Err(err))
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				log.Info("profile stream write failed, closing", sl.Err(err))
				return
			}
			flusher.Flush()
		}
	}
}
