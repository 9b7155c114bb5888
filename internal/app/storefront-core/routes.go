// Package storefrontcore предоставляет маршруты для основного приложения.
package storefrontcore

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/daryakhm/storefront-core/internal/http/handlers/admin/premium"
	broadcastcreate "github.com/daryakhm/storefront-core/internal/http/handlers/broadcast/create"
	broadcastlist "github.com/daryakhm/storefront-core/internal/http/handlers/broadcast/list"
	broadcastremove "github.com/daryakhm/storefront-core/internal/http/handlers/broadcast/remove"
	broadcastupdate "github.com/daryakhm/storefront-core/internal/http/handlers/broadcast/update"
	"github.com/daryakhm/storefront-core/internal/http/handlers/auth/login"
	"github.com/daryakhm/storefront-core/internal/http/handlers/auth/register"
	"github.com/daryakhm/storefront-core/internal/http/handlers/health"
	notificationdirect "github.com/daryakhm/storefront-core/internal/http/handlers/notification/direct"
	notificationlist "github.com/daryakhm/storefront-core/internal/http/handlers/notification/list"
	notificationmarkdirect "github.com/daryakhm/storefront-core/internal/http/handlers/notification/markdirect"
	notificationmarkread "github.com/daryakhm/storefront-core/internal/http/handlers/notification/markread"
	notificationunread "github.com/daryakhm/storefront-core/internal/http/handlers/notification/unread"
	profilesettings "github.com/daryakhm/storefront-core/internal/http/handlers/profile/settings"
	profilestream "github.com/daryakhm/storefront-core/internal/http/handlers/profile/stream"
	profileview "github.com/daryakhm/storefront-core/internal/http/handlers/profile/view"
	requestlist "github.com/daryakhm/storefront-core/internal/http/handlers/request/list"
	requestown "github.com/daryakhm/storefront-core/internal/http/handlers/request/own"
	requestreview "github.com/daryakhm/storefront-core/internal/http/handlers/request/review"
	requestsubmit "github.com/daryakhm/storefront-core/internal/http/handlers/request/submit"
	"github.com/daryakhm/storefront-core/internal/http/middlewarectx"
	accountservice "github.com/daryakhm/storefront-core/internal/services/accounts"
	authservice "github.com/daryakhm/storefront-core/internal/services/auth"
	enforcerservice "github.com/daryakhm/storefront-core/internal/services/enforcer"
	notificationservice "github.com/daryakhm/storefront-core/internal/services/notifications"
	requestservice "github.com/daryakhm/storefront-core/internal/services/requests"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	accountService *accountservice.AccountService,
	requestService *requestservice.RequestService,
	notificationService *notificationservice.NotificationService,
	enforcerService *enforcerservice.EnforcerService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New().ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/profile", profileview.New(logger, accountService, enforcerService).ServeHTTP)
			r.Patch("/profile/settings", profilesettings.New(logger, accountService).ServeHTTP)
			r.Get("/profile/stream", profilestream.New(logger, accountService, enforcerService).ServeHTTP)

			r.Post("/requests", requestsubmit.New(logger, requestService).ServeHTTP)
			r.Get("/requests/my", requestown.New(logger, requestService).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, notificationService).ServeHTTP)
			r.Get("/notifications/unread", notificationunread.New(logger, notificationService).ServeHTTP)
			r.Post("/notifications/{id}/read", notificationmarkread.New(logger, notificationService).ServeHTTP)
			r.Get("/notifications/direct", notificationdirect.New(logger, notificationService).ServeHTTP)
			r.Post("/notifications/direct/{id}/read", notificationmarkdirect.New(logger, notificationService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/admin/requests", requestlist.New(logger, requestService).ServeHTTP)
				r.Post("/admin/requests/{id}/review", requestreview.New(logger, requestService).ServeHTTP)

				r.Get("/admin/broadcasts", broadcastlist.New(logger, notificationService).ServeHTTP)
				r.Post("/admin/broadcasts", broadcastcreate.New(logger, notificationService).ServeHTTP)
				r.Put("/admin/broadcasts/{id}", broadcastupdate.New(logger, notificationService).ServeHTTP)
				r.Delete("/admin/broadcasts/{id}", broadcastremove.New(logger, notificationService).ServeHTTP)

				r.Post("/admin/accounts/{uid}/premium", premium.New(logger, accountService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
