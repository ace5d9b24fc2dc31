// Package paywall собирает HTTP-приложение: маршруты, middleware и зависимости.
package paywall

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/content-paywall/docs"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/admin/contentcreate"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/admin/contentdelete"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/admin/contentupdate"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/admin/subscriptions"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/auth/register"
	contentget "github.com/magabrotheeeer/content-paywall/internal/http/handlers/content/get"
	contentlist "github.com/magabrotheeeer/content-paywall/internal/http/handlers/content/list"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/health"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/subscription/mine"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/subscription/pix"
	"github.com/magabrotheeeer/content-paywall/internal/http/handlers/subscription/webhook"
	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/session"
	"github.com/magabrotheeeer/content-paywall/internal/metrics"
	"github.com/magabrotheeeer/content-paywall/internal/models"
	adminservice "github.com/magabrotheeeer/content-paywall/internal/services/admin"
	authservice "github.com/magabrotheeeer/content-paywall/internal/services/auth"
	contentservice "github.com/magabrotheeeer/content-paywall/internal/services/content"
	subservice "github.com/magabrotheeeer/content-paywall/internal/services/subscription"
)

// Services зависимости обработчиков.
type Services struct {
	Auth         *authservice.AuthService
	Content      *contentservice.ContentService
	Subscription *subservice.SubscriptionService
	Admin        *adminservice.AdminService
	Health       health.Pinger

	// Verifier проверяет подпись вебхука. nil отключает проверку.
	Verifier webhook.Verifier
	Cookies  *session.Cookies
	Limiter  *middlewarectx.RateLimiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(s.Metrics),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.Identify(s.Auth, s.Cookies.Name()))

		r.Route("/auth", func(r chi.Router) {
			limited := r.With(s.Limiter.Middleware(logger))
			limited.Post("/register", register.New(logger, s.Auth, s.Cookies).ServeHTTP)
			limited.Post("/login", login.New(logger, s.Auth, s.Cookies).ServeHTTP)
			r.Post("/logout", logout.New(logger, s.Cookies).ServeHTTP)
			r.Get("/me", me.New().ServeHTTP)
		})

		// Доступ к элементам решает сервис контента, вход не обязателен.
		r.Get("/content", contentlist.New(logger, s.Content).ServeHTTP)
		r.Get("/content/{id}", contentget.New(logger, s.Content).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAuth(logger))
			r.Get("/subscriptions/me", mine.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/pix", pix.New(logger, s.Subscription).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/subscriptions/webhook", webhook.New(logger, s.Subscription, s.Verifier).ServeHTTP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.RequireAuth(logger))
			r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
			r.Post("/content", contentcreate.New(logger, s.Admin).ServeHTTP)
			r.Patch("/content/{id}", contentupdate.New(logger, s.Admin).ServeHTTP)
			r.Delete("/content/{id}", contentdelete.New(logger, s.Admin).ServeHTTP)
			r.Get("/users", users.New(logger, s.Admin).ServeHTTP)
			r.Get("/subscriptions", subscriptions.New(logger, s.Admin).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
