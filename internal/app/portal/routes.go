package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// swagger spec для /docs/*
	_ "github.com/magabrotheeeer/team-portal/docs"
	"github.com/magabrotheeeer/team-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/team-portal/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/team-portal/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/team-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/team-portal/internal/http/handlers/pages"
	"github.com/magabrotheeeer/team-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/team-portal/internal/metrics"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
	"github.com/magabrotheeeer/team-portal/internal/session"
	"github.com/magabrotheeeer/team-portal/web"
)

// Routes — зависимости маршрутизатора.
type Routes struct {
	Logger   *slog.Logger
	Auth     *services.AuthService
	Cookies  *session.CookieCodec
	Storage  health.Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты портала.
func RegisterRoutes(r chi.Router, d Routes) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
	)

	pagesFS := web.Pages()

	// Открытые страницы
	r.Get("/", pages.New(d.Logger, pagesFS, "login.html").ServeHTTP)
	r.Get("/signup", pages.New(d.Logger, pagesFS, "signup.html").ServeHTTP)
	r.Handle("/public/*", pages.Static("/public/", web.Public()))

	// API аутентификации
	r.Post("/signup", signup.New(d.Logger, d.Auth).ServeHTTP)
	r.Post("/login", login.New(d.Logger, d.Auth, d.Cookies).ServeHTTP)
	r.Get("/logout", logout.New(d.Logger, d.Auth, d.Cookies).ServeHTTP)

	// Страницы только для вошедших пользователей
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RequireSession(d.Auth, d.Cookies, d.Logger))
		r.Get("/Core", pages.New(d.Logger, pagesFS, "core.html").ServeHTTP)
		r.Get("/Member", pages.New(d.Logger, pagesFS, "member.html").ServeHTTP)
		r.Get("/Team", pages.New(d.Logger, pagesFS, "team.html").ServeHTTP)
	})

	r.Get("/health", health.New(d.Logger, d.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
