// Package portal собирает приложение: хранилища, сервис аутентификации,
// маршруты и HTTP-сервер.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/team-portal/internal/cache"
	"github.com/magabrotheeeer/team-portal/internal/config"
	"github.com/magabrotheeeer/team-portal/internal/events"
	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
	"github.com/magabrotheeeer/team-portal/internal/metrics"
	"github.com/magabrotheeeer/team-portal/internal/migrations"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
	"github.com/magabrotheeeer/team-portal/internal/session"
	"github.com/magabrotheeeer/team-portal/internal/storage/memory"
	"github.com/magabrotheeeer/team-portal/internal/storage/mongodb"
	"github.com/magabrotheeeer/team-portal/internal/storage/postgresql"
)

// ErrUnsupportedStorage — схема строки подключения не поддерживается.
var ErrUnsupportedStorage = errors.New("unsupported storage scheme")

// UserStore — хранилище учётных записей вместе с проверкой доступности.
type UserStore interface {
	services.UserRepository
	Ping(ctx context.Context) error
	io.Closer
}

// App — собранное приложение портала.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []io.Closer
}

// New подключает хранилища и брокер по конфигурации и собирает HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.portal.New"

	app := &App{logger: logger}

	users, err := OpenUserStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.closers = append(app.closers, users)

	sessions, err := app.openSessionStore(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var notifier services.Notifier = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, publisher)
		notifier = publisher
	} else {
		logger.Info("rabbitmq is not configured, account events are not published")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	authService := services.NewAuthService(users, sessions, cfg.Session.TTL, notifier, m, logger)
	cookies := session.NewCookieCodec(cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)

	router := chi.NewRouter()
	RegisterRoutes(router, Routes{
		Logger:   logger,
		Auth:     authService,
		Cookies:  cookies,
		Storage:  users,
		Metrics:  m,
		Gatherer: reg,
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address(),
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// OpenUserStore выбирает хранилище учётных записей по схеме строки подключения:
// postgres:// и postgresql:// (с миграциями), mongodb:// и mongodb+srv://, memory://.
func OpenUserStore(ctx context.Context, cfg *config.Config) (UserStore, error) {
	const op = "app.portal.OpenUserStore"

	u, err := url.Parse(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		db, err := postgresql.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = db.CheckDatabaseReady(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return db, nil
	case "mongodb", "mongodb+srv":
		db, err := mongodb.New(ctx, cfg.StorageConnectionString, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return db, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedStorage, u.Scheme)
	}
}

func (a *App) openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.AddressRedis == "" {
		a.logger.Warn("redis is not configured, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}
	c, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c)
	return session.NewRedisStore(c), nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
