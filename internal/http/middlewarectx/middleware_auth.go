// Package middlewarectx содержит HTTP middleware проверки сессии.
//
// RequireSession читает подписанную cookie сессии, проверяет сессию через сервис
// аутентификации и в случае успеха кладёт пользователя в контекст запроса.
// Без действующей сессии запрос получает 401 Unauthorized с Location: /,
// защищённый обработчик не вызывается.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/team-portal/internal/http/response"
	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
	"github.com/magabrotheeeer/team-portal/internal/models"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ для аутентифицированного пользователя в контексте.
const User Key = "user"

// Authenticator проверяет токен сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// TokenReader извлекает токен сессии из запроса.
type TokenReader interface {
	Read(r *http.Request) (string, error)
}

// RequireSession возвращает middleware, пропускающий только запросы с действующей сессией.
func RequireSession(auth Authenticator, cookies TokenReader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireSession"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("path", r.URL.Path),
			)

			token, err := cookies.Read(r)
			if err != nil {
				log.Info("request without session", sl.Err(err))
				unauthorized(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, services.ErrUnauthenticated) {
				log.Info("session is missing or expired")
				unauthorized(w, r)
				return
			}
			if err != nil {
				log.Error("failed to check session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal server error"))
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext возвращает пользователя, которого положил RequireSession.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Location", "/")
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error("unauthorized"))
}
