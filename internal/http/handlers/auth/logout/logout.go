// Package logout реализует выход пользователя: сессия уничтожается,
// cookie очищается, клиент перенаправляется на страницу входа.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
)

// Service описывает выход в сервисе аутентификации.
type Service interface {
	Logout(ctx context.Context, token string) error
}

// Cookies читает и очищает cookie сессии.
type Cookies interface {
	Read(r *http.Request) (string, error)
	Clear(w http.ResponseWriter)
}

// Handler обрабатывает GET /logout.
type Handler struct {
	log     *slog.Logger
	service Service
	cookies Cookies
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cookies Cookies) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookies: cookies,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Уничтожает сессию, очищает cookie и перенаправляет на страницу входа.
// @Tags Auth
// @Success 302 "Redirect to /"
// @Router /logout [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token, err := h.cookies.Read(r)
	if err == nil {
		if err = h.service.Logout(r.Context(), token); err != nil {
			log.Warn("failed to destroy session", sl.Err(err))
		}
	}

	h.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
