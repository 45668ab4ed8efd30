// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной проверке учётных данных сервис создаёт новую сессию, а обработчик
// выставляет подписанную cookie с её токеном и возвращает роль пользователя.
// Сессия, с которой клиент пришёл, уничтожается.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/team-portal/internal/http/request"
	"github.com/magabrotheeeer/team-portal/internal/http/response"
	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
	"github.com/magabrotheeeer/team-portal/internal/session"
)

// Request — учётные данные для входа.
type Request struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Response — ответ на успешный вход. Role нужен клиенту, чтобы выбрать страницу.
type Response struct {
	response.Response
	Role string `json:"role"`
}

// Service описывает вход в сервисе аутентификации.
type Service interface {
	Login(ctx context.Context, currentToken, username, password string) (*session.Session, error)
}

// Cookies читает и выставляет cookie сессии.
type Cookies interface {
	Read(r *http.Request) (string, error)
	Write(w http.ResponseWriter, token string) error
}

// Handler обрабатывает POST /login.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookies  Cookies
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cookies Cookies) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookies:  cookies,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет username и пароль, открывает сессию и выставляет cookie. Возвращает роль пользователя.
// @Tags Auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body Request true "Учётные данные"
// @Success 200 {object} Response "Login successful"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "User not Found / Invalid Password"
// @Failure 500 {object} response.ErrorResponse "Failed to login"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := request.Decode(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	// Подделанная или отсутствующая cookie просто не даёт токена для ротации.
	currentToken, _ := h.cookies.Read(r)

	sess, err := h.service.Login(r.Context(), currentToken, req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		log.Info("user not found", slog.String("username", req.Username))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("User not Found"))
		return
	case errors.Is(err, services.ErrInvalidPassword):
		log.Info("invalid password", slog.String("username", req.Username))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Invalid Password"))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to login"))
		return
	}

	if err = h.cookies.Write(w, sess.Token); err != nil {
		log.Error("failed to write session cookie", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to login"))
		return
	}

	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, Response{
		Response: response.OK("Login successful"),
		Role:     sess.User.Role,
	})
}
