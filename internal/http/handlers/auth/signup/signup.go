// Package signup реализует HTTP-обработчик регистрации пользователя.
//
// Тело запроса принимается в JSON или urlencoded-форме, валидируется и передаётся
// в сервис аутентификации. Регистрация не открывает сессию: после неё клиент
// входит через /login.
package signup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/team-portal/internal/http/request"
	"github.com/magabrotheeeer/team-portal/internal/http/response"
	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
	services "github.com/magabrotheeeer/team-portal/internal/services/auth"
)

// Request — данные регистрации.
//
// Пароль ограничен 72 байтами (не символами): больше bcrypt не принимает.
type Request struct {
	Name     string `json:"name" form:"name" validate:"required,max=100"`
	Username string `json:"username" form:"username" validate:"required,max=64,printascii"`
	Password string `json:"password" form:"password" validate:"required,maxbytes=72"`
	Team     string `json:"team" form:"team" validate:"max=64"`
	Role     string `json:"role" form:"role" validate:"max=64"`
}

// Service описывает регистрацию в сервисе аутентификации.
type Service interface {
	Signup(ctx context.Context, in services.SignupInput) error
}

// Handler обрабатывает POST /signup.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	validate := validator.New()
	// RegisterValidation падает только на пустом имени тега.
	_ = validate.RegisterValidation("maxbytes", maxBytes)
	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// maxBytes ограничивает длину строки в байтах; встроенный max считает руны.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создаёт учётную запись. Username должен быть свободен. Вход не выполняется.
// @Tags Auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body Request true "Данные нового пользователя"
// @Success 200 {object} response.Response "Signup successful"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело, ошибка валидации или занятый username"
// @Failure 500 {object} response.ErrorResponse "Failed to create user"
// @Router /signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

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

	err := h.service.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Team:     req.Team,
		Role:     req.Role,
	})
	switch {
	case errors.Is(err, services.ErrUserExists):
		log.Info("username already taken", slog.String("username", req.Username))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("User already exists"))
		return
	case errors.Is(err, services.ErrPasswordTooLong):
		log.Info("password exceeds bcrypt limit", slog.String("username", req.Username))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field Password must be at most 72 bytes long"))
		return
	case err != nil:
		log.Error("failed to create user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to create user"))
		return
	}

	log.Info("user registered", slog.String("username", req.Username))
	render.JSON(w, r, response.OK("Signup successful"))
}
