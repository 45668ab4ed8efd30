// Package services содержит логику регистрации, входа и проверки сессий пользователей.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/team-portal/internal/lib/password"
	"github.com/magabrotheeeer/team-portal/internal/lib/sl"
	"github.com/magabrotheeeer/team-portal/internal/metrics"
	"github.com/magabrotheeeer/team-portal/internal/models"
	"github.com/magabrotheeeer/team-portal/internal/session"
	"github.com/magabrotheeeer/team-portal/internal/storage"
)

var (
	// ErrUserExists — username уже занят.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound — пользователя с таким username нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword — пароль не совпал с сохранённым хэшем.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrUnauthenticated — у запроса нет действующей сессии.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPasswordTooLong — пароль длиннее, чем принимает bcrypt.
	ErrPasswordTooLong = errors.New("password is too long")
)

// UserRepository описывает контракт хранилища учётных записей.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	// Занятый username даёт storage.ErrDuplicateUsername.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя или storage.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Notifier получает события об успешной регистрации.
type Notifier interface {
	UserRegistered(ctx context.Context, user models.User) error
}

// SignupInput — данные регистрации.
type SignupInput struct {
	Name     string
	Username string
	Password string
	Team     string
	Role     string
}

// AuthService отвечает за регистрацию, вход, выход и проверку сессии.
type AuthService struct {
	users      UserRepository
	sessions   session.Store
	sessionTTL time.Duration
	notifier   Notifier
	metrics    *metrics.Metrics
	log        *slog.Logger
	now        func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
// notifier и m могут быть nil.
func NewAuthService(
	users UserRepository,
	sessions session.Store,
	sessionTTL time.Duration,
	notifier Notifier,
	m *metrics.Metrics,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		notifier:   notifier,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

// Signup регистрирует пользователя. Занятый username проверяется до хеширования,
// гонку двух регистраций разрешает ограничение уникальности хранилища.
// Вход после регистрации не выполняется.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	const op = "services.auth.Signup"

	_, err := s.users.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeUserExists)
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	case !errors.Is(err, storage.ErrUserNotFound):
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(in.Password)
	if errors.Is(err, password.ErrTooLong) {
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeInvalidInput)
		return fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}
	if err != nil {
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: hashed,
		Team:         in.Team,
		Role:         in.Role,
	}
	id, err := s.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrDuplicateUsername) {
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeUserExists)
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}
	user.UUID = id
	s.metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeSuccess)

	if s.notifier != nil {
		if err := s.notifier.UserRegistered(ctx, user); err != nil {
			s.log.Warn("failed to publish user registered event",
				slog.String("op", op), slog.String("username", user.Username), sl.Err(err))
		}
	}
	return nil
}

// Login проверяет пароль и привязывает пользователя к новой сессии.
// Сессия currentToken, если она была, уничтожается. При любой ошибке
// проверки учётных данных хранилище сессий не трогается.
func (s *AuthService) Login(ctx context.Context, currentToken, username, rawPassword string) (*session.Session, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeUserNotFound)
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeInvalidPassword)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
		}
		s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if currentToken != "" {
		if err = s.sessions.Delete(ctx, currentToken); err != nil {
			s.log.Warn("failed to drop previous session", slog.String("op", op), sl.Err(err))
		}
	}

	sess := session.New(*user, s.now().UTC(), s.sessionTTL)
	if err = s.sessions.Save(ctx, sess, s.sessionTTL); err != nil {
		s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeSuccess)
	return sess, nil
}

// Logout уничтожает сессию. Пустой или уже удалённый токен ошибкой не считается.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	const op = "services.auth.Logout"
	if token == "" {
		s.metrics.ObserveAuth(metrics.OpLogout, metrics.OutcomeSuccess)
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.metrics.ObserveAuth(metrics.OpLogout, metrics.OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ObserveAuth(metrics.OpLogout, metrics.OutcomeSuccess)
	return nil
}

// Authenticate возвращает пользователя, привязанного к сессии token.
// Отсутствующая или истёкшая сессия даёт ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.Authenticate"
	if token == "" {
		s.metrics.ObserveAuth(metrics.OpGuard, metrics.OutcomeUnauthenticated)
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	sess, err := s.sessions.Load(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.ObserveAuth(metrics.OpGuard, metrics.OutcomeUnauthenticated)
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if err != nil {
		s.metrics.ObserveAuth(metrics.OpGuard, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ObserveAuth(metrics.OpGuard, metrics.OutcomeSuccess)
	return &sess.User, nil
}
