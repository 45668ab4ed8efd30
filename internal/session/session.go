// Package session хранит серверные сессии пользователей.
//
// Сессия адресуется непрозрачным токеном, который клиент получает в подписанной
// cookie. Хранилище подключаемое: MemoryStore для тестов и локального запуска,
// RedisStore для продакшена. Истечение сессии обеспечивает само хранилище.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/team-portal/internal/models"
)

// ErrNotFound — сессии с таким токеном нет или она истекла.
var ErrNotFound = errors.New("session not found")

// Session связывает токен с аутентифицированным пользователем.
type Session struct {
	Token     string      `json:"-"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Store описывает хранилище сессий.
type Store interface {
	// Save сохраняет сессию под s.Token со временем жизни ttl.
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	// Load возвращает сессию или ErrNotFound.
	Load(ctx context.Context, token string) (*Session, error)
	// Delete удаляет сессию; удаление отсутствующей сессии не ошибка.
	Delete(ctx context.Context, token string) error
}

// New создаёт сессию для пользователя со свежим случайным токеном.
func New(user models.User, now time.Time, ttl time.Duration) *Session {
	return &Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
