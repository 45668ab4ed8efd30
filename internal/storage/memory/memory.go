// Package memory реализует хранилище учётных записей в памяти процесса.
// Используется в тестах и при локальном запуске без базы данных.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/team-portal/internal/models"
	"github.com/magabrotheeeer/team-portal/internal/storage"
)

// Storage хранит пользователей в map по username.
type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{users: make(map[string]models.User)}
}

// CreateUser сохраняет пользователя; занятый username даёт storage.ErrDuplicateUsername.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrDuplicateUsername)
	}
	user.UUID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	s.users[user.Username] = user
	return user.UUID, nil
}

// GetUserByUsername возвращает копию записи пользователя.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.memory.GetUserByUsername"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return &u, nil
}

// Ping всегда успешен, пока не отменён контекст.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close ничего не делает; нужен для единообразия с остальными хранилищами.
func (s *Storage) Close() error {
	return nil
}
