package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/team-portal/internal/models"
	"github.com/magabrotheeeer/team-portal/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Если username уже занят, возвращает storage.ErrDuplicateUsername.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.postgresql.CreateUser"

	var newID string
	query := `INSERT INTO users (name, username, password_hash, team, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Username, user.PasswordHash, user.Team, user.Role).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, storage.ErrDuplicateUsername)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"

	query := `SELECT uid, name, username, password_hash, team, role, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, username).Scan(
		&u.UUID, &u.Name, &u.Username, &u.PasswordHash, &u.Team, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
