// Package password реализует хеширование и проверку паролей на bcrypt.
//
// GetHash создает bcrypt-хеш пароля с фиксированной стоимостью Cost.
// CompareHash сверяет сохранённый хеш с введённым паролем за постоянное время.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost — стоимость bcrypt, используемая при регистрации.
const Cost = 10

// MaxLength — предел длины пароля в байтах, который принимает bcrypt.
const MaxLength = 72

var (
	// ErrMismatch возвращается CompareHash, если пароль не соответствует хешу.
	ErrMismatch = errors.New("password does not match hash")
	// ErrTooLong возвращается GetHash для пароля длиннее MaxLength байт.
	ErrTooLong = errors.New("password is too long")
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Несовпадение пароля возвращается как ErrMismatch, остальные ошибки
// (например, повреждённый хеш) оборачиваются как есть.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
