// Package storage объявляет ошибки, общие для всех хранилищ учётных записей.
// Реализации лежат в подпакетах postgresql, mongodb и memory.
package storage

import "errors"

var (
	// ErrUserNotFound — пользователь с таким username не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername — username уже занят (нарушение уникальности в хранилище).
	ErrDuplicateUsername = errors.New("duplicate username")
)
