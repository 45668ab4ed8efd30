// Package models содержит доменную модель пользователя портала:
// учётные данные, хэш пароля, команду и роль.
// Структура используется в бизнес‑логике, в хранилищах и в сессиях.
package models

import "time"

// User представляет зарегистрированного пользователя портала.
type User struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Username     string    `json:"username"` // уникальное, не меняется после создания
	PasswordHash string    `json:"-"`        // bcrypt-хэш, в JSON не попадает
	Team         string    `json:"team"`
	Role         string    `json:"role"` // используется только клиентом для выбора страницы
	CreatedAt    time.Time `json:"created_at"`
}
