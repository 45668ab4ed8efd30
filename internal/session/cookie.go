package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrNoCookie — запрос не содержит валидной cookie сессии.
var ErrNoCookie = errors.New("session cookie missing or invalid")

// CookieCodec подписывает токен сессии HMAC-ом на секрете сессий
// и переносит его в cookie и обратно.
type CookieCodec struct {
	name   string
	ttl    time.Duration
	secure bool
	sc     *securecookie.SecureCookie
}

// NewCookieCodec создаёт кодек cookie с именем name.
func NewCookieCodec(name, secret string, ttl time.Duration, secure bool) *CookieCodec {
	sc := securecookie.New([]byte(secret), nil)
	sc.MaxAge(int(ttl.Seconds()))
	return &CookieCodec{
		name:   name,
		ttl:    ttl,
		secure: secure,
		sc:     sc,
	}
}

// Name возвращает имя cookie.
func (c *CookieCodec) Name() string {
	return c.name
}

// Write выставляет cookie с подписанным токеном.
func (c *CookieCodec) Write(w http.ResponseWriter, token string) error {
	const op = "session.CookieCodec.Write"
	encoded, err := c.sc.Encode(c.name, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read извлекает токен из cookie запроса. Отсутствующая или подделанная
// cookie даёт ErrNoCookie.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrNoCookie
	}
	var token string
	if err = c.sc.Decode(c.name, cookie.Value, &token); err != nil || token == "" {
		return "", ErrNoCookie
	}
	return token, nil
}

// Clear удаляет cookie у клиента.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
