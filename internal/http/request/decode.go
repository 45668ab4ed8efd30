// Package request декодирует тела запросов в JSON или urlencoded-форме.
package request

import (
	"net/http"

	"github.com/go-chi/render"
)

// Decode разбирает тело запроса в v по Content-Type. Запрос без
// Content-Type считается JSON.
func Decode(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") == "" {
		return render.DecodeJSON(r.Body, v)
	}
	return render.Decode(r, v)
}
