// Package pages отдаёт встроенные HTML-страницы и статические ресурсы портала.
package pages

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
)

// Handler отдаёт одну страницу из fsys.
type Handler struct {
	log  *slog.Logger
	fsys fs.FS
	name string
}

// New создает Handler для файла name.
func New(log *slog.Logger, fsys fs.FS, name string) *Handler {
	return &Handler{
		log:  log,
		fsys: fsys,
		name: name,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, err := fs.Stat(h.fsys, h.name); err != nil {
		h.log.Error("page is missing",
			slog.String("op", "handlers.pages"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("page", h.name),
		)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFileFS(w, r, h.fsys, h.name)
}

// Static отдаёт файлы из fsys под префиксом prefix.
func Static(prefix string, fsys fs.FS) http.Handler {
	return http.StripPrefix(prefix, http.FileServerFS(fsys))
}
