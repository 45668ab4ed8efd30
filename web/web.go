// Package web встраивает в бинарник HTML-страницы портала и статические ресурсы.
package web

import (
	"embed"
	"io/fs"
)

//go:embed pages public
var content embed.FS

// Pages возвращает каталог HTML-страниц.
func Pages() fs.FS {
	sub, err := fs.Sub(content, "pages")
	if err != nil {
		panic(err)
	}
	return sub
}

// Public возвращает каталог статических ресурсов, отдаваемых под /public/.
func Public() fs.FS {
	sub, err := fs.Sub(content, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
