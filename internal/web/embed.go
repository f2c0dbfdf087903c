// Package web serves the embedded front-end build for single-binary deployment.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// HasEmbeddedFiles reports whether a front-end build with an index.html was embedded.
func HasEmbeddedFiles() bool {
	staticFS, err := GetFileSystem()
	if err != nil {
		return false
	}
	return hasIndex(staticFS)
}

func hasIndex(fsys fs.FS) bool {
	_, err := fs.Stat(fsys, "index.html")
	return err == nil
}

// RegisterStaticRoutes serves fsys for every path not claimed by an earlier
// route. Unknown paths get index.html so the client router can resolve them;
// unknown /api paths stay 404.
func RegisterStaticRoutes(e *echo.Echo, fsys fs.FS) {
	fileServer := http.FileServer(http.FS(fsys))

	e.GET("/*", func(c echo.Context) error {
		requestPath := path.Clean(c.Request().URL.Path)
		if strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		name := strings.TrimPrefix(requestPath, "/")
		if name == "" {
			return serveIndexHTML(c, fsys)
		}

		stat, err := fs.Stat(fsys, name)
		if err != nil {
			return serveIndexHTML(c, fsys)
		}
		if stat.IsDir() {
			if _, err := fs.Stat(fsys, path.Join(name, "index.html")); err != nil {
				return serveIndexHTML(c, fsys)
			}
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

// serveIndexHTML serves the main index.html for SPA routing
func serveIndexHTML(c echo.Context, fsys fs.FS) error {
	content, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	return c.HTMLBlob(http.StatusOK, content)
}
