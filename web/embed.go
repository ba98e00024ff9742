// Package web holds the HTML templates and static assets compiled into the
// server binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"pipe-rack-manager/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// FuncMap is available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statuses":   models.Statuses,
		"statusInfo": func(s models.RackStatus) models.StatusInfo { return s.Info() },
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02")
		},
	}
}

// Templates parses all page and fragment templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// Static serves the files under static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the embedded directory always exists
	}
	return http.FS(sub)
}
