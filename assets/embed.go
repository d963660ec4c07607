package assets

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed sql/*.sql web/*.html web/static/*
var FS embed.FS

// MigrationsDir is the directory of FS holding the SQL migrations.
const MigrationsDir = "sql"

// Templates parses the HTML pages under web/.
func Templates() (*template.Template, error) {
	return template.ParseFS(FS, "web/*.html")
}

// Static returns the files served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(FS, "web/static")
}
