package site

import (
	"bytes"
	"embed"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed themes/plain/*.html
var themeFS embed.FS

// templateData is the single context shape every layout receives.
type templateData struct {
	Site *Site
	Page *Page
}

// loadTemplates parses the embedded default theme, then overlays any *.html
// files from layoutDir. An override file redefining a template name wins.
func loadTemplates(layoutDir string) (*template.Template, error) {
	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"urlize": slugify,
	}).ParseFS(themeFS, "themes/plain/*.html")
	if err != nil {
		return nil, err
	}

	if layoutDir != "" {
		if _, err := os.Stat(layoutDir); err == nil {
			tmpl, err = tmpl.ParseGlob(filepath.Join(layoutDir, "*.html"))
			if err != nil {
				return nil, err
			}
		}
	}
	return tmpl, nil
}

func executeTemplate(tmpl *template.Template, name string, site *Site, page *Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, templateData{Site: site, Page: page}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
