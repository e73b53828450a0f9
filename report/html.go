package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	schemaTemplate = template.Must(template.ParseFS(templateFS, "templates/schema.html.tmpl"))
	exportTemplate = template.Must(template.ParseFS(templateFS, "templates/export.html.tmpl"))
)

// WriteHTML renders the schema migration report to path.
func (r *Report) WriteHTML(path string) error {
	return writeTemplate(schemaTemplate, path, r)
}

// WriteHTML renders the export report to path.
func (r *ExportReport) WriteHTML(path string) error {
	return writeTemplate(exportTemplate, path, r)
}

func writeTemplate(tmpl *template.Template, path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
