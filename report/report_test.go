package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCounting(t *testing.T) {
	var c Category

	c.Success(Detail{Name: "title", SourceType: "string", TargetType: "keyword"})
	c.Failure(Detail{Name: "broken", SourceType: "unmapped"}, errors.New("no mapping rule defined"))
	c.Record(Detail{Name: "standardabc", Status: StatusSuccess})
	c.Record(Detail{Name: "icudef", Status: StatusFailed, Error: "no mapping rule defined"})

	assert.Equal(t, 4, c.Attempted)
	assert.Equal(t, 2, c.Succeeded)
	assert.Equal(t, 2, c.Failed)
	assert.Len(t, c.Errors, 2)
	assert.Len(t, c.Details, 4)
	assert.Equal(t, StatusSuccess, c.Details[0].Status)
	assert.Equal(t, StatusFailed, c.Details[1].Status)
	assert.Equal(t, "no mapping rule defined", c.Details[1].Error)
}

func TestReportLifecycle(t *testing.T) {
	r := New("products", "products-v2")
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "products", r.Collection)
	assert.Zero(t, r.Duration())

	r.Finish()
	assert.False(t, r.FinishedAt.IsZero())

	cats := r.Categories()
	require.Len(t, cats, 7)
	assert.Equal(t, "Field types", cats[0].Label)
	assert.Same(t, &r.FieldTypes, cats[0].Category)
}

func TestWriteHTML(t *testing.T) {
	r := New("products", "products-v2")
	r.FieldTypes.Success(Detail{Name: "text_en", SourceType: "solr.TextField", TargetType: "text"})
	r.Fields.Failure(Detail{Name: "broken", SourceType: "unmapped"}, errors.New("no mapping rule defined"))
	r.Finish()

	path := filepath.Join(t.TempDir(), "reports", "schema.html")
	require.NoError(t, r.WriteHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "products")
	assert.Contains(t, html, "text_en")
	assert.Contains(t, html, "no mapping rule defined")
	assert.Contains(t, html, r.RunID)
}

func TestExportReport(t *testing.T) {
	r := NewExport("products", "data-bucket")
	r.TotalDocs = 1200
	r.ExportedDocs = 1000
	r.Pages = 2
	r.SkippedPages = 1
	r.AddError(errors.New("page 1 skipped"))
	r.Finish()

	assert.Equal(t, "exported 1000/1200 docs in 2 pages (1 skipped)", r.Summary())

	path := filepath.Join(t.TempDir(), "export.html")
	require.NoError(t, r.WriteHTML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data-bucket")
	assert.Contains(t, string(data), "page 1 skipped")
}
