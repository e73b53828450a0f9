// Package report collects per-category migration outcomes and renders them
// as HTML documents. Reports are additive: mappers only ever append, totals
// are derived at render time.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status of one detail record.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Detail is one construct-level outcome line.
type Detail struct {
	Name       string
	SourceType string
	TargetType string
	Status     Status
	Error      string
}

// Category accumulates outcomes for one schema element kind.
type Category struct {
	Attempted int
	Succeeded int
	Failed    int
	Errors    []string
	Details   []Detail
}

// Success records a successful outcome.
func (c *Category) Success(d Detail) {
	d.Status = StatusSuccess
	c.Attempted++
	c.Succeeded++
	c.Details = append(c.Details, d)
}

// Failure records a failed outcome and its error text.
func (c *Category) Failure(d Detail, err error) {
	d.Status = StatusFailed
	if err != nil {
		d.Error = err.Error()
		c.Errors = append(c.Errors, err.Error())
	}
	c.Attempted++
	c.Failed++
	c.Details = append(c.Details, d)
}

// Record stores a pre-built detail without recomputing its error text.
// Used for sub-construct outcomes extracted from aggregate errors.
func (c *Category) Record(d Detail) {
	c.Attempted++
	if d.Status == StatusSuccess {
		c.Succeeded++
	} else {
		c.Failed++
		if d.Error != "" {
			c.Errors = append(c.Errors, d.Error)
		}
	}
	c.Details = append(c.Details, d)
}

// Report is the full outcome of one schema migration run.
type Report struct {
	RunID      string
	Collection string
	IndexName  string
	StartedAt  time.Time
	FinishedAt time.Time

	FieldTypes    Category
	Fields        Category
	DynamicFields Category
	CopyFields    Category
	Tokenizers    Category
	Filters       Category
	CharFilters   Category
}

// New creates a report for one run. The run ID ties log lines, metrics, and
// report documents together.
func New(collection, indexName string) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Collection: collection,
		IndexName:  indexName,
		StartedAt:  time.Now().UTC(),
	}
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns the elapsed run time, zero until Finish is called.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Categories returns the named categories in presentation order.
func (r *Report) Categories() []NamedCategory {
	return []NamedCategory{
		{"Field types", &r.FieldTypes},
		{"Fields", &r.Fields},
		{"Dynamic fields", &r.DynamicFields},
		{"Copy fields", &r.CopyFields},
		{"Tokenizers", &r.Tokenizers},
		{"Filters", &r.Filters},
		{"Char filters", &r.CharFilters},
	}
}

// NamedCategory pairs a category with its display label.
type NamedCategory struct {
	Label    string
	Category *Category
}

// ExportReport is the outcome of one data export run.
type ExportReport struct {
	RunID      string
	Collection string
	Bucket     string
	StartedAt  time.Time
	FinishedAt time.Time

	TotalDocs    int
	ExportedDocs int
	Pages        int
	SkippedPages int
	Truncated    bool
	Errors       []string
}

// NewExport creates an export report.
func NewExport(collection, bucket string) *ExportReport {
	return &ExportReport{
		RunID:      uuid.NewString(),
		Collection: collection,
		Bucket:     bucket,
		StartedAt:  time.Now().UTC(),
	}
}

// Finish stamps the completion time.
func (r *ExportReport) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// AddError appends an error line.
func (r *ExportReport) AddError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// Summary returns a one-line text summary suitable for logging.
func (r *ExportReport) Summary() string {
	return fmt.Sprintf("exported %d/%d docs in %d pages (%d skipped)",
		r.ExportedDocs, r.TotalDocs, r.Pages, r.SkippedPages)
}
