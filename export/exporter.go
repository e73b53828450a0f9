// Package export streams collection documents into object storage, one JSON
// object per result page, using cursor pagination against the source engine.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/c360studio/schemaport/metrics"
	"github.com/c360studio/schemaport/report"
	"github.com/c360studio/schemaport/solr"
)

// Uploader stores one export page.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body []byte) error
}

// Options configures one export run.
type Options struct {
	// Query selects the documents to export. Defaults to all parent
	// documents with their children attached.
	Query string
	// FieldList is the fl parameter; defaults to all fields plus the child
	// document transformer.
	FieldList string
	// RowsPerPage is the page size for cursor pagination.
	RowsPerPage int
	// MaxRows caps the total exported documents; 0 means unlimited.
	MaxRows int
	// Bucket receives the page objects.
	Bucket string
	// Prefix is prepended to every object key.
	Prefix string
}

const (
	defaultQuery       = `{!parent which="-_nest_path_:* *:*"}`
	defaultFieldList   = "*,[child limit=-1]"
	defaultSort        = "id asc"
	defaultRowsPerPage = 500
	defaultPrefix      = "solr-data/"
	initialCursorMark  = "*"
)

// Exporter pages documents out of a collection and uploads each page.
type Exporter struct {
	source  solr.SourceClient
	store   Uploader
	opts    Options
	metrics *metrics.Recorder
	logger  *slog.Logger

	// binaryRepairs holds one compiled pattern per binary field, built from
	// the schema before the first page.
	binaryRepairs []binaryRepair
}

type binaryRepair struct {
	field   string
	pattern *regexp.Regexp
	replace []byte
}

// New creates an exporter. metrics may be nil.
func New(source solr.SourceClient, store Uploader, opts Options, rec *metrics.Recorder, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Query == "" {
		opts.Query = defaultQuery
	}
	if opts.FieldList == "" {
		opts.FieldList = defaultFieldList
	}
	if opts.RowsPerPage <= 0 {
		opts.RowsPerPage = defaultRowsPerPage
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	return &Exporter{
		source:  source,
		store:   store,
		opts:    opts,
		metrics: rec,
		logger:  logger,
	}
}

// selectResponse is the subset of the select handler response paging needs.
type selectResponse struct {
	Response struct {
		NumFound int              `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	NextCursorMark string `json:"nextCursorMark"`
}

// Run exports the collection and returns the populated report. A page that
// fails to parse even after binary repair is skipped when its cursor can
// still be recovered; an unrecoverable page aborts the run.
func (e *Exporter) Run(ctx context.Context) (*report.ExportReport, error) {
	rep := report.NewExport(e.source.Collection(), e.opts.Bucket)
	defer rep.Finish()

	if err := e.prepareBinaryRepairs(ctx); err != nil {
		rep.AddError(err)
		return rep, err
	}

	total, err := e.source.Count(ctx)
	if err != nil {
		rep.AddError(err)
		return rep, fmt.Errorf("count documents: %w", err)
	}
	rep.TotalDocs = total
	e.logger.Info("Starting export", "collection", e.source.Collection(), "total", total)

	cursor := initialCursorMark
	for page := 0; ; page++ {
		if e.opts.MaxRows > 0 && rep.ExportedDocs >= e.opts.MaxRows {
			rep.Truncated = true
			e.logger.Warn("Row cap reached, stopping export", "exported", rep.ExportedDocs, "cap", e.opts.MaxRows)
			break
		}

		body, err := e.source.QueryRaw(ctx, solr.QueryParams{
			Query:      e.opts.Query,
			FieldList:  e.opts.FieldList,
			Sort:       defaultSort,
			CursorMark: cursor,
			Rows:       e.opts.RowsPerPage,
		})
		if err != nil {
			rep.AddError(err)
			return rep, fmt.Errorf("fetch page %d: %w", page, err)
		}

		body = e.repairBinaryFields(body)

		var resp selectResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			// The page is unusable but the run can continue if the next
			// cursor survives in the raw text. Without it another request
			// would fetch the same broken page forever.
			next, ok := extractCursorMark(body)
			if !ok || next == cursor {
				rep.AddError(fmt.Errorf("parse page %d: %w", page, err))
				return rep, fmt.Errorf("parse page %d: %w", page, err)
			}
			e.logger.Warn("Skipping unparseable page", "page", page, "error", err)
			rep.SkippedPages++
			rep.AddError(fmt.Errorf("page %d skipped: %w", page, err))
			cursor = next
			continue
		}

		if len(resp.Response.Docs) == 0 {
			break
		}

		if err := e.uploadPage(ctx, page, resp.Response.Docs); err != nil {
			rep.AddError(err)
			return rep, err
		}
		rep.Pages++
		rep.ExportedDocs += len(resp.Response.Docs)
		e.metrics.AddDocuments(len(resp.Response.Docs))
		e.metrics.IncPage()
		e.logger.Info("Exported page", "page", page, "docs", len(resp.Response.Docs), "exported", rep.ExportedDocs)

		if resp.NextCursorMark == "" || resp.NextCursorMark == cursor {
			break
		}
		cursor = resp.NextCursorMark
	}

	e.logger.Info("Export finished", "summary", rep.Summary())
	return rep, nil
}

func (e *Exporter) uploadPage(ctx context.Context, page int, docs []map[string]any) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode page %d: %w", page, err)
	}
	key := fmt.Sprintf("%s%s_batch_%d.json", e.opts.Prefix, e.source.Collection(), page)
	if err := e.store.Upload(ctx, e.opts.Bucket, key, data); err != nil {
		return fmt.Errorf("upload page %d: %w", page, err)
	}
	return nil
}

// prepareBinaryRepairs scans the schema for binary-typed fields. Solr emits
// their values as unquoted base64 runs, which breaks JSON decoding; each such
// field gets a quoting pattern applied to the raw page before parsing.
func (e *Exporter) prepareBinaryRepairs(ctx context.Context) error {
	schema, err := e.source.ReadSchema(ctx)
	if err != nil {
		return fmt.Errorf("read schema for binary fields: %w", err)
	}

	binaryTypes := make(map[string]bool)
	for _, ft := range schema.FieldTypes {
		if strings.HasSuffix(ft.String("class"), "BinaryField") {
			binaryTypes[ft.String("name")] = true
		}
	}
	if len(binaryTypes) == 0 {
		return nil
	}

	for _, f := range schema.Fields {
		if !binaryTypes[f.String("type")] {
			continue
		}
		name := f.String("name")
		e.binaryRepairs = append(e.binaryRepairs, binaryRepair{
			field:   name,
			pattern: regexp.MustCompile(`"` + regexp.QuoteMeta(name) + `":\s*([^",\{\[\s][^,}\]\s]*)`),
			replace: []byte(`"` + name + `":"$1"`),
		})
		e.logger.Info("Binary field detected", "field", name)
	}
	return nil
}

// repairBinaryFields quotes unquoted binary values in a raw response body.
func (e *Exporter) repairBinaryFields(body []byte) []byte {
	for _, r := range e.binaryRepairs {
		body = r.pattern.ReplaceAll(body, r.replace)
	}
	return body
}

var cursorMarkPattern = regexp.MustCompile(`"nextCursorMark"\s*:\s*"([^"]+)"`)

// extractCursorMark pulls nextCursorMark out of a response that failed JSON
// decoding.
func extractCursorMark(body []byte) (string, bool) {
	m := cursorMarkPattern.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}
