// Package migrate orchestrates a full schema migration run: field types,
// fields, dynamic fields, copy fields, in that order. Individual mapping
// failures are captured in the report and the run continues; only source or
// output failures abort.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/schemaport/export"
	"github.com/c360studio/schemaport/mapping"
	"github.com/c360studio/schemaport/metrics"
	"github.com/c360studio/schemaport/report"
	"github.com/c360studio/schemaport/solr"
	"github.com/c360studio/schemaport/target"
)

// Options configures one migration run.
type Options struct {
	IndexName string
	// OutDir receives index.json and the HTML reports. Empty disables file
	// output.
	OutDir string
	// CreateIndex applies the built definition through the target admin.
	CreateIndex bool
	// FilterOptions controls dictionary-file resolution.
	FilterOptions mapping.FilterOptions
	// MapFieldsOnAnalyzerFailure counts a field type as migrated when only
	// its analyzer chain failed, so its fields still map.
	MapFieldsOnAnalyzerFailure bool
	// SkipTextAnalysisFailure registers the data-type binding even when the
	// analyzer chain failed.
	SkipTextAnalysisFailure bool
}

const (
	indexFile        = "index.json"
	schemaReportFile = "schema_migration_report.html"
	exportReportFile = "data_migration_report.html"
)

// Migrator wires the mappers, builder, and report for one collection.
type Migrator struct {
	source   solr.SourceClient
	admin    target.Admin
	tables   *mapping.Tables
	packages mapping.PackageProvider
	opts     Options
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// New creates a migrator. admin may be nil when CreateIndex is off; packages
// may be nil when CreatePackages is off; rec may be nil.
func New(source solr.SourceClient, admin target.Admin, tables *mapping.Tables, packages mapping.PackageProvider, opts Options, rec *metrics.Recorder, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		source:   source,
		admin:    admin,
		tables:   tables,
		packages: packages,
		opts:     opts,
		metrics:  rec,
		logger:   logger,
	}
}

// MigrateSchema runs the full schema translation and returns the report.
func (m *Migrator) MigrateSchema(ctx context.Context) (*report.Report, error) {
	schema, err := m.source.ReadSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source schema: %w", err)
	}

	rep := report.New(m.source.Collection(), m.opts.IndexName)
	builder := target.NewBuilder(m.opts.IndexName)

	tokenizers := mapping.NewTokenizerMapper(m.tables.Tokenizers, m.logger)
	filters := mapping.NewFilterMapper(m.tables.Filters, m.tables.CharFilters, m.source, m.packages, m.opts.FilterOptions, m.logger)
	composer := mapping.NewAnalyzerComposer(tokenizers, filters, m.logger)
	fieldTypes := mapping.NewFieldTypeMapper(m.tables.DataTypes, composer,
		m.opts.SkipTextAnalysisFailure || m.opts.MapFieldsOnAnalyzerFailure, m.logger)
	fields := mapping.NewFieldMapper(fieldTypes, m.tables.Attributes, builder, m.logger)
	dynamics := mapping.NewDynamicFieldMapper(fields, m.logger)

	m.mapFieldTypes(ctx, schema, fieldTypes, builder, rep)
	m.mapFields(schema, fields, builder, rep)
	m.mapDynamicFields(schema, dynamics, builder, rep)
	m.mapCopyFields(schema, builder, rep)

	rep.Finish()

	if err := m.writeOutputs(builder, rep); err != nil {
		return rep, err
	}

	if m.opts.CreateIndex {
		if m.admin == nil {
			return rep, fmt.Errorf("create index requested but no target admin configured")
		}
		m.logger.Info("Creating target index", "index", m.opts.IndexName)
		if err := m.admin.CreateIndex(ctx, m.opts.IndexName, builder.IndexDefinition()); err != nil {
			return rep, fmt.Errorf("create index %s: %w", m.opts.IndexName, err)
		}
	}

	if err := m.metrics.Flush(); err != nil {
		m.logger.Warn("Failed to push metrics", "error", err)
	}
	return rep, nil
}

func (m *Migrator) mapFieldTypes(ctx context.Context, schema *solr.Schema, mapper *mapping.FieldTypeMapper, builder *target.Builder, rep *report.Report) {
	for _, def := range schema.FieldTypes {
		name := def.String("name")
		class := def.String("class")
		detail := report.Detail{Name: name, SourceType: class}

		analyzers, err := mapper.Map(ctx, def)
		if err != nil {
			m.recordAnalyzerErrors(err, rep)
			if m.opts.MapFieldsOnAnalyzerFailure && isAnalyzerOnlyFailure(err) {
				m.logger.Warn("Field type kept despite analyzer failure", "name", name, "error", err)
				rep.FieldTypes.Success(detail)
				m.metrics.ObserveConstruct("field_type", "success")
				continue
			}
			rep.FieldTypes.Failure(detail, err)
			m.metrics.ObserveConstruct("field_type", "failed")
			continue
		}

		for _, a := range analyzers {
			builder.AddAnalyzer(a)
			m.recordAnalyzerSuccess(a, rep)
		}
		if dt, ok := mapper.Binding(name); ok {
			detail.TargetType = dt
		}
		rep.FieldTypes.Success(detail)
		m.metrics.ObserveConstruct("field_type", "success")
	}
}

func (m *Migrator) mapFields(schema *solr.Schema, mapper *mapping.FieldMapper, builder *target.Builder, rep *report.Report) {
	for _, def := range schema.Fields {
		detail := report.Detail{Name: def.String("name"), SourceType: def.String("type")}

		name, attrs, err := mapper.Map(def)
		if err != nil {
			rep.Fields.Failure(detail, err)
			m.metrics.ObserveConstruct("field", "failed")
			continue
		}
		builder.AddField(name, attrs)
		detail.TargetType, _ = attrs["type"].(string)
		rep.Fields.Success(detail)
		m.metrics.ObserveConstruct("field", "success")
	}
}

func (m *Migrator) mapDynamicFields(schema *solr.Schema, mapper *mapping.DynamicFieldMapper, builder *target.Builder, rep *report.Report) {
	for _, def := range schema.DynamicFields {
		detail := report.Detail{Name: def.String("name"), SourceType: def.String("type")}

		tmpl, err := mapper.Map(def)
		if err != nil {
			rep.DynamicFields.Failure(detail, err)
			m.metrics.ObserveConstruct("dynamic_field", "failed")
			continue
		}
		builder.AddDynamicTemplate(*tmpl)
		detail.TargetType, _ = tmpl.Mapping["type"].(string)
		rep.DynamicFields.Success(detail)
		m.metrics.ObserveConstruct("dynamic_field", "success")
	}
}

func (m *Migrator) mapCopyFields(schema *solr.Schema, builder *target.Builder, rep *report.Report) {
	mapper := mapping.NewCopyFieldMapper(builder.AllFields(), m.logger)
	for _, def := range schema.CopyFields {
		detail := report.Detail{
			Name:       def.String("source") + " -> " + def.String("dest"),
			SourceType: "copyField",
		}
		if err := mapper.Map(def); err != nil {
			rep.CopyFields.Failure(detail, err)
			m.metrics.ObserveConstruct("copy_field", "failed")
			continue
		}
		rep.CopyFields.Success(detail)
		m.metrics.ObserveConstruct("copy_field", "success")
	}
}

// recordAnalyzerSuccess logs each construct of a composed analyzer into its
// report category.
func (m *Migrator) recordAnalyzerSuccess(a mapping.Analyzer, rep *report.Report) {
	if a.Tokenizer != nil {
		rep.Tokenizers.Record(report.Detail{
			Name: a.Tokenizer.Source, SourceType: "tokenizer", TargetType: a.Tokenizer.Type,
			Status: report.StatusSuccess,
		})
		m.metrics.ObserveConstruct("tokenizer", "success")
	}
	for _, f := range a.Filters {
		rep.Filters.Record(report.Detail{
			Name: f.Source, SourceType: "filter", TargetType: f.Type, Status: report.StatusSuccess,
		})
		m.metrics.ObserveConstruct("filter", "success")
	}
	for _, cf := range a.CharFilters {
		rep.CharFilters.Record(report.Detail{
			Name: cf.Source, SourceType: "charFilter", TargetType: cf.Type, Status: report.StatusSuccess,
		})
		m.metrics.ObserveConstruct("char_filter", "success")
	}
}

// recordAnalyzerErrors extracts per-category sub-errors from a failed
// field-type mapping into the construct categories.
func (m *Migrator) recordAnalyzerErrors(err error, rep *report.Report) {
	var ae *mapping.AnalyzerError
	if !errors.As(err, &ae) {
		return
	}

	var te *mapping.TokenizerError
	if errors.As(ae.Tokenizer, &te) {
		rep.Tokenizers.Record(report.Detail{
			Name: te.Name, SourceType: "tokenizer", Status: report.StatusFailed, Error: te.Error(),
		})
		m.metrics.ObserveConstruct("tokenizer", "failed")
	}
	var fe *mapping.FilterError
	if errors.As(ae.Filter, &fe) {
		rep.Filters.Record(report.Detail{
			Name: fe.Name, SourceType: "filter", Status: report.StatusFailed, Error: fe.Error(),
		})
		m.metrics.ObserveConstruct("filter", "failed")
	}
	var ce *mapping.CharFilterError
	if errors.As(ae.CharFilter, &ce) {
		rep.CharFilters.Record(report.Detail{
			Name: ce.Name, SourceType: "charFilter", Status: report.StatusFailed, Error: ce.Error(),
		})
		m.metrics.ObserveConstruct("char_filter", "failed")
	}
}

// isAnalyzerOnlyFailure reports whether a field-type error stems solely from
// its analyzer chain, leaving the data-type binding usable.
func isAnalyzerOnlyFailure(err error) bool {
	var ae *mapping.AnalyzerError
	return errors.As(err, &ae)
}

// writeOutputs emits index.json and the schema HTML report under OutDir.
func (m *Migrator) writeOutputs(builder *target.Builder, rep *report.Report) error {
	if m.opts.OutDir == "" {
		return nil
	}
	if err := os.MkdirAll(m.opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	def, err := json.MarshalIndent(builder.IndexDefinition(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode index definition: %w", err)
	}
	indexPath := filepath.Join(m.opts.OutDir, indexFile)
	if err := os.WriteFile(indexPath, def, 0o644); err != nil {
		return fmt.Errorf("write index definition: %w", err)
	}
	m.logger.Info("Wrote index definition", "path", indexPath)

	reportPath := filepath.Join(m.opts.OutDir, schemaReportFile)
	if err := rep.WriteHTML(reportPath); err != nil {
		return err
	}
	m.logger.Info("Wrote schema report", "path", reportPath)
	return nil
}

// ExportData runs the data exporter and writes its HTML report.
func (m *Migrator) ExportData(ctx context.Context, store export.Uploader, opts export.Options) (*report.ExportReport, error) {
	exporter := export.New(m.source, store, opts, m.metrics, m.logger)
	rep, err := exporter.Run(ctx)

	if rep != nil && m.opts.OutDir != "" {
		path := filepath.Join(m.opts.OutDir, exportReportFile)
		if werr := rep.WriteHTML(path); werr != nil {
			m.logger.Error("Failed to write export report", "path", path, "error", werr)
		} else {
			m.logger.Info("Wrote export report", "path", path)
		}
	}
	if ferr := m.metrics.Flush(); ferr != nil {
		m.logger.Warn("Failed to push metrics", "error", ferr)
	}
	return rep, err
}
