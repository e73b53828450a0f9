// Package config provides configuration loading and management for
// schemaport.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete schemaport configuration.
type Config struct {
	Solr      SolrConfig      `yaml:"solr"`
	Target    TargetConfig    `yaml:"target"`
	Migration MigrationConfig `yaml:"migration"`
	Export    ExportConfig    `yaml:"export"`
	Packages  PackagesConfig  `yaml:"packages"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SolrConfig configures the source connection.
type SolrConfig struct {
	// BaseURL is the Solr node URL (e.g. http://localhost:8983)
	BaseURL string `yaml:"base_url"`
	// Collection is the source collection to migrate
	Collection string `yaml:"collection"`
	// Username and Password enable basic auth when set
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration `yaml:"timeout"`
}

// TargetConfig configures the destination index.
type TargetConfig struct {
	// Endpoint is the target cluster URL; required when CreateIndex is set
	Endpoint string `yaml:"endpoint"`
	// Username and Password enable basic auth when set
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// IndexName is the target index; defaults to the source collection name
	IndexName string `yaml:"index_name"`
	// CreateIndex applies the built definition to the target cluster
	CreateIndex bool `yaml:"create_index"`
	// Domain is the target deployment packages are associated with
	Domain string `yaml:"domain"`
}

// MigrationConfig configures schema translation behavior.
type MigrationConfig struct {
	// TablesDir overrides the embedded mapping tables when set
	TablesDir string `yaml:"tables_dir"`
	// OutputDir receives index.json and the HTML reports; defaults to
	// ./out/<collection>
	OutputDir string `yaml:"output_dir"`
	// CreatePackages materializes dictionary files as hosted packages.
	// Mutually exclusive with InlineFileContents.
	CreatePackages bool `yaml:"create_packages"`
	// InlineFileContents expands dictionary files into literal value lists
	InlineFileContents bool `yaml:"inline_file_contents"`
	// MapFieldsOnAnalyzerFailure keeps a field type usable when only its
	// analyzer chain failed
	MapFieldsOnAnalyzerFailure bool `yaml:"map_fields_on_analyzer_failure"`
	// SkipTextAnalysisFailure registers data-type bindings on analyzer
	// failure. A pointer so an explicit false in a config file survives
	// merging over the true default.
	SkipTextAnalysisFailure *bool `yaml:"skip_text_analysis_failure"`
}

// ExportConfig configures the data exporter.
type ExportConfig struct {
	// Query selects documents; empty uses the parent-document default
	Query string `yaml:"query"`
	// FieldList is the fl parameter; empty uses the default with children
	FieldList string `yaml:"field_list"`
	// RowsPerPage is the cursor page size
	RowsPerPage int `yaml:"rows_per_page"`
	// MaxRows caps the total exported documents; 0 = unlimited
	MaxRows int `yaml:"max_rows"`
	// Bucket receives the page objects
	Bucket string `yaml:"bucket"`
	// Prefix is prepended to every object key
	Prefix string `yaml:"prefix"`
}

// PackagesConfig configures the package lifecycle manager.
type PackagesConfig struct {
	// Bucket receives dictionary files before package creation
	Bucket string `yaml:"bucket"`
	// PollInterval between lifecycle status checks
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxPolls bounds each status wait
	MaxPolls uint64 `yaml:"max_polls"`
}

// MetricsConfig configures the optional Pushgateway backend.
type MetricsConfig struct {
	// PushgatewayURL enables metrics when set
	PushgatewayURL string `yaml:"pushgateway_url"`
	// Job is the Pushgateway job grouping key
	Job string `yaml:"job"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Solr: SolrConfig{
			BaseURL: "http://localhost:8983",
			Timeout: 5 * time.Minute,
		},
		Export: ExportConfig{
			RowsPerPage: 500,
			MaxRows:     100000,
			Prefix:      "solr-data/",
		},
		Packages: PackagesConfig{
			PollInterval: 10 * time.Second,
			MaxPolls:     90,
		},
		Metrics: MetricsConfig{
			Job: "schemaport",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Solr.BaseURL == "" {
		return fmt.Errorf("solr.base_url is required")
	}
	if c.Solr.Collection == "" {
		return fmt.Errorf("solr.collection is required")
	}
	if c.Migration.CreatePackages && c.Migration.InlineFileContents {
		return fmt.Errorf("migration.create_packages and migration.inline_file_contents are mutually exclusive")
	}
	if c.Migration.CreatePackages && c.Packages.Bucket == "" {
		return fmt.Errorf("packages.bucket is required when migration.create_packages is set")
	}
	if c.Target.CreateIndex && c.Target.Endpoint == "" {
		return fmt.Errorf("target.endpoint is required when target.create_index is set")
	}
	if c.Export.RowsPerPage < 0 || c.Export.MaxRows < 0 {
		return fmt.Errorf("export.rows_per_page and export.max_rows must not be negative")
	}
	return nil
}

// ValidateExport checks the additional settings an export run needs.
func (c *Config) ValidateExport() error {
	if c.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required for data export")
	}
	return nil
}

// IndexName returns the configured target index name, defaulting to the
// source collection.
func (c *Config) IndexName() string {
	if c.Target.IndexName != "" {
		return c.Target.IndexName
	}
	return c.Solr.Collection
}

// SkipTextAnalysisFailure returns the effective setting, defaulting to true
// when never configured.
func (c *Config) SkipTextAnalysisFailure() bool {
	if c.Migration.SkipTextAnalysisFailure == nil {
		return true
	}
	return *c.Migration.SkipTextAnalysisFailure
}

// OutputDir returns the configured output directory, defaulting to
// out/<collection>.
func (c *Config) OutputDir() string {
	if c.Migration.OutputDir != "" {
		return c.Migration.OutputDir
	}
	return filepath.Join("out", c.Solr.Collection)
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Solr
	if other.Solr.BaseURL != "" {
		c.Solr.BaseURL = other.Solr.BaseURL
	}
	if other.Solr.Collection != "" {
		c.Solr.Collection = other.Solr.Collection
	}
	if other.Solr.Username != "" {
		c.Solr.Username = other.Solr.Username
		c.Solr.Password = other.Solr.Password
	}
	if other.Solr.Timeout != 0 {
		c.Solr.Timeout = other.Solr.Timeout
	}

	// Target
	if other.Target.Endpoint != "" {
		c.Target.Endpoint = other.Target.Endpoint
	}
	if other.Target.Username != "" {
		c.Target.Username = other.Target.Username
		c.Target.Password = other.Target.Password
	}
	if other.Target.IndexName != "" {
		c.Target.IndexName = other.Target.IndexName
	}
	if other.Target.CreateIndex {
		c.Target.CreateIndex = true
	}
	if other.Target.Domain != "" {
		c.Target.Domain = other.Target.Domain
	}

	// Migration
	if other.Migration.TablesDir != "" {
		c.Migration.TablesDir = other.Migration.TablesDir
	}
	if other.Migration.OutputDir != "" {
		c.Migration.OutputDir = other.Migration.OutputDir
	}
	if other.Migration.CreatePackages {
		c.Migration.CreatePackages = true
		c.Migration.InlineFileContents = false
	}
	if other.Migration.InlineFileContents {
		c.Migration.InlineFileContents = true
	}
	if other.Migration.MapFieldsOnAnalyzerFailure {
		c.Migration.MapFieldsOnAnalyzerFailure = true
	}
	if other.Migration.SkipTextAnalysisFailure != nil {
		c.Migration.SkipTextAnalysisFailure = other.Migration.SkipTextAnalysisFailure
	}

	// Export
	if other.Export.Query != "" {
		c.Export.Query = other.Export.Query
	}
	if other.Export.FieldList != "" {
		c.Export.FieldList = other.Export.FieldList
	}
	if other.Export.RowsPerPage != 0 {
		c.Export.RowsPerPage = other.Export.RowsPerPage
	}
	if other.Export.MaxRows != 0 {
		c.Export.MaxRows = other.Export.MaxRows
	}
	if other.Export.Bucket != "" {
		c.Export.Bucket = other.Export.Bucket
	}
	if other.Export.Prefix != "" {
		c.Export.Prefix = other.Export.Prefix
	}

	// Packages
	if other.Packages.Bucket != "" {
		c.Packages.Bucket = other.Packages.Bucket
	}
	if other.Packages.PollInterval != 0 {
		c.Packages.PollInterval = other.Packages.PollInterval
	}
	if other.Packages.MaxPolls != 0 {
		c.Packages.MaxPolls = other.Packages.MaxPolls
	}

	// Metrics
	if other.Metrics.PushgatewayURL != "" {
		c.Metrics.PushgatewayURL = other.Metrics.PushgatewayURL
	}
	if other.Metrics.Job != "" {
		c.Metrics.Job = other.Metrics.Job
	}
}
