// Package main provides the schemaport binary entry point.
// Schemaport translates a Solr collection's managed schema into an
// OpenSearch index definition and exports its documents to object storage.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/schemaport/config"
	"github.com/c360studio/schemaport/export"
	"github.com/c360studio/schemaport/mapping"
	"github.com/c360studio/schemaport/metrics"
	"github.com/c360studio/schemaport/migrate"
	"github.com/c360studio/schemaport/solr"
	"github.com/c360studio/schemaport/storage"
	"github.com/c360studio/schemaport/target"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "schemaport"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		storeRoot  string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Solr to OpenSearch schema migration",
		Long: `Schemaport translates a Solr collection's managed schema into an
OpenSearch index definition: analyzers, tokenizers, filters, field mappings,
dynamic templates and copy fields. It can also export the collection's
documents to object storage for reindexing.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&storeRoot, "store-root", ".", "Root directory of the local object store")

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Translate the collection schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath, logLevel)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export collection documents to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), configPath, logLevel, storeRoot)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup configures logging and loads the layered configuration.
func setup(configPath, logLevel string) (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}

func runMigrate(ctx context.Context, configPath, logLevel string) error {
	cfg, logger, err := setup(configPath, logLevel)
	if err != nil {
		return err
	}

	if cfg.Migration.CreatePackages {
		// Hosted package administration needs a cluster-specific admin
		// client; the CLI only ships file resolution via inlining.
		return fmt.Errorf("migration.create_packages is not supported by the CLI; use migration.inline_file_contents")
	}

	source := solr.NewClient(solr.ClientConfig{
		BaseURL:    cfg.Solr.BaseURL,
		Collection: cfg.Solr.Collection,
		Username:   cfg.Solr.Username,
		Password:   cfg.Solr.Password,
		Timeout:    cfg.Solr.Timeout,
	}, logger)

	tables, err := mapping.LoadTables(cfg.Migration.TablesDir)
	if err != nil {
		return fmt.Errorf("load mapping tables: %w", err)
	}

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}

	var admin target.Admin
	if cfg.Target.CreateIndex {
		admin = target.NewHTTPAdmin(target.AdminConfig{
			Endpoint: cfg.Target.Endpoint,
			Username: cfg.Target.Username,
			Password: cfg.Target.Password,
		}, logger)
	}

	migrator := migrate.New(source, admin, tables, nil, migrate.Options{
		IndexName:   cfg.IndexName(),
		OutDir:      cfg.OutputDir(),
		CreateIndex: cfg.Target.CreateIndex,
		FilterOptions: mapping.FilterOptions{
			InlineFiles: cfg.Migration.InlineFileContents,
		},
		MapFieldsOnAnalyzerFailure: cfg.Migration.MapFieldsOnAnalyzerFailure,
		SkipTextAnalysisFailure:    cfg.SkipTextAnalysisFailure(),
	}, rec, logger)

	rep, err := migrator.MigrateSchema(ctx)
	if err != nil {
		return err
	}

	for _, nc := range rep.Categories() {
		logger.Info("Migration summary",
			"category", nc.Label,
			"attempted", nc.Category.Attempted,
			"succeeded", nc.Category.Succeeded,
			"failed", nc.Category.Failed)
	}
	return nil
}

func runExport(ctx context.Context, configPath, logLevel, storeRoot string) error {
	cfg, logger, err := setup(configPath, logLevel)
	if err != nil {
		return err
	}
	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	source := solr.NewClient(solr.ClientConfig{
		BaseURL:    cfg.Solr.BaseURL,
		Collection: cfg.Solr.Collection,
		Username:   cfg.Solr.Username,
		Password:   cfg.Solr.Password,
		Timeout:    cfg.Solr.Timeout,
	}, logger)

	tables, err := mapping.LoadTables(cfg.Migration.TablesDir)
	if err != nil {
		return fmt.Errorf("load mapping tables: %w", err)
	}

	rec, err := newRecorder(cfg)
	if err != nil {
		return err
	}

	store := storage.NewLocal(storeRoot, logger)
	migrator := migrate.New(source, nil, tables, nil, migrate.Options{
		IndexName: cfg.IndexName(),
		OutDir:    cfg.OutputDir(),
	}, rec, logger)

	rep, err := migrator.ExportData(ctx, store, export.Options{
		Query:       cfg.Export.Query,
		FieldList:   cfg.Export.FieldList,
		RowsPerPage: cfg.Export.RowsPerPage,
		MaxRows:     cfg.Export.MaxRows,
		Bucket:      cfg.Export.Bucket,
		Prefix:      cfg.Export.Prefix,
	})
	if rep != nil {
		logger.Info("Export summary", "result", rep.Summary())
	}
	return err
}

// newRecorder builds the optional Pushgateway recorder; nil when disabled.
func newRecorder(cfg *config.Config) (*metrics.Recorder, error) {
	if cfg.Metrics.PushgatewayURL == "" {
		return nil, nil
	}
	rec, err := metrics.NewRecorder(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
	if err != nil {
		return nil, fmt.Errorf("configure metrics: %w", err)
	}
	return rec, nil
}
