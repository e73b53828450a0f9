package mapping

import (
	"context"
	"log/slog"

	"github.com/c360studio/schemaport/solr"
)

// Analyzer role suffixes. The default role carries the bare field type name.
const (
	indexAnalyzerSuffix = "_index"
	queryAnalyzerSuffix = "_query"
)

// AnalyzerComposer combines a field type's tokenizer and filter chains into
// named analyzers, one per configured role.
type AnalyzerComposer struct {
	tokenizers *TokenizerMapper
	filters    *FilterMapper
	logger     *slog.Logger
}

// NewAnalyzerComposer creates an analyzer composer.
func NewAnalyzerComposer(tokenizers *TokenizerMapper, filters *FilterMapper, logger *slog.Logger) *AnalyzerComposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzerComposer{
		tokenizers: tokenizers,
		filters:    filters,
		logger:     logger,
	}
}

// Compose maps every analyzer role present on the field type: "analyzer"
// (default), "indexAnalyzer" and "queryAnalyzer". The first failing role
// aborts the remaining roles.
func (c *AnalyzerComposer) Compose(ctx context.Context, fieldType solr.AttributeBag) ([]Analyzer, error) {
	name := fieldType.String("name")

	var analyzers []Analyzer
	roles := []struct {
		key    string
		suffix string
	}{
		{"analyzer", ""},
		{"indexAnalyzer", indexAnalyzerSuffix},
		{"queryAnalyzer", queryAnalyzerSuffix},
	}
	for _, role := range roles {
		def := fieldType.Bag(role.key)
		if def == nil {
			continue
		}
		a, err := c.compose(ctx, name+role.suffix, def)
		if err != nil {
			return nil, err
		}
		analyzers = append(analyzers, *a)
	}
	return analyzers, nil
}

// compose maps one analyzer role. Each category (tokenizer, filters, char
// filters) is attempted independently so a composite failure reports every
// broken category at once.
func (c *AnalyzerComposer) compose(ctx context.Context, name string, def solr.AttributeBag) (*Analyzer, error) {
	c.logger.Debug("Composing analyzer", "name", name)

	var (
		tokErr, filterErr, charErr error
		analyzer                   = Analyzer{Name: name}
	)

	if tokDef := def.Bag("tokenizer"); tokDef != nil {
		analyzer.Tokenizer, tokErr = c.tokenizers.Map(ctx, tokDef)
	}
	if filterDefs := def.Bags("filters"); filterDefs != nil {
		analyzer.Filters, filterErr = c.filters.MapFilters(ctx, filterDefs)
	}
	if charDefs := def.Bags("charFilters"); charDefs != nil {
		analyzer.CharFilters, charErr = c.filters.MapCharFilters(ctx, charDefs)
	}

	if tokErr != nil || filterErr != nil || charErr != nil {
		return nil, &AnalyzerError{
			Name:       name,
			Tokenizer:  tokErr,
			Filter:     filterErr,
			CharFilter: charErr,
		}
	}
	return &analyzer, nil
}
