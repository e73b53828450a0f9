package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/schemaport/solr"
)

// FileFetcher retrieves raw dictionary-file contents from the source engine.
type FileFetcher interface {
	FileContents(ctx context.Context, path string) (string, error)
}

// PackageProvider materializes a dictionary file as a hosted package and
// returns the logical reference path ("analyzers/<packageID>") a construct
// attribute resolves to. Implementations cache by (ownerKey, path) so that
// repeated resolution of the same file-backed construct creates one package.
type PackageProvider interface {
	Ensure(ctx context.Context, ownerKey, path string, lines []string) (string, error)
}

// FilterOptions configures file-backed attribute resolution.
type FilterOptions struct {
	// CreatePackages materializes file-backed attributes as hosted
	// packages. Mutually exclusive with InlineFiles.
	CreatePackages bool
	// InlineFiles expands dictionary files into literal value lists.
	InlineFiles bool
}

// filterKind discriminates token filters from char filters so that one
// mapper implementation can serve both tables with their own error types.
type filterKind int

const (
	kindFilter filterKind = iota
	kindCharFilter
)

// FilterMapper maps Solr token filters and char filters to target
// constructs, including dictionary-backed attributes.
type FilterMapper struct {
	filters     Table
	charFilters Table
	files       FileFetcher
	packages    PackageProvider
	opts        FilterOptions
	cache       map[string]*Construct
	logger      *slog.Logger
}

// NewFilterMapper creates a filter/char-filter mapper. packages may be nil
// when the run does not materialize packages.
func NewFilterMapper(filters, charFilters Table, files FileFetcher, packages PackageProvider, opts FilterOptions, logger *slog.Logger) *FilterMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilterMapper{
		filters:     filters,
		charFilters: charFilters,
		files:       files,
		packages:    packages,
		opts:        opts,
		cache:       make(map[string]*Construct),
		logger:      logger,
	}
}

// MapFilters maps an ordered filter chain. Phase 1 verifies every element
// has a table entry before any side effects; phase 2 maps in order and
// fails fast, leaving packages created by earlier elements in place.
func (m *FilterMapper) MapFilters(ctx context.Context, defs []solr.AttributeBag) ([]Construct, error) {
	return m.mapChain(ctx, kindFilter, defs)
}

// MapCharFilters is MapFilters for the char-filter table.
func (m *FilterMapper) MapCharFilters(ctx context.Context, defs []solr.AttributeBag) ([]Construct, error) {
	return m.mapChain(ctx, kindCharFilter, defs)
}

func (m *FilterMapper) mapChain(ctx context.Context, kind filterKind, defs []solr.AttributeBag) ([]Construct, error) {
	table := m.table(kind)

	// Pre-check the whole chain so an unmappable element later in the list
	// cannot leave expensive package artifacts behind for a chain that was
	// never going to compose.
	for _, def := range defs {
		name := constructName(def)
		if _, ok := table.Lookup(name); !ok {
			m.logger.Warn("Pre-check: mapping not found", "name", name, "kind", kind.String())
			return nil, m.wrapErr(kind, name, ErrMappingNotFound)
		}
	}

	out := make([]Construct, 0, len(defs))
	for _, def := range defs {
		c, err := m.mapOne(ctx, kind, def)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *FilterMapper) mapOne(ctx context.Context, kind filterKind, def solr.AttributeBag) (*Construct, error) {
	name := constructName(def)

	spec, ok := m.table(kind).Lookup(name)
	if !ok {
		return nil, m.wrapErr(kind, name, ErrMappingNotFound)
	}

	attrs := make(map[string]any, len(spec.Attrs))
	for key, rule := range spec.Attrs {
		value, err := m.resolve(ctx, rule, name, def)
		if err != nil {
			return nil, m.wrapErr(kind, name, fmt.Errorf("attribute %q: %w", key, err))
		}
		attrs[key] = value
	}

	digest := contentHash(Construct{Type: spec.Type, Attrs: attrs}.Definition())
	if cached, ok := m.cache[digest]; ok {
		m.logger.Debug("Construct cache hit", "name", name)
		return cached, nil
	}

	c := &Construct{
		Name:   name + digest,
		Type:   spec.Type,
		Attrs:  attrs,
		Source: name,
	}
	m.cache[digest] = c
	m.logger.Debug("Mapped construct", "name", name, "type", spec.Type, "kind", kind.String())
	return c, nil
}

// resolve evaluates one attribute rule against the source definition.
func (m *FilterMapper) resolve(ctx context.Context, rule Rule, filterName string, def solr.AttributeBag) (any, error) {
	switch rule.Kind() {
	case RuleValueFrom:
		if v, ok := def[rule.ValueFrom]; ok && v != nil {
			return v, nil
		}
		return rule.Default, nil

	case RuleValueFromFile:
		path := def.String(rule.ValueFromFile)
		if path == "" {
			return rule.Default, nil
		}
		switch {
		case rule.CreatePackage && m.opts.CreatePackages:
			lines, err := m.fileLines(ctx, filterName, path)
			if err != nil {
				return nil, err
			}
			ref, err := m.packages.Ensure(ctx, filterName, path, lines)
			if err != nil {
				return nil, err
			}
			return ref, nil
		case m.opts.InlineFiles:
			m.logger.Info("Inlining dictionary file", "file", path, "filter", filterName)
			return m.fileLines(ctx, filterName, path)
		default:
			return []string{}, nil
		}

	default:
		return rule.Default, nil
	}
}

// fileLines fetches a dictionary file and strips comment and blank lines.
// Stemmer-override dictionaries use tab-separated pairs, which the target
// engine expects as explicit "from => to" rules.
func (m *FilterMapper) fileLines(ctx context.Context, filterName, path string) ([]string, error) {
	data, err := m.files.FileContents(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	rewriteTabs := strings.HasPrefix(strings.ToLower(filterName), "stemmeroverride")
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "|" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "|") {
			continue
		}
		if rewriteTabs {
			line = strings.ReplaceAll(line, "\t", " => ")
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (m *FilterMapper) table(kind filterKind) Table {
	if kind == kindCharFilter {
		return m.charFilters
	}
	return m.filters
}

func (m *FilterMapper) wrapErr(kind filterKind, name string, err error) error {
	if kind == kindCharFilter {
		return &CharFilterError{Name: name, Err: err}
	}
	return &FilterError{Name: name, Err: err}
}

func (k filterKind) String() string {
	if k == kindCharFilter {
		return "char_filter"
	}
	return "filter"
}
