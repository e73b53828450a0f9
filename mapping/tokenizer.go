package mapping

import (
	"context"
	"log/slog"

	"github.com/c360studio/schemaport/solr"
)

// TokenizerMapper turns one Solr tokenizer definition into a target
// tokenizer construct. Identical resolved definitions are built once.
type TokenizerMapper struct {
	table  Table
	cache  map[string]*Construct
	logger *slog.Logger
}

// NewTokenizerMapper creates a tokenizer mapper over the given table.
func NewTokenizerMapper(table Table, logger *slog.Logger) *TokenizerMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenizerMapper{
		table:  table,
		cache:  make(map[string]*Construct),
		logger: logger,
	}
}

// Map resolves one tokenizer definition, or fails with a *TokenizerError.
func (m *TokenizerMapper) Map(_ context.Context, def solr.AttributeBag) (*Construct, error) {
	name := constructName(def)

	spec, ok := m.table.Lookup(name)
	if !ok {
		m.logger.Warn("Tokenizer mapping not found", "name", name)
		return nil, &TokenizerError{Name: name, Err: ErrMappingNotFound}
	}

	attrs := make(map[string]any, len(spec.Attrs))
	for key, rule := range spec.Attrs {
		attrs[key] = resolvePlain(rule, def)
	}

	digest := contentHash(Construct{Type: spec.Type, Attrs: attrs}.Definition())
	if cached, ok := m.cache[digest]; ok {
		return cached, nil
	}

	tok := &Construct{
		Name:   name + digest,
		Type:   spec.Type,
		Attrs:  attrs,
		Source: name,
	}
	m.cache[digest] = tok
	m.logger.Debug("Mapped tokenizer", "name", name, "type", spec.Type)
	return tok, nil
}

// resolvePlain evaluates a rule without file support. File rules degrade to
// their default; tokenizer tables do not carry file-backed attributes.
func resolvePlain(rule Rule, def solr.AttributeBag) any {
	if rule.Kind() == RuleValueFrom {
		if v, ok := def[rule.ValueFrom]; ok && v != nil {
			return v
		}
	}
	return rule.Default
}
