package mapping

import (
	"errors"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/schemaport/solr"
)

// DynamicTemplate is a pattern-based field template applied to document
// fields with no explicit declaration.
type DynamicTemplate struct {
	Name    string
	Match   string
	Mapping map[string]any
}

// Matches reports whether a concrete field name falls under the template's
// wildcard pattern.
func (t DynamicTemplate) Matches(fieldName string) bool {
	ok, err := doublestar.Match(t.Match, fieldName)
	return err == nil && ok
}

// Definition returns the dynamic_templates entry for the index mapping.
func (t DynamicTemplate) Definition() map[string]any {
	return map[string]any{
		t.Name: map[string]any{
			"match":   t.Match,
			"mapping": t.Mapping,
		},
	}
}

// DynamicFieldMapper resolves wildcard-named field templates using the same
// type bindings and attribute projection as concrete fields.
type DynamicFieldMapper struct {
	fields *FieldMapper
	logger *slog.Logger
}

// NewDynamicFieldMapper creates a dynamic field mapper.
func NewDynamicFieldMapper(fields *FieldMapper, logger *slog.Logger) *DynamicFieldMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamicFieldMapper{fields: fields, logger: logger}
}

// Map resolves one dynamic field into a pattern-match template.
func (m *DynamicFieldMapper) Map(def solr.AttributeBag) (*DynamicTemplate, error) {
	pattern := def.String("name")
	fieldType := def.String("type")

	_, mapping, err := m.fields.Map(def)
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			err = fe.Err
		}
		return nil, &DynamicFieldError{Pattern: pattern, FieldType: fieldType, Err: err}
	}

	m.logger.Debug("Mapped dynamic field", "pattern", pattern, "type", fieldType)
	return &DynamicTemplate{
		Name:    pattern,
		Match:   pattern,
		Mapping: mapping,
	}, nil
}
