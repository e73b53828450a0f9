package mapping

import (
	"log/slog"

	"github.com/c360studio/schemaport/solr"
)

// AnalyzerRegistry exposes the set of analyzers already registered on the
// target index. Analyzer attachment is an exact name match against it.
type AnalyzerRegistry interface {
	HasAnalyzer(name string) bool
}

// Target types that do not support per-field storage toggles.
var structuralTypes = map[string]bool{
	"nested":    true,
	"geo_shape": true,
}

// FieldMapper resolves concrete field definitions against the field type
// bindings and the attribute projection table.
type FieldMapper struct {
	types     *FieldTypeMapper
	attrs     AttributeTable
	analyzers AnalyzerRegistry
	logger    *slog.Logger
}

// NewFieldMapper creates a field mapper.
func NewFieldMapper(types *FieldTypeMapper, attrs AttributeTable, analyzers AnalyzerRegistry, logger *slog.Logger) *FieldMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldMapper{
		types:     types,
		attrs:     attrs,
		analyzers: analyzers,
		logger:    logger,
	}
}

// Map resolves one field definition. The field's type must already have a
// binding; absence is a *FieldError carrying ErrMappingNotFound.
func (m *FieldMapper) Map(def solr.AttributeBag) (string, map[string]any, error) {
	name := def.String("name")
	fieldType := def.String("type")

	targetType, ok := m.types.Binding(fieldType)
	if !ok {
		m.logger.Info("Field type has no binding", "field", name, "type", fieldType)
		return "", nil, &FieldError{Name: name, FieldType: fieldType, Err: ErrMappingNotFound}
	}

	attrs := m.projectAttrs(name, def)
	attrs["type"] = targetType
	m.attachAnalyzers(attrs, fieldType)
	m.stripUnsupported(attrs, targetType)

	return name, attrs, nil
}

// projectAttrs maps known source attributes onto target names. Unknown
// attributes are logged and dropped.
func (m *FieldMapper) projectAttrs(name string, def solr.AttributeBag) map[string]any {
	attrs := make(map[string]any)
	var unknown []string
	for key, value := range def {
		if key == "name" || key == "type" {
			continue
		}
		target, ok := m.attrs[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		attrs[target] = value
	}
	if len(unknown) > 0 {
		m.logger.Info("Unknown field attributes", "field", name, "attrs", unknown)
	}
	return attrs
}

// attachAnalyzers wires the field to analyzers registered under its type
// name. An index-role analyzer takes precedence over the default role; a
// query-role analyzer becomes the search analyzer.
func (m *FieldMapper) attachAnalyzers(attrs map[string]any, fieldType string) {
	if m.analyzers.HasAnalyzer(fieldType) {
		attrs["analyzer"] = fieldType
	}
	if m.analyzers.HasAnalyzer(fieldType + indexAnalyzerSuffix) {
		attrs["analyzer"] = fieldType + indexAnalyzerSuffix
	}
	if m.analyzers.HasAnalyzer(fieldType + queryAnalyzerSuffix) {
		attrs["search_analyzer"] = fieldType + queryAnalyzerSuffix
	}
}

// stripUnsupported removes attributes the target type rejects.
func (m *FieldMapper) stripUnsupported(attrs map[string]any, targetType string) {
	if structuralTypes[targetType] {
		delete(attrs, "index")
		delete(attrs, "store")
	}
	if targetType == "geo_shape" {
		delete(attrs, "doc_values")
	}
}
