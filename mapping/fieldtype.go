package mapping

import (
	"context"
	"log/slog"

	"github.com/c360studio/schemaport/solr"
)

// FieldTypeMapper resolves a field type's base data type and its analyzers,
// recording the name -> data type binding fields resolve against later.
type FieldTypeMapper struct {
	dataTypes map[string]string
	composer  *AnalyzerComposer
	// bindings maps field type name to target data type; an empty value
	// means the type was seen but its class has no table entry.
	bindings map[string]string
	// skipAnalyzerFailure still records the binding when only the
	// analyzer chain failed, so dependent fields can resolve.
	skipAnalyzerFailure bool
	logger              *slog.Logger
}

// NewFieldTypeMapper creates a field type mapper.
func NewFieldTypeMapper(dataTypes map[string]string, composer *AnalyzerComposer, skipAnalyzerFailure bool, logger *slog.Logger) *FieldTypeMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldTypeMapper{
		dataTypes:           dataTypes,
		composer:            composer,
		bindings:            make(map[string]string),
		skipAnalyzerFailure: skipAnalyzerFailure,
		logger:              logger,
	}
}

// Binding returns the target data type registered for a field type name.
// ok is false until the field type has been mapped (or has no data type).
func (m *FieldTypeMapper) Binding(name string) (string, bool) {
	dt, ok := m.bindings[name]
	if !ok || dt == "" {
		return "", false
	}
	return dt, true
}

// Map resolves one field type: its data type binding plus zero or more
// analyzers. An analyzer failure yields a *FieldTypeError wrapping the
// aggregate *AnalyzerError.
func (m *FieldTypeMapper) Map(ctx context.Context, def solr.AttributeBag) ([]Analyzer, error) {
	name := def.String("name")
	dataType := m.dataTypes[def.String("class")]

	analyzers, err := m.composer.Compose(ctx, def)
	if err != nil {
		if m.skipAnalyzerFailure {
			m.bindings[name] = dataType
		}
		return nil, &FieldTypeError{Name: name, Err: err}
	}

	m.bindings[name] = dataType
	m.logger.Debug("Mapped field type", "name", name, "data_type", dataType, "analyzers", len(analyzers))
	return analyzers, nil
}
