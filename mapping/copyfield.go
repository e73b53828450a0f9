package mapping

import (
	"log/slog"

	"github.com/c360studio/schemaport/solr"
)

// CopyFieldMapper records copy-field relations by mutating the source
// field's copy_to attribute on the already-registered target definitions.
// Both endpoints must exist; a missing endpoint is a mapping failure, never
// an auto-create.
type CopyFieldMapper struct {
	// allFields holds live references into the target index mapping, so
	// copy_to mutations are visible without re-registration.
	allFields map[string]map[string]any
	// destinations tracks fan-out per source for scalar -> list promotion.
	destinations map[string][]string
	logger       *slog.Logger
}

// NewCopyFieldMapper creates a copy field mapper over the full set of
// resolved field definitions.
func NewCopyFieldMapper(allFields map[string]map[string]any, logger *slog.Logger) *CopyFieldMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &CopyFieldMapper{
		allFields:    allFields,
		destinations: make(map[string][]string),
		logger:       logger,
	}
}

// Map applies one copy-field relation. The first destination is recorded as
// a scalar; further destinations promote copy_to to a list.
func (m *CopyFieldMapper) Map(def solr.AttributeBag) error {
	src := def.String("source")
	dst := def.String("dest")
	m.logger.Debug("Mapping copy field", "source", src, "dest", dst)

	srcDef := m.allFields[src]
	dstDef := m.allFields[dst]
	if srcDef == nil || dstDef == nil {
		return &CopyFieldError{Source: src, Dest: dst, Err: ErrMappingNotFound}
	}

	m.destinations[src] = append(m.destinations[src], dst)
	switch existing := srcDef["copy_to"].(type) {
	case nil:
		srcDef["copy_to"] = dst
	case string:
		srcDef["copy_to"] = []string{existing, dst}
	case []string:
		srcDef["copy_to"] = append(existing, dst)
	default:
		srcDef["copy_to"] = dst
	}
	return nil
}

// Destinations returns the recorded fan-out for a source field.
func (m *CopyFieldMapper) Destinations(src string) []string {
	return m.destinations[src]
}
