// Package mapping implements the rule-driven translation of Solr analysis
// constructs and field definitions into their OpenSearch equivalents.
//
// Translation is table-driven: JSON mapping tables key a lowercased source
// construct name to a target type plus per-attribute derivation rules. Three
// rule kinds exist: copy an attribute with a default, resolve an attribute
// from a dictionary file (optionally materialized as a hosted package), and
// a constant default.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RuleKind discriminates the closed set of attribute derivation rules.
type RuleKind int

const (
	// RuleDefault uses the rule's constant default value.
	RuleDefault RuleKind = iota
	// RuleValueFrom copies a source attribute, falling back to the default.
	RuleValueFrom
	// RuleValueFromFile resolves a source attribute naming a dictionary
	// file; resolution depends on run configuration (package, inline, or
	// empty).
	RuleValueFromFile
)

// Rule is one attribute derivation rule inside a table entry.
type Rule struct {
	ValueFrom     string `json:"valueFrom,omitempty"`
	ValueFromFile string `json:"valueFromFile,omitempty"`
	CreatePackage bool   `json:"createPackage,omitempty"`
	Default       any    `json:"default,omitempty"`
}

// Kind returns the rule variant.
func (r Rule) Kind() RuleKind {
	switch {
	case r.ValueFromFile != "":
		return RuleValueFromFile
	case r.ValueFrom != "":
		return RuleValueFrom
	default:
		return RuleDefault
	}
}

// Spec is one mapping table entry: the target construct type plus the
// attribute rules used to derive its definition.
type Spec struct {
	Type  string
	Attrs map[string]Rule
}

// UnmarshalJSON decodes the table entry shape: a "type" key plus arbitrary
// attribute-rule keys at the same level.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Attrs = make(map[string]Rule)
	for key, val := range raw {
		if key == "type" {
			if err := json.Unmarshal(val, &s.Type); err != nil {
				return fmt.Errorf("attribute %q: %w", key, err)
			}
			continue
		}
		var rule Rule
		if err := json.Unmarshal(val, &rule); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		s.Attrs[key] = rule
	}
	if s.Type == "" {
		return fmt.Errorf("table entry missing target type")
	}
	return nil
}

// Table maps a lowercased source construct name to its target spec.
// Loaded once at startup and immutable for the run.
type Table map[string]Spec

// Lookup returns the spec for a normalized construct name.
func (t Table) Lookup(name string) (Spec, bool) {
	spec, ok := t[strings.ToLower(name)]
	return spec, ok
}

// ParseTable decodes a mapping table, lowercasing all keys.
func ParseTable(data []byte) (Table, error) {
	var raw map[string]Spec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse mapping table: %w", err)
	}
	table := make(Table, len(raw))
	for name, spec := range raw {
		table[strings.ToLower(name)] = spec
	}
	return table, nil
}

// AttributeTable projects source field attributes onto target attribute
// names. Attributes absent from the table are unrelated to the target model
// and are logged, never fatal.
type AttributeTable map[string]string

// ParseAttributeTable decodes an attribute projection table.
func ParseAttributeTable(data []byte) (AttributeTable, error) {
	var table AttributeTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse attribute table: %w", err)
	}
	return table, nil
}

// Tables bundles every mapping table a run needs.
type Tables struct {
	Tokenizers  Table
	Filters     Table
	CharFilters Table
	// DataTypes maps a Solr field type class (e.g. "solr.TextField") to the
	// target data type. Keyed by class, not lowercased.
	DataTypes map[string]string
	// Attributes projects field/dynamic-field attributes.
	Attributes AttributeTable
}

// Table file names inside a tables directory.
const (
	tokenizerTableFile  = "tokenizer_mapping.json"
	filterTableFile     = "filter_mapping.json"
	charFilterTableFile = "char_filter_mapping.json"
	dataTypeTableFile   = "field_data_types.json"
	attributeTableFile  = "attributes.json"
)

// LoadTables reads all mapping tables from dir. An empty dir loads the
// embedded defaults.
func LoadTables(dir string) (*Tables, error) {
	read := func(name string) ([]byte, error) {
		if dir == "" {
			return defaultTable(name)
		}
		return os.ReadFile(filepath.Join(dir, name))
	}

	var (
		t   Tables
		err error
	)
	if t.Tokenizers, err = parseTableFile(read, tokenizerTableFile); err != nil {
		return nil, err
	}
	if t.Filters, err = parseTableFile(read, filterTableFile); err != nil {
		return nil, err
	}
	if t.CharFilters, err = parseTableFile(read, charFilterTableFile); err != nil {
		return nil, err
	}

	data, err := read(dataTypeTableFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dataTypeTableFile, err)
	}
	if err := json.Unmarshal(data, &t.DataTypes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", dataTypeTableFile, err)
	}

	data, err = read(attributeTableFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", attributeTableFile, err)
	}
	if t.Attributes, err = ParseAttributeTable(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", attributeTableFile, err)
	}

	return &t, nil
}

func parseTableFile(read func(string) ([]byte, error), name string) (Table, error) {
	data, err := read(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return table, nil
}
