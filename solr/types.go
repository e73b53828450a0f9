// Package solr provides the source-side collaborator for schema migration:
// typed access to a Solr collection's managed schema, configset files, and
// cursor-based document queries.
package solr

// AttributeBag is a flat attribute set as returned by the Solr schema API.
// Field types, fields, dynamic fields, copy fields, tokenizers and filters
// all arrive in this shape.
type AttributeBag map[string]any

// String returns the named attribute as a string, or "" when absent or not
// a string.
func (b AttributeBag) String(key string) string {
	v, ok := b[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Bags returns the named attribute as a list of attribute bags. Solr encodes
// filter and char-filter chains this way.
func (b AttributeBag) Bags(key string) []AttributeBag {
	v, ok := b[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]AttributeBag, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, AttributeBag(m))
		}
	}
	return out
}

// Bag returns the named attribute as a nested attribute bag, or nil.
func (b AttributeBag) Bag(key string) AttributeBag {
	v, ok := b[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return AttributeBag(m)
}

// Schema is the full managed schema of a collection, as four ordered lists.
// Order is preserved from the API response; copy fields in particular must be
// processed after all field definitions are known.
type Schema struct {
	FieldTypes    []AttributeBag `json:"fieldTypes"`
	Fields        []AttributeBag `json:"fields"`
	DynamicFields []AttributeBag `json:"dynamicFields"`
	CopyFields    []AttributeBag `json:"copyFields"`
}

// QueryParams describes one page request against the select handler.
type QueryParams struct {
	Query      string
	FieldList  string
	Sort       string
	CursorMark string
	Rows       int
}
