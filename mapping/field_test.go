package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/schemaport/solr"
)

// fakeRegistry is an AnalyzerRegistry backed by a set.
type fakeRegistry map[string]bool

func (r fakeRegistry) HasAnalyzer(name string) bool { return r[name] }

var testAttrs = AttributeTable{
	"stored":    "store",
	"indexed":   "index",
	"docValues": "doc_values",
}

func newFieldMapper(t *testing.T, registry AnalyzerRegistry, bind map[string]solr.AttributeBag) *FieldMapper {
	t.Helper()
	dataTypes := map[string]string{
		"solr.TextField":                           "text",
		"solr.StrField":                            "keyword",
		"solr.NestPathField":                       "nested",
		"solr.SpatialRecursivePrefixTreeFieldType": "geo_shape",
	}
	types := NewFieldTypeMapper(dataTypes, newComposer(t), false, nil)
	for _, def := range bind {
		_, err := types.Map(context.Background(), def)
		require.NoError(t, err)
	}
	if registry == nil {
		registry = fakeRegistry{}
	}
	return NewFieldMapper(types, testAttrs, registry, nil)
}

func TestFieldMapperMap(t *testing.T) {
	m := newFieldMapper(t, nil, map[string]solr.AttributeBag{
		"string": {"name": "string", "class": "solr.StrField"},
	})

	name, attrs, err := m.Map(solr.AttributeBag{
		"name":    "title",
		"type":    "string",
		"stored":  true,
		"indexed": false,
	})
	require.NoError(t, err)
	assert.Equal(t, "title", name)
	assert.Equal(t, "keyword", attrs["type"])
	assert.Equal(t, true, attrs["store"])
	assert.Equal(t, false, attrs["index"])
}

func TestFieldMapperUnknownAttributesDropped(t *testing.T) {
	m := newFieldMapper(t, nil, map[string]solr.AttributeBag{
		"string": {"name": "string", "class": "solr.StrField"},
	})

	_, attrs, err := m.Map(solr.AttributeBag{
		"name":        "title",
		"type":        "string",
		"multiValued": true,
	})
	require.NoError(t, err)
	assert.NotContains(t, attrs, "multiValued")
	assert.NotContains(t, attrs, "multi_valued")
}

func TestFieldMapperMissingBinding(t *testing.T) {
	m := newFieldMapper(t, nil, nil)

	_, _, err := m.Map(solr.AttributeBag{"name": "title", "type": "unbound"})
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "title", fe.Name)
	assert.Equal(t, "unbound", fe.FieldType)
	assert.ErrorIs(t, err, ErrMappingNotFound)
}

func TestFieldMapperAnalyzerAttachment(t *testing.T) {
	bind := map[string]solr.AttributeBag{
		"text_en": {"name": "text_en", "class": "solr.TextField"},
	}

	t.Run("default role", func(t *testing.T) {
		m := newFieldMapper(t, fakeRegistry{"text_en": true}, bind)
		_, attrs, err := m.Map(solr.AttributeBag{"name": "body", "type": "text_en"})
		require.NoError(t, err)
		assert.Equal(t, "text_en", attrs["analyzer"])
		assert.NotContains(t, attrs, "search_analyzer")
	})

	t.Run("index role overrides default", func(t *testing.T) {
		m := newFieldMapper(t, fakeRegistry{"text_en": true, "text_en_index": true}, bind)
		_, attrs, err := m.Map(solr.AttributeBag{"name": "body", "type": "text_en"})
		require.NoError(t, err)
		assert.Equal(t, "text_en_index", attrs["analyzer"])
	})

	t.Run("query role becomes search analyzer", func(t *testing.T) {
		m := newFieldMapper(t, fakeRegistry{"text_en_query": true}, bind)
		_, attrs, err := m.Map(solr.AttributeBag{"name": "body", "type": "text_en"})
		require.NoError(t, err)
		assert.NotContains(t, attrs, "analyzer")
		assert.Equal(t, "text_en_query", attrs["search_analyzer"])
	})
}

func TestFieldMapperStripUnsupported(t *testing.T) {
	bind := map[string]solr.AttributeBag{
		"nest_path": {"name": "nest_path", "class": "solr.NestPathField"},
		"location":  {"name": "location", "class": "solr.SpatialRecursivePrefixTreeFieldType"},
	}
	m := newFieldMapper(t, nil, bind)

	_, attrs, err := m.Map(solr.AttributeBag{
		"name": "_nest_path_", "type": "nest_path", "stored": true, "indexed": true,
	})
	require.NoError(t, err)
	assert.NotContains(t, attrs, "store")
	assert.NotContains(t, attrs, "index")

	_, attrs, err = m.Map(solr.AttributeBag{
		"name": "geo", "type": "location", "docValues": true, "stored": true,
	})
	require.NoError(t, err)
	assert.NotContains(t, attrs, "doc_values")
	assert.NotContains(t, attrs, "store")
}
