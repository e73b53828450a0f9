package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/schemaport/solr"
)

func TestCopyFieldMapperMap(t *testing.T) {
	fields := map[string]map[string]any{
		"title":    {"type": "text"},
		"subtitle": {"type": "text"},
		"all":      {"type": "text"},
		"search":   {"type": "text"},
	}
	m := NewCopyFieldMapper(fields, nil)

	require.NoError(t, m.Map(solr.AttributeBag{"source": "title", "dest": "all"}))
	assert.Equal(t, "all", fields["title"]["copy_to"], "single destination stays scalar")

	require.NoError(t, m.Map(solr.AttributeBag{"source": "title", "dest": "search"}))
	assert.Equal(t, []string{"all", "search"}, fields["title"]["copy_to"],
		"second destination promotes copy_to to a list")

	require.NoError(t, m.Map(solr.AttributeBag{"source": "subtitle", "dest": "all"}))
	assert.Equal(t, "all", fields["subtitle"]["copy_to"])

	assert.Equal(t, []string{"all", "search"}, m.Destinations("title"))
}

func TestCopyFieldMapperThirdDestinationAppends(t *testing.T) {
	fields := map[string]map[string]any{
		"a": {}, "b": {}, "c": {}, "d": {},
	}
	m := NewCopyFieldMapper(fields, nil)

	require.NoError(t, m.Map(solr.AttributeBag{"source": "a", "dest": "b"}))
	require.NoError(t, m.Map(solr.AttributeBag{"source": "a", "dest": "c"}))
	require.NoError(t, m.Map(solr.AttributeBag{"source": "a", "dest": "d"}))
	assert.Equal(t, []string{"b", "c", "d"}, fields["a"]["copy_to"])
}

func TestCopyFieldMapperMissingEndpoints(t *testing.T) {
	fields := map[string]map[string]any{"title": {}}
	m := NewCopyFieldMapper(fields, nil)

	tests := []struct {
		name     string
		src, dst string
	}{
		{"missing dest", "title", "nope"},
		{"missing source", "nope", "title"},
		{"both missing", "nope", "also-nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Map(solr.AttributeBag{"source": tt.src, "dest": tt.dst})
			require.Error(t, err)

			var ce *CopyFieldError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.src, ce.Source)
			assert.Equal(t, tt.dst, ce.Dest)
			assert.ErrorIs(t, err, ErrMappingNotFound)
		})
	}

	assert.NotContains(t, fields["title"], "copy_to", "failed relations leave no trace")
}
