package solr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaBody = `{
	"schema": {
		"fieldTypes": [{"name": "string", "class": "solr.StrField"}],
		"fields": [{"name": "title", "type": "string", "stored": true}],
		"dynamicFields": [{"name": "*_s", "type": "string"}],
		"copyFields": [{"source": "title", "dest": "all"}]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, Collection: "products"}, nil)
}

func TestReadSchema(t *testing.T) {
	var requests int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/solr/products/schema", r.URL.Path)
		_, _ = w.Write([]byte(schemaBody))
	})

	schema, err := c.ReadSchema(context.Background())
	require.NoError(t, err)
	require.Len(t, schema.FieldTypes, 1)
	assert.Equal(t, "string", schema.FieldTypes[0].String("name"))
	require.Len(t, schema.Fields, 1)
	assert.Len(t, schema.DynamicFields, 1)
	assert.Len(t, schema.CopyFields, 1)

	// Second read serves the cached schema.
	_, err = c.ReadSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestFileContents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solr/products/admin/file", r.URL.Path)
		assert.Equal(t, "lang/stopwords_en.txt", r.URL.Query().Get("file"))
		_, _ = w.Write([]byte("a\nthe\n"))
	})

	content, err := c.FileContents(context.Background(), "lang/stopwords_en.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nthe\n", content)
}

func TestQueryRawParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "*:*", q.Get("q"))
		assert.Equal(t, "500", q.Get("rows"))
		assert.Equal(t, "id asc", q.Get("sort"))
		assert.Equal(t, "abc", q.Get("cursorMark"))
		assert.Equal(t, "json", q.Get("wt"))
		_, _ = w.Write([]byte(`{"response":{"numFound":0,"docs":[]}}`))
	})

	_, err := c.QueryRaw(context.Background(), QueryParams{
		Query:      "*:*",
		Sort:       "id asc",
		CursorMark: "abc",
		Rows:       500,
	})
	require.NoError(t, err)
}

func TestCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("rows"))
		_, _ = w.Write([]byte(`{"response":{"numFound":42,"docs":[]}}`))
	})

	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(schemaBody))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		Collection: "products",
		Username:   "admin",
		Password:   "secret",
	}, nil)

	_, err := c.ReadSchema(context.Background())
	require.NoError(t, err)
}

func TestErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such collection", http.StatusNotFound)
	})

	_, err := c.ReadSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAttributeBagHelpers(t *testing.T) {
	bag := AttributeBag{
		"name": "text_en",
		"analyzer": map[string]any{
			"tokenizer": map[string]any{"name": "standard"},
		},
		"filters": []any{
			map[string]any{"name": "lowercase"},
			"not-a-bag",
		},
		"count": float64(3),
	}

	assert.Equal(t, "text_en", bag.String("name"))
	assert.Equal(t, "", bag.String("count"), "non-string values read as empty")
	assert.Equal(t, "", bag.String("missing"))

	analyzer := bag.Bag("analyzer")
	require.NotNil(t, analyzer)
	assert.Equal(t, "standard", analyzer.Bag("tokenizer").String("name"))
	assert.Nil(t, bag.Bag("missing"))
	assert.Nil(t, bag.Bag("name"), "scalar values are not bags")

	filters := bag.Bags("filters")
	require.Len(t, filters, 1, "non-map elements are dropped")
	assert.Equal(t, "lowercase", filters[0].String("name"))
	assert.Nil(t, bag.Bags("missing"))
}
