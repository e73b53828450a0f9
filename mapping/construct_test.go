package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/schemaport/solr"
)

func TestConstructName(t *testing.T) {
	tests := []struct {
		name string
		def  solr.AttributeBag
		want string
	}{
		{
			name: "explicit name lowercased",
			def:  solr.AttributeBag{"name": "Standard"},
			want: "standard",
		},
		{
			name: "name wins over class",
			def:  solr.AttributeBag{"name": "whitespace", "class": "solr.StandardTokenizerFactory"},
			want: "whitespace",
		},
		{
			name: "tokenizer factory suffix stripped",
			def:  solr.AttributeBag{"class": "solr.StandardTokenizerFactory"},
			want: "standard",
		},
		{
			name: "token filter factory suffix stripped",
			def:  solr.AttributeBag{"class": "org.apache.lucene.analysis.core.StopTokenFilterFactory"},
			want: "stop",
		},
		{
			name: "char filter factory suffix stripped",
			def:  solr.AttributeBag{"class": "solr.HTMLStripCharFilterFactory"},
			want: "htmlstrip",
		},
		{
			name: "filter factory suffix stripped",
			def:  solr.AttributeBag{"class": "solr.LowerCaseFilterFactory"},
			want: "lowercase",
		},
		{
			name: "class without factory suffix",
			def:  solr.AttributeBag{"class": "solr.KeywordTokenizer"},
			want: "keywordtokenizer",
		},
		{
			name: "empty definition",
			def:  solr.AttributeBag{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, constructName(tt.def))
		})
	}
}

func TestContentHash(t *testing.T) {
	a := map[string]any{"type": "stop", "ignore_case": true, "stopwords": []string{"a", "the"}}
	b := map[string]any{"stopwords": []string{"a", "the"}, "ignore_case": true, "type": "stop"}
	c := map[string]any{"type": "stop", "ignore_case": false, "stopwords": []string{"a", "the"}}

	assert.Equal(t, contentHash(a), contentHash(b), "key order must not affect the digest")
	assert.NotEqual(t, contentHash(a), contentHash(c), "differing values must change the digest")
	assert.Len(t, contentHash(a), 32, "digest is 128 bits in hex")
}

func TestConstructDefinition(t *testing.T) {
	c := Construct{
		Name:  "stopabc",
		Type:  "stop",
		Attrs: map[string]any{"ignore_case": true},
	}
	def := c.Definition()
	assert.Equal(t, "stop", def["type"])
	assert.Equal(t, true, def["ignore_case"])
	// The name identifies the construct in settings, never inside the body.
	assert.NotContains(t, def, "name")
}
