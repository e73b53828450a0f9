package mapping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/c360studio/schemaport/solr"
)

// Construct is a fully resolved target tokenizer, filter, or char filter.
// Name embeds a content digest so that identical configurations under
// different source names collapse to one instance.
type Construct struct {
	Name  string
	Type  string
	Attrs map[string]any
	// Source is the normalized source construct name, without the digest.
	// Reports show this name; the index settings use Name.
	Source string
}

// Definition returns the construct body as written into the index settings.
func (c Construct) Definition() map[string]any {
	def := make(map[string]any, len(c.Attrs)+1)
	for k, v := range c.Attrs {
		def[k] = v
	}
	def["type"] = c.Type
	return def
}

// Analyzer is a named analysis chain: a tokenizer plus ordered filter and
// char-filter sequences. Order is semantically significant.
type Analyzer struct {
	Name        string
	Tokenizer   *Construct
	Filters     []Construct
	CharFilters []Construct
}

// Factory class suffixes stripped during name resolution, longest first so
// that TokenFilterFactory wins over FilterFactory.
var factorySuffixes = []string{
	"TokenizerFactory",
	"TokenFilterFactory",
	"CharFilterFactory",
	"FilterFactory",
}

// constructName resolves the table lookup key for a source construct: the
// explicit name when present, otherwise the last segment of the class name
// with its factory suffix stripped. Always lowercased.
func constructName(def solr.AttributeBag) string {
	if name := def.String("name"); name != "" {
		return strings.ToLower(name)
	}
	class := def.String("class")
	if idx := strings.LastIndex(class, "."); idx >= 0 {
		class = class[idx+1:]
	}
	for _, suffix := range factorySuffixes {
		if cut, ok := strings.CutSuffix(class, suffix); ok {
			class = cut
			break
		}
	}
	return strings.ToLower(class)
}

// contentHash returns a stable 128-bit digest of an attribute set. JSON
// marshaling sorts map keys, making the digest order-independent.
func contentHash(attrs map[string]any) string {
	data, err := json.Marshal(attrs)
	if err != nil {
		// Attribute values come from decoded JSON and re-marshal cleanly;
		// anything else is a programming error.
		panic(fmt.Sprintf("mapping: hash attrs: %v", err))
	}
	sum := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", sum)
}
