package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/schemaport/mapping"
	"github.com/c360studio/schemaport/solr"
)

// fakeSource serves a fixed schema.
type fakeSource struct {
	schema *solr.Schema
}

func (s *fakeSource) ReadSchema(_ context.Context) (*solr.Schema, error) { return s.schema, nil }

func (s *fakeSource) FileContents(_ context.Context, path string) (string, error) {
	return "", fmt.Errorf("no such file: %s", path)
}

func (s *fakeSource) QueryRaw(_ context.Context, _ solr.QueryParams) ([]byte, error) {
	return nil, fmt.Errorf("no documents")
}

func (s *fakeSource) Count(_ context.Context) (int, error) { return 0, nil }

func (s *fakeSource) Collection() string { return "products" }

// fakeAdmin records index creation.
type fakeAdmin struct {
	created map[string]map[string]any
}

func (a *fakeAdmin) CreateIndex(_ context.Context, name string, definition map[string]any) error {
	if a.created == nil {
		a.created = make(map[string]map[string]any)
	}
	a.created[name] = definition
	return nil
}

func testSchema() *solr.Schema {
	textAnalyzer := map[string]any{
		"tokenizer": map[string]any{"class": "solr.StandardTokenizerFactory"},
		"filters":   []any{map[string]any{"class": "solr.LowerCaseFilterFactory"}},
	}
	brokenAnalyzer := map[string]any{
		"tokenizer": map[string]any{"name": "unknownTok"},
	}

	return &solr.Schema{
		FieldTypes: []solr.AttributeBag{
			{"name": "text_en", "class": "solr.TextField", "analyzer": textAnalyzer},
			{"name": "string", "class": "solr.StrField"},
			{"name": "text_broken", "class": "solr.TextField", "analyzer": brokenAnalyzer},
		},
		Fields: []solr.AttributeBag{
			{"name": "title", "type": "string", "stored": true},
			{"name": "body", "type": "text_en"},
			{"name": "all", "type": "text_en"},
			{"name": "orphan", "type": "text_broken"},
		},
		DynamicFields: []solr.AttributeBag{
			{"name": "*_s", "type": "string"},
		},
		CopyFields: []solr.AttributeBag{
			{"source": "title", "dest": "all"},
			{"source": "title", "dest": "missing"},
		},
	}
}

func testMigrator(t *testing.T, opts Options) *Migrator {
	t.Helper()
	tables, err := mapping.LoadTables("")
	require.NoError(t, err)
	return New(&fakeSource{schema: testSchema()}, nil, tables, nil, opts, nil, nil)
}

func TestMigrateSchema(t *testing.T) {
	outDir := t.TempDir()
	m := testMigrator(t, Options{IndexName: "products-v2", OutDir: outDir})

	rep, err := m.MigrateSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.FieldTypes.Attempted)
	assert.Equal(t, 2, rep.FieldTypes.Succeeded)
	assert.Equal(t, 1, rep.FieldTypes.Failed)

	// orphan's type never got a binding, the other three fields map.
	assert.Equal(t, 4, rep.Fields.Attempted)
	assert.Equal(t, 3, rep.Fields.Succeeded)
	assert.Equal(t, 1, rep.Fields.Failed)

	assert.Equal(t, 1, rep.DynamicFields.Succeeded)

	// title -> all maps; title -> missing fails on the absent endpoint.
	assert.Equal(t, 1, rep.CopyFields.Succeeded)
	assert.Equal(t, 1, rep.CopyFields.Failed)

	// Sub-construct outcomes surface in their own categories.
	assert.Equal(t, 1, rep.Tokenizers.Succeeded)
	assert.Equal(t, 1, rep.Tokenizers.Failed)
	assert.Equal(t, 1, rep.Filters.Succeeded)

	assert.False(t, rep.FinishedAt.IsZero())
}

func TestMigrateSchemaConstructDetailNames(t *testing.T) {
	m := testMigrator(t, Options{IndexName: "products-v2"})

	rep, err := m.MigrateSchema(context.Background())
	require.NoError(t, err)

	var names []string
	for _, d := range rep.Tokenizers.Details {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "standard", "success records show the plain source name")
	assert.Contains(t, names, "unknowntok")

	require.NotEmpty(t, rep.Filters.Details)
	f := rep.Filters.Details[0]
	assert.Equal(t, "lowercase", f.Name, "no digest suffix in report details")
	assert.Equal(t, "filter", f.SourceType)
	assert.Equal(t, "lowercase", f.TargetType)
}

func TestMigrateSchemaOutputs(t *testing.T) {
	outDir := t.TempDir()
	m := testMigrator(t, Options{IndexName: "products-v2", OutDir: outDir})

	_, err := m.MigrateSchema(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "index.json"))
	require.NoError(t, err)

	var def map[string]any
	require.NoError(t, json.Unmarshal(data, &def))

	settings := def["settings"].(map[string]any)
	analysis := settings["analysis"].(map[string]any)
	assert.Contains(t, analysis["analyzer"], "text_en")

	mappings := def["mappings"].(map[string]any)
	props := mappings["properties"].(map[string]any)
	assert.Contains(t, props, "title")
	assert.Contains(t, props, "body")
	body := props["body"].(map[string]any)
	assert.Equal(t, "text_en", body["analyzer"])
	title := props["title"].(map[string]any)
	assert.Equal(t, "all", title["copy_to"], "copy field relation lands in the written definition")

	_, err = os.Stat(filepath.Join(outDir, "schema_migration_report.html"))
	assert.NoError(t, err)
}

func TestMigrateSchemaCreateIndex(t *testing.T) {
	tables, err := mapping.LoadTables("")
	require.NoError(t, err)
	admin := &fakeAdmin{}
	m := New(&fakeSource{schema: testSchema()}, admin, tables, nil, Options{
		IndexName:   "products-v2",
		CreateIndex: true,
	}, nil, nil)

	_, err = m.MigrateSchema(context.Background())
	require.NoError(t, err)
	assert.Contains(t, admin.created, "products-v2")
}

func TestMigrateSchemaCreateIndexWithoutAdmin(t *testing.T) {
	m := testMigrator(t, Options{IndexName: "products-v2", CreateIndex: true})

	_, err := m.MigrateSchema(context.Background())
	assert.Error(t, err)
}

func TestMigrateSchemaMapFieldsOnAnalyzerFailure(t *testing.T) {
	m := testMigrator(t, Options{
		IndexName:                  "products-v2",
		MapFieldsOnAnalyzerFailure: true,
	})

	rep, err := m.MigrateSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rep.FieldTypes.Succeeded, "analyzer-only failure keeps the field type")
	assert.Equal(t, 0, rep.FieldTypes.Failed)
	assert.Equal(t, 4, rep.Fields.Succeeded, "orphan maps against the kept binding")
	assert.Equal(t, 1, rep.Tokenizers.Failed, "the tokenizer failure is still reported")
}
