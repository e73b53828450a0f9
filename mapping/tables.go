package mapping

import (
	"embed"
	"fmt"
)

// Default mapping tables cover the stock Solr analysis factories. A tables
// directory in the run configuration overrides them wholesale.
//
//go:embed tables/*.json
var defaultTables embed.FS

func defaultTable(name string) ([]byte, error) {
	data, err := defaultTables.ReadFile("tables/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded table %s: %w", name, err)
	}
	return data, nil
}
