package ddl

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// ParseFiles parses each file in order. A later definition of a table
// replaces an earlier one once the result is put in a catalog.
func ParseFiles(paths ...string) ([]*core.TableSchema, error) {
	var all []*core.TableSchema
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		tables, err := ParseReader(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		all = append(all, tables...)
	}
	return all, nil
}
