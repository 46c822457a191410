// Package schema compares a table's columns, as read from the database
// catalog, with the layout a repository expects.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Column is the type and nullability of one column.
type Column struct {
	Type     string
	Nullable bool
}

// Table maps column names to their expected shape.
type Table map[string]Column

// Check reports every column of want that is missing from got or differs
// in type or nullability. Extra columns in got are allowed. An empty got
// means the table does not exist.
func (want Table) Check(table string, got Table) error {
	if len(got) == 0 {
		return fmt.Errorf("table %s does not exist", table)
	}

	var problems []string
	for _, name := range slices.Sorted(maps.Keys(want)) {
		w := want[name]
		g, ok := got[name]
		switch {
		case !ok:
			problems = append(problems, "missing column "+name)
		case !strings.EqualFold(g.Type, w.Type):
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, w.Type, strings.ToLower(g.Type)))
		case g.Nullable != w.Nullable:
			problems = append(problems, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, w.Nullable, g.Nullable))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("table %s: %s", table, strings.Join(problems, "; "))
	}
	return nil
}
