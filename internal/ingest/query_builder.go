package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Filter narrows a record-store fetch. Zero values mean no constraint.
type Filter struct {
	Entities []string
	Start    time.Time
	End      time.Time
	Limit    int
}

// Table and column names come from configuration, not from the stores, so
// they are validated rather than trusted. One optional qualifier allows
// database.table forms.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type placeholderFunc func(i int) string

func chPlaceholder(int) string   { return "?" }
func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

// buildSelect constructs a parameterized SELECT over a record-store table.
// Rows come back ordered by entity and time; ordering is a convenience for
// the store, not a contract, since the panel builder re-sorts.
func buildSelect(table, entityCol, timeCol string, metricCols []string, f Filter, ph placeholderFunc) (string, []interface{}, error) {
	idents := append([]string{table, entityCol, timeCol}, metricCols...)
	for _, ident := range idents {
		if !identPattern.MatchString(ident) {
			return "", nil, fmt.Errorf("unsafe identifier: %q", ident)
		}
	}
	if len(metricCols) == 0 {
		return "", nil, fmt.Errorf("no metric columns configured")
	}

	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE 1=1",
		entityCol, timeCol, strings.Join(metricCols, ", "), table)
	var args []interface{}
	n := 0

	if len(f.Entities) > 0 {
		marks := make([]string, len(f.Entities))
		for i, e := range f.Entities {
			n++
			marks[i] = ph(n)
			args = append(args, e)
		}
		query += fmt.Sprintf(" AND %s IN (%s)", entityCol, strings.Join(marks, ", "))
	}
	if !f.Start.IsZero() {
		n++
		query += fmt.Sprintf(" AND %s >= %s", timeCol, ph(n))
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		n++
		query += fmt.Sprintf(" AND %s <= %s", timeCol, ph(n))
		args = append(args, f.End)
	}

	query += fmt.Sprintf(" ORDER BY %s, %s", entityCol, timeCol)

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	return query, args, nil
}
