package table

import (
	"errors"
	"fmt"
	"strings"

	lo "github.com/samber/lo"
)

// ErrColumnNotFound is returned when an expected column cannot be located in a table.
var ErrColumnNotFound = errors.New("column not found")

// Table is a header row plus string cells, as read from a spreadsheet.
// Rows may be shorter than Headers; missing trailing cells read as "".
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Cell returns the value at row i, column j or "" when the row is short.
func (t Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 {
		return ""
	}
	row := t.Rows[i]
	if j >= len(row) {
		return ""
	}
	return row[j]
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Column returns the index of the header equal to name (case-insensitive, trimmed) or -1.
func (t Table) Column(name string) int {
	want := normalizeHeader(name)
	_, idx, ok := lo.FindIndexOf(t.Headers, func(h string) bool { return normalizeHeader(h) == want })
	if !ok {
		return -1
	}
	return idx
}

// FindColumn returns the first column, in declared order, whose uppercased header contains every
// keyword. Keywords are expected in upper case.
func (t Table) FindColumn(keywords ...string) int {
	if len(keywords) == 0 {
		return -1
	}
	_, idx, ok := lo.FindIndexOf(t.Headers, func(h string) bool {
		up := normalizeHeader(h)
		return lo.EveryBy(keywords, func(k string) bool { return strings.Contains(up, k) })
	})
	if !ok {
		return -1
	}
	return idx
}

// FindAny tries each keyword set in priority order and returns the first match, or -1.
func (t Table) FindAny(sets [][]string) int {
	for _, set := range sets {
		if idx := t.FindColumn(set...); idx >= 0 {
			return idx
		}
	}
	return -1
}

// MustFindAny is FindAny returning ErrColumnNotFound with the field name when nothing matches.
func (t Table) MustFindAny(field string, sets [][]string) (int, error) {
	idx := t.FindAny(sets)
	if idx < 0 {
		return -1, fmt.Errorf("%s: no %s column in headers %v: %w", t.Name, field, t.Headers, ErrColumnNotFound)
	}
	return idx, nil
}

func normalizeHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}
