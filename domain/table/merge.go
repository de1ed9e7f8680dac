package table

import (
	"fmt"
	"strings"
)

// DefaultKeyColumn is the incident identifier header used by the police spreadsheets.
const DefaultKeyColumn = "Nº Ocorrência"

// keyFallbacks are tried, in order, when the key column is not present by name.
var keyFallbacks = [][]string{{"OCORR"}, {"OCCURRENCE"}}

// KeyColumn locates the identifier column: exact header name first, then any header
// containing "ocorr"/"occurrence".
func (t Table) KeyColumn(name string) (int, error) {
	if name == "" {
		name = DefaultKeyColumn
	}
	if idx := t.Column(name); idx >= 0 {
		return idx, nil
	}
	if idx := t.FindAny(keyFallbacks); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("%s: key column %q not in headers %v: %w", t.Name, name, t.Headers, ErrColumnNotFound)
}

// LeftJoin merges the right tables into left on the key column. Every left row is kept in order.
// A right table contributes its first row per key, so a well-formed 1:1 key never fans out.
// Right headers colliding with existing ones get a "_<table name>" suffix.
func LeftJoin(key string, left Table, rights ...Table) (Table, error) {
	lk, err := left.KeyColumn(key)
	if err != nil {
		return Table{}, err
	}

	type side struct {
		t     Table
		cols  []int
		index map[string]int
	}
	sides := make([]side, 0, len(rights))
	headers := append([]string{}, left.Headers...)
	seen := map[string]bool{}
	for _, h := range headers {
		seen[normalizeHeader(h)] = true
	}

	for _, r := range rights {
		rk, err := r.KeyColumn(key)
		if err != nil {
			return Table{}, err
		}
		s := side{t: r, index: make(map[string]int, len(r.Rows))}
		for j, h := range r.Headers {
			if j == rk {
				continue
			}
			name := h
			if seen[normalizeHeader(name)] {
				name = h + "_" + r.Name
			}
			seen[normalizeHeader(name)] = true
			headers = append(headers, name)
			s.cols = append(s.cols, j)
		}
		for i := range r.Rows {
			k := joinKey(r.Cell(i, rk))
			if k == "" {
				continue
			}
			if _, dup := s.index[k]; !dup {
				s.index[k] = i
			}
		}
		sides = append(sides, s)
	}

	out := Table{Name: left.Name, Headers: headers, Rows: make([][]string, 0, len(left.Rows))}
	for i := range left.Rows {
		row := make([]string, len(left.Headers), len(headers))
		for j := range left.Headers {
			row[j] = left.Cell(i, j)
		}
		k := joinKey(left.Cell(i, lk))
		for _, s := range sides {
			ri, ok := s.index[k]
			for _, j := range s.cols {
				if ok && k != "" {
					row = append(row, s.t.Cell(ri, j))
				} else {
					row = append(row, "")
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// joinKey normalizes identifiers so "123" and "123.0" written by different exports still match.
func joinKey(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, ".0") && isDigits(strings.TrimSuffix(v, ".0")) {
		return strings.TrimSuffix(v, ".0")
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
