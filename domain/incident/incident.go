package incident

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"painel-preditivo/domain/table"

	"github.com/xuri/excelize/v2"
)

// Unknown is the sentinel written in text fields the source does not provide.
const Unknown = "S/I"

// Incident is one reported occurrence after normalization.
type Incident struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"` // UTC midnight
	Hour         int       `json:"hour"`
	HasHour      bool      `json:"has_hour"`
	Neighborhood string    `json:"neighborhood"`
	Street       string    `json:"street"`
	CrimeType    string    `json:"crime_type"`
	Count        float64   `json:"count"`
}

// Keyword sets per field, in priority order. Each set matches a header containing all its words.
var (
	DateKeywords         = [][]string{{"DATA", "FATO"}, {"DATA"}, {"DATE"}}
	HourKeywords         = [][]string{{"HORA"}, {"HOUR"}}
	NeighborhoodKeywords = [][]string{{"BAIRRO"}, {"NEIGHBORHOOD"}}
	StreetKeywords       = [][]string{{"LOGRADOURO"}, {"RUA"}, {"ENDERE"}, {"STREET"}}
	CrimeTypeKeywords    = [][]string{{"NATUREZA"}, {"TIPO"}, {"CRIME"}}
	CountKeywords        = [][]string{{"QUANTIDADE"}, {"QTD"}, {"COUNT"}}
)

// Columns records which header was picked for each field; empty when absent.
type Columns struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Hour         string `json:"hour"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	CrimeType    string `json:"crime_type"`
	Count        string `json:"count"`
}

// Result is the normalized table plus bookkeeping about what was dropped.
type Result struct {
	Incidents []Incident
	Columns   Columns
	Dropped   int // rows removed because the date could not be parsed
}

// DetectColumns resolves the header used for each field. Only the date column is mandatory.
func DetectColumns(t table.Table, key string) (Columns, error) {
	var c Columns
	if idx, err := t.KeyColumn(key); err == nil {
		c.ID = t.Headers[idx]
	}
	idx, err := t.MustFindAny("date", DateKeywords)
	if err != nil {
		return c, err
	}
	c.Date = t.Headers[idx]
	c.Hour = headerOf(t, HourKeywords)
	c.Neighborhood = headerOf(t, NeighborhoodKeywords)
	c.Street = headerOf(t, StreetKeywords)
	c.CrimeType = headerOf(t, CrimeTypeKeywords)
	c.Count = headerOf(t, CountKeywords)
	return c, nil
}

func headerOf(t table.Table, sets [][]string) string {
	if idx := t.FindAny(sets); idx >= 0 {
		return t.Headers[idx]
	}
	return ""
}

// Normalize turns a merged table into incidents. Rows whose date cannot be parsed are dropped
// and counted in Result.Dropped.
func Normalize(t table.Table, key string) (Result, error) {
	cols, err := DetectColumns(t, key)
	if err != nil {
		return Result{}, fmt.Errorf("normalize: %w", err)
	}
	idID := column(t, cols.ID)
	idDate := column(t, cols.Date)
	idHour := column(t, cols.Hour)
	idHood := column(t, cols.Neighborhood)
	idStreet := column(t, cols.Street)
	idCrime := column(t, cols.CrimeType)
	idCount := column(t, cols.Count)

	res := Result{Columns: cols, Incidents: make([]Incident, 0, t.Len())}
	for i := 0; i < t.Len(); i++ {
		date, ok := ParseDate(t.Cell(i, idDate))
		if !ok {
			res.Dropped++
			continue
		}
		inc := Incident{
			ID:           strings.TrimSpace(cell(t, i, idID)),
			Date:         date,
			Neighborhood: text(cell(t, i, idHood)),
			Street:       text(cell(t, i, idStreet)),
			CrimeType:    text(cell(t, i, idCrime)),
			Count:        1,
		}
		if h, ok := ParseHour(cell(t, i, idHour)); ok {
			inc.Hour, inc.HasHour = h, true
		}
		if idCount >= 0 {
			if n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t.Cell(i, idCount)), ",", "."), 64); err == nil && n >= 0 && !math.IsInf(n, 0) {
				inc.Count = n
			}
		}
		res.Incidents = append(res.Incidents, inc)
	}
	if res.Dropped > 0 {
		slog.Warn("normalize.rows.dropped", "table", t.Name, "dropped", res.Dropped, "kept", len(res.Incidents), "column", cols.Date)
	}
	return res, nil
}

func column(t table.Table, header string) int {
	if header == "" {
		return -1
	}
	return t.Column(header)
}

// cell tolerates absent columns (-1).
func cell(t table.Table, i, j int) string {
	if j < 0 {
		return ""
	}
	return t.Cell(i, j)
}

// text uppercases and trims for grouping stability; blanks become Unknown.
func text(v string) string {
	v = strings.ToUpper(strings.Join(strings.Fields(v), " "))
	if v == "" || v == "NAN" {
		return Unknown
	}
	return v
}

// ParseHour accepts 14, 14.0, "14h", "14H" and "14:30", and Excel time-of-day fractions
// (0.6041 is 14:30). Values outside 0-23 are missing.
func ParseHour(v string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(v))
	if s == "" {
		return 0, false
	}
	if i := strings.IndexAny(s, ":h"); i > 0 {
		s = s[:i]
	} else if i == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= 24 {
		return 0, false
	}
	if f > 0 && f < 1 {
		return int(math.Round(f*24*60)) / 60 % 24, true
	}
	return int(f), true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"02-01-2006",
	"01-02-06", // excelize default rendering of date cells
}

// ParseDate coerces a cell to a calendar date (UTC midnight). Excel serial numbers are accepted.
func ParseDate(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return day(t), true
		}
	}
	return time.Time{}, false
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
