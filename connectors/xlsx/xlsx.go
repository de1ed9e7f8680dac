package xlsx

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"painel-preditivo/domain/table"

	"github.com/xuri/excelize/v2"
)

// ErrParse marks content that is not a readable spreadsheet.
var ErrParse = errors.New("invalid spreadsheet")

// Parse reads the first sheet of an xlsx workbook, or a CSV file when name ends in .csv,
// into a table. The first row is the header row; fully empty rows are skipped.
func Parse(name string, data []byte) (table.Table, error) {
	tableName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		rows, err = readCSV(data)
	} else {
		rows, err = readWorkbook(data)
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("%s: %w: %v", name, ErrParse, err)
	}
	rows = dropEmpty(rows)
	if len(rows) == 0 {
		return table.Table{}, fmt.Errorf("%s: %w: no header row", name, ErrParse)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return table.Table{Name: tableName, Headers: headers, Rows: rows[1:]}, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets")
	}
	// raw values: date and time cells come back as Excel serials whatever their number format
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	// Brazilian exports often use ';'
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		r.Comma = ';'
	}
	return r.ReadAll()
}

func dropEmpty(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Encode writes each table to its own sheet, named after the table, and returns the workbook bytes.
func Encode(tables ...table.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeRow(f, sheet, 1, t.Headers); err != nil {
			return nil, err
		}
		for r, row := range t.Rows {
			if err := writeRow(f, sheet, r+2, row); err != nil {
				return nil, err
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
