package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"painel-preditivo/domain/dashboard"
	"painel-preditivo/domain/table"
)

// WriteAllCSVs writes the unified table and every dashboard view into dir.
func WriteAllCSVs(dir string, merged table.Table, d *dashboard.Dashboard) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := WriteTableCSV(filepath.Join(dir, "incidentes.csv"), merged); err != nil {
		return err
	}
	if err := WriteKPICSV(filepath.Join(dir, "kpis.csv"), d); err != nil {
		return err
	}
	ranked := []struct {
		file, label string
		rows        []dashboard.Ranked
	}{
		{"top_locais.csv", "bairro", d.TopLocations},
		{"top_ruas.csv", "logradouro", d.TopStreets},
		{"top_horarios.csv", "hora", d.TopHours},
		{"tipos_crime.csv", "natureza", d.CrimeTypes},
	}
	for _, r := range ranked {
		if err := WriteRankedCSV(filepath.Join(dir, r.file), r.label, r.rows); err != nil {
			return fmt.Errorf("write %s: %w", r.file, err)
		}
	}
	if err := WriteHourlyCSV(filepath.Join(dir, "previsao_horaria.csv"), d.Hourly); err != nil {
		return err
	}
	return WriteAlertCSV(filepath.Join(dir, "alertas.csv"), d.Alerts)
}

// WriteTableCSV writes headers and rows as they are.
func WriteTableCSV(path string, t table.Table) error {
	rows := make([][]string, 0, t.Len())
	for i := range t.Rows {
		row := make([]string, len(t.Headers))
		for j := range t.Headers {
			row[j] = t.Cell(i, j)
		}
		rows = append(rows, row)
	}
	return writeCSV(path, t.Headers, rows)
}

func WriteKPICSV(path string, d *dashboard.Dashboard) error {
	return writeTable(path, KPITable(d))
}

func WriteRankedCSV(path, label string, ranked []dashboard.Ranked) error {
	return writeTable(path, RankedTable("", label, ranked))
}

func WriteHourlyCSV(path string, hourly []dashboard.HourProjection) error {
	return writeTable(path, HourlyTable(hourly))
}

func WriteAlertCSV(path string, alerts []dashboard.Alert) error {
	return writeTable(path, AlertTable(alerts))
}

// ViewTables returns every dashboard view as a named table, in the order the CSVs are written.
func ViewTables(d *dashboard.Dashboard) []table.Table {
	return []table.Table{
		KPITable(d),
		RankedTable("top_locais", "bairro", d.TopLocations),
		RankedTable("top_ruas", "logradouro", d.TopStreets),
		RankedTable("top_horarios", "hora", d.TopHours),
		RankedTable("tipos_crime", "natureza", d.CrimeTypes),
		HourlyTable(d.Hourly),
		AlertTable(d.Alerts),
	}
}

func KPITable(d *dashboard.Dashboard) table.Table {
	rows := make([][]string, 0, len(d.KPIs))
	for _, k := range d.KPIs {
		rows = append(rows, []string{k.Name, fmt.Sprint(k.Value), k.Description, d.ReferenceDate.Format(time.DateOnly)})
	}
	return table.Table{Name: "kpis", Headers: []string{"nome", "valor", "descricao", "data_referencia"}, Rows: rows}
}

func RankedTable(name, label string, ranked []dashboard.Ranked) table.Table {
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Label, strconv.FormatFloat(r.Count, 'f', -1, 64), r.Risk})
	}
	return table.Table{Name: name, Headers: []string{"posicao", label, "ocorrencias", "risco"}, Rows: rows}
}

func HourlyTable(hourly []dashboard.HourProjection) table.Table {
	rows := make([][]string, 0, len(hourly))
	for _, h := range hourly {
		rows = append(rows, []string{strconv.Itoa(h.Hour), fmt.Sprintf("%.2f", h.Value), h.Risk})
	}
	return table.Table{Name: "previsao_horaria", Headers: []string{"hora", "media_diaria", "risco"}, Rows: rows}
}

func AlertTable(alerts []dashboard.Alert) table.Table {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{a.Title, a.Description, a.Level})
	}
	return table.Table{Name: "alertas", Headers: []string{"titulo", "descricao", "nivel"}, Rows: rows}
}

func writeTable(path string, t table.Table) error {
	return writeCSV(path, t.Headers, t.Rows)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Snapshots maps each API route suffix to the CSV written by WriteAllCSVs.
var Snapshots = map[string]string{
	"incidentes":       "incidentes.csv",
	"kpis":             "kpis.csv",
	"top_locais":       "top_locais.csv",
	"top_ruas":         "top_ruas.csv",
	"top_horarios":     "top_horarios.csv",
	"tipos_crime":      "tipos_crime.csv",
	"previsao_horaria": "previsao_horaria.csv",
	"alertas":          "alertas.csv",
}

// ReadCSV loads a CSV file and returns a slice of objects keyed by headers.
// Values are kept as strings.
func ReadCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := records[0]
	res := make([]map[string]string, 0, len(records)-1)
	for _, row := range records[1:] {
		obj := make(map[string]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			obj[headers[j]] = row[j]
		}
		res = append(res, obj)
	}
	return res, nil
}
