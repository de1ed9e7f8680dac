package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"painel-preditivo/domain/dashboard"
	"painel-preditivo/domain/incident"
	"painel-preditivo/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAllCSVs(t *testing.T) {
	ref := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	d, err := dashboard.Compute([]incident.Incident{
		{ID: "1", Date: ref, Hour: 20, HasHour: true, Neighborhood: "CENTRO", Street: "RUA A", CrimeType: "ROUBO", Count: 1},
		{ID: "2", Date: ref, Hour: 21, HasHour: true, Neighborhood: "CENTRO", Street: "RUA B", CrimeType: "FURTO", Count: 1},
	}, dashboard.Options{})
	require.NoError(t, err)
	merged := table.Table{Headers: []string{"Nº Ocorrência", "DATA"}, Rows: [][]string{{"1", "2024-05-02"}, {"2"}}}

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteAllCSVs(dir, merged, d))

	inc := readAll(t, filepath.Join(dir, "incidentes.csv"))
	assert.Equal(t, [][]string{{"Nº Ocorrência", "DATA"}, {"1", "2024-05-02"}, {"2", ""}}, inc)

	kpis := readAll(t, filepath.Join(dir, "kpis.csv"))
	require.Len(t, kpis, 5)
	assert.Equal(t, []string{"Ocorrências (24h)", "2"}, kpis[1][:2])
	assert.Equal(t, "2024-05-02", kpis[1][3])

	locais := readAll(t, filepath.Join(dir, "top_locais.csv"))
	assert.Equal(t, []string{"1", "CENTRO", "2", "alto"}, locais[1])

	hourly := readAll(t, filepath.Join(dir, "previsao_horaria.csv"))
	assert.Len(t, hourly, 25)
	assert.Equal(t, []string{"20", "1.00", "alto"}, hourly[21])

	alerts := readAll(t, filepath.Join(dir, "alertas.csv"))
	assert.Equal(t, []string{"titulo", "descricao", "nivel"}, alerts[0])
	assert.Len(t, alerts, len(d.Alerts)+1)
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alertas.csv")
	require.NoError(t, WriteAlertCSV(path, []dashboard.Alert{{Title: "Pico", Description: "20h", Level: "alto"}}))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"titulo": "Pico", "descricao": "20h", "nivel": "alto"}}, rows)

	_, err = ReadCSV(filepath.Join(dir, "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
