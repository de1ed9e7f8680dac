package calculate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"painel-preditivo/connectors/config"
	ccsv "painel-preditivo/connectors/csv"
	"painel-preditivo/connectors/sources"
	"painel-preditivo/connectors/xlsx"
	"painel-preditivo/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	t   table.Table
	err error
}

func (s stubLoader) Load(context.Context) (table.Table, error) { return s.t, s.err }
func (s stubLoader) Key() string                               { return "" }

func TestCalculate_WritesSnapshots(t *testing.T) {
	out := t.TempDir()
	l := stubLoader{t: table.Table{
		Headers: []string{"Nº Ocorrência", "DATA DO FATO", "HORA DO FATO", "BAIRRO"},
		Rows: [][]string{
			{"1", "01/05/2024", "20", "Centro"},
			{"2", "02/05/2024", "20h", "Centro"},
		},
	}}

	d, err := Calculate(context.Background(), l, Options{OutDir: out, Workbook: true})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows)

	for _, name := range ccsv.Snapshots {
		assert.FileExists(t, filepath.Join(out, name))
	}

	b, err := os.ReadFile(filepath.Join(out, WorkbookName))
	require.NoError(t, err)
	kpis, err := xlsx.Parse(WorkbookName, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"nome", "valor", "descricao", "data_referencia"}, kpis.Headers)
	assert.Equal(t, "2024-05-02", kpis.Rows[0][3])
}

func TestCalculate_NoWorkbook(t *testing.T) {
	out := t.TempDir()
	c := config.Defaults()
	c.Source = "demo"
	l, err := sources.New(context.Background(), c)
	require.NoError(t, err)

	d, err := Calculate(context.Background(), l, Options{OutDir: out, TopN: 3, Now: time.Now()})
	require.NoError(t, err)
	assert.Len(t, d.TopLocations, 3)
	assert.NoFileExists(t, filepath.Join(out, WorkbookName))
	assert.FileExists(t, filepath.Join(out, "incidentes.csv"))
}

func TestCalculate_SourceError(t *testing.T) {
	_, err := Calculate(context.Background(), stubLoader{err: errors.New("offline")}, Options{OutDir: t.TempDir()})
	assert.EqualError(t, err, "offline")
}
