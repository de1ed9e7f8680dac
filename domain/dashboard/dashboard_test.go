package dashboard

import (
	"errors"
	"testing"
	"time"

	"painel-preditivo/domain/incident"
	"painel-preditivo/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func inc(date time.Time, hour int, hood, crime string) incident.Incident {
	return incident.Incident{Date: date, Hour: hour, HasHour: hour >= 0, Neighborhood: hood, Street: incident.Unknown, CrimeType: crime, Count: 1}
}

func kpiValue(t *testing.T, d *Dashboard, name string) any {
	t.Helper()
	for _, k := range d.KPIs {
		if k.Name == name {
			return k.Value
		}
	}
	t.Fatalf("kpi %q not found", name)
	return nil
}

func TestCompute_Empty(t *testing.T) {
	_, err := Compute(nil, Options{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCompute_24hReflectsOnlyMostRecentDay(t *testing.T) {
	tb := table.Table{
		Headers: []string{"Nº Ocorrência", "DATA DO FATO"},
		Rows:    [][]string{{"1", "2024-05-01"}, {"2", "2024-05-02"}},
	}
	res, err := incident.Normalize(tb, "")
	require.NoError(t, err)

	d, err := Compute(res.Incidents, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, kpiValue(t, d, kpi24h))
	assert.Equal(t, day(2024, 5, 2), d.ReferenceDate)
	assert.Equal(t, 2, d.Rows)
}

func TestWindow24h_IsRelativeToReference(t *testing.T) {
	ref := day(2024, 5, 10)
	in := []incident.Incident{
		inc(day(2024, 5, 10), 1, "A", "X"),
		inc(day(2024, 5, 10), 2, "A", "X"),
		inc(day(2024, 5, 9), 3, "A", "X"),
		inc(day(2024, 4, 1), 3, "A", "X"),
	}
	assert.Equal(t, 2.0, Window24h(in, ref))
}

func TestCompute_ProjectionAndAlerts(t *testing.T) {
	ref := day(2024, 5, 10)
	var in []incident.Incident
	for i := 0; i < 10; i++ {
		in = append(in, inc(ref, 22, "CENTRO", "ROUBO"))
	}
	in = append(in, inc(ref.AddDate(0, 0, -3), 8, "ALDEOTA", "FURTO"))

	d, err := Compute(in, Options{TopN: 3})
	require.NoError(t, err)

	assert.Equal(t, 10, kpiValue(t, d, kpi24h))
	assert.Equal(t, 6, kpiValue(t, d, kpiToday))
	assert.Equal(t, 1, kpiValue(t, d, kpiHighRisk))
	assert.Equal(t, NotAvailable, kpiValue(t, d, kpiAccuracy))

	require.Len(t, d.Alerts, 3)
	assert.Equal(t, "Volume acima do previsto", d.Alerts[0].Title)
	assert.Equal(t, "Horário crítico: 22h", d.Alerts[1].Title)
	assert.Equal(t, RiskHigh, d.Alerts[1].Level)
	assert.Contains(t, d.Alerts[2].Description, "CENTRO")
	assert.Contains(t, d.Alerts[2].Description, RiskHigh)
}

func TestHourlyProjection_AverageAndRisk(t *testing.T) {
	in := []incident.Incident{
		inc(day(2024, 1, 1), 10, "A", "X"),
		inc(day(2024, 1, 1), 10, "A", "X"),
		inc(day(2024, 1, 2), 10, "A", "X"),
		inc(day(2024, 1, 2), 10, "A", "X"),
		inc(day(2024, 1, 1), 3, "A", "X"),
		inc(day(2024, 1, 2), 3, "A", "X"),
		inc(day(2024, 1, 2), 20, "A", "X"),
		inc(day(2024, 1, 2), -1, "A", "X"),
	}
	h := HourlyProjection(in)
	require.Len(t, h, 24)

	assert.Equal(t, 2.0, h[10].Value)
	assert.Equal(t, 1.0, h[3].Value)
	assert.Equal(t, 0.5, h[20].Value)
	assert.Equal(t, 0.0, h[0].Value)

	peak := 2.0
	for _, p := range h {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.Equal(t, p.Value >= 0.7*peak, p.Risk == RiskHigh, "hour %d", p.Hour)
	}
	assert.Equal(t, RiskMedium, h[3].Risk)
	assert.Equal(t, RiskLow, h[20].Risk)
}

func TestRiskLabel(t *testing.T) {
	assert.Equal(t, RiskHigh, RiskLabel(7, 10))
	assert.Equal(t, RiskMedium, RiskLabel(4, 10))
	assert.Equal(t, RiskLow, RiskLabel(3.9, 10))
	assert.Equal(t, RiskLow, RiskLabel(0, 0))
}

func TestRank_StableTies(t *testing.T) {
	d := day(2024, 1, 1)
	in := []incident.Incident{
		inc(d, 1, "B", "X"),
		inc(d, 1, "A", "X"),
		inc(d, 1, "C", "X"),
		inc(d, 1, "C", "X"),
		inc(d, 1, "A", "X"),
		inc(d, 1, "B", "X"),
		inc(d, 1, "D", "X"),
	}
	r := Rank(in, func(i incident.Incident) (string, bool) { return i.Neighborhood, true })

	labels := make([]string, len(r))
	for i, x := range r {
		labels[i] = x.Label
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, labels)
	assert.Equal(t, RiskHigh, r[0].Risk)
	assert.Equal(t, RiskMedium, r[3].Risk)
}

func TestCompute_CrimeTypesTopN(t *testing.T) {
	d0 := day(2024, 1, 1)
	in := []incident.Incident{
		inc(d0, 1, "A", "ROUBO"), inc(d0, 1, "A", "ROUBO"), inc(d0, 1, "A", "ROUBO"),
		inc(d0, 1, "A", "FURTO"), inc(d0, 1, "A", "FURTO"),
		inc(d0, 1, "A", "HOMICIDIO"),
	}
	d, err := Compute(in, Options{TopN: 2})
	require.NoError(t, err)
	require.Len(t, d.CrimeTypes, 2)
	assert.Equal(t, Ranked{Label: "ROUBO", Count: 3, Risk: RiskHigh}, d.CrimeTypes[0])
	assert.Equal(t, Ranked{Label: "FURTO", Count: 2, Risk: RiskMedium}, d.CrimeTypes[1])
}

func TestPlaceholder(t *testing.T) {
	now := time.Now()
	d := Placeholder(errors.New("planilha vazia"), now)

	require.Len(t, d.KPIs, 4)
	assert.Equal(t, 0, d.KPIs[0].Value)
	assert.Equal(t, NotAvailable, d.KPIs[3].Value)
	require.Len(t, d.Alerts, 1)
	assert.Contains(t, d.Alerts[0].Description, "planilha vazia")
	assert.Equal(t, "planilha vazia", d.Err)
}
