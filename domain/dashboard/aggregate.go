package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"painel-preditivo/domain/incident"
	"painel-preditivo/domain/table"

	lo "github.com/samber/lo"
)

const (
	kpi24h      = "Ocorrências (24h)"
	kpiToday    = "Previsão para hoje"
	kpiHighRisk = "Locais de alto risco"
	kpiAccuracy = "Acurácia do modelo"
)

// Options tune the aggregation. Zero values fall back to defaults.
type Options struct {
	TopN int
	Now  time.Time
}

// DefaultTopN is the ranking length when Options.TopN is unset.
const DefaultTopN = 5

// Compute derives every dashboard view from the unified incident table. All time windows are
// relative to the latest incident date, not to wall-clock time.
func Compute(incidents []incident.Incident, opts Options) (*Dashboard, error) {
	if len(incidents) == 0 {
		return nil, ErrEmpty
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	ref := lo.MaxBy(incidents, func(a, b incident.Incident) bool { return a.Date.After(b.Date) }).Date

	last24 := Window24h(incidents, ref)
	todayRaw := lo.SumBy(lo.Filter(incidents, func(in incident.Incident, _ int) bool { return in.Date.Equal(ref) }),
		func(in incident.Incident) float64 { return in.Count })
	projected := int(projectionRatio * todayRaw)

	locations := Rank(incidents, func(in incident.Incident) (string, bool) { return in.Neighborhood, true })
	streets := Rank(incidents, func(in incident.Incident) (string, bool) { return in.Street, true })
	hours := Rank(incidents, func(in incident.Incident) (string, bool) {
		return HourLabel(in.Hour), in.HasHour
	})
	crimes := Rank(incidents, func(in incident.Incident) (string, bool) { return in.CrimeType, true })
	hourly := HourlyProjection(incidents)

	highRisk := lo.CountBy(locations, func(r Ranked) bool { return r.Risk == RiskHigh })

	d := &Dashboard{
		GeneratedAt:   opts.Now,
		ReferenceDate: ref,
		Rows:          len(incidents),
		KPIs: []KPI{
			{Name: kpi24h, Value: whole(last24), Description: "Registros nas 24h anteriores à data mais recente"},
			{Name: kpiToday, Value: projected, Description: "Estimativa simples: 60% das ocorrências do dia de referência"},
			{Name: kpiHighRisk, Value: highRisk, Description: describeTop(locations, 3)},
			{Name: kpiAccuracy, Value: NotAvailable, Description: "Sem modelo preditivo treinado"},
		},
		TopLocations: top(locations, opts.TopN),
		TopStreets:   top(streets, opts.TopN),
		TopHours:     top(hours, opts.TopN),
		Hourly:       hourly,
		CrimeTypes:   top(crimes, opts.TopN),
	}
	d.Alerts = alerts(last24, projected, hours, hourly, locations)
	return d, nil
}

// Window24h sums counts dated in (ref - 1 day, ref + 1 day).
func Window24h(incidents []incident.Incident, ref time.Time) float64 {
	from, to := ref.AddDate(0, 0, -1), ref.AddDate(0, 0, 1)
	return lo.SumBy(incidents, func(in incident.Incident) float64 {
		if in.Date.After(from) && in.Date.Before(to) {
			return in.Count
		}
		return 0
	})
}

// HourlyProjection returns, for each hour 0-23, the average daily count across all observed days.
func HourlyProjection(incidents []incident.Incident) []HourProjection {
	days := len(lo.UniqBy(incidents, func(in incident.Incident) time.Time { return in.Date }))
	var sums [24]float64
	for _, in := range incidents {
		if in.HasHour {
			sums[in.Hour] += in.Count
		}
	}
	out := make([]HourProjection, 24)
	for h := range out {
		v := 0.0
		if days > 0 {
			v = sums[h] / float64(days)
		}
		out[h] = HourProjection{Hour: h, Value: v}
	}
	peak := lo.MaxBy(out, func(a, b HourProjection) bool { return a.Value > b.Value }).Value
	for i := range out {
		out[i].Risk = RiskLabel(out[i].Value, peak)
	}
	return out
}

// Rank sums counts per key, descending; ties keep first-encounter order. Rows for which key
// reports false are skipped. Risk is relative to the top entry.
func Rank(incidents []incident.Incident, key func(incident.Incident) (string, bool)) []Ranked {
	index := map[string]int{}
	var out []Ranked
	for _, in := range incidents {
		k, ok := key(in)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, Ranked{Label: k})
		}
		out[i].Count += in.Count
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > 0 {
		peak := out[0].Count
		for i := range out {
			out[i].Risk = RiskLabel(out[i].Count, peak)
		}
	}
	return out
}

// HourLabel renders an hour of the day as "14h".
func HourLabel(h int) string { return fmt.Sprintf("%02dh", h) }

func top(r []Ranked, n int) []Ranked {
	if len(r) > n {
		return r[:n]
	}
	return r
}

func whole(f float64) int { return int(math.Round(f)) }

func describeTop(r []Ranked, n int) string {
	labels := lo.Map(top(r, n), func(x Ranked, _ int) string { return x.Label })
	if len(labels) == 0 {
		return ""
	}
	return "Principais: " + strings.Join(labels, ", ")
}

func alerts(last24 float64, projected int, hours []Ranked, hourly []HourProjection, locations []Ranked) []Alert {
	var out []Alert
	if last24 > surgeRatio*float64(projected) {
		out = append(out, Alert{
			Title:       "Volume acima do previsto",
			Description: fmt.Sprintf("%d ocorrências nas últimas 24h, acima de 1,3x a previsão para hoje (%d).", whole(last24), projected),
			Level:       RiskHigh,
		})
	}
	if len(hours) > 0 {
		h := hours[0]
		risk := h.Risk
		if hp, ok := lo.Find(hourly, func(p HourProjection) bool { return HourLabel(p.Hour) == h.Label }); ok {
			risk = hp.Risk
		}
		out = append(out, Alert{
			Title:       "Horário crítico: " + h.Label,
			Description: fmt.Sprintf("O horário das %s concentra %d ocorrências. Risco %s: reforçar o patrulhamento.", h.Label, whole(h.Count), risk),
			Level:       risk,
		})
	}
	if len(locations) > 0 {
		l := locations[0]
		out = append(out, Alert{
			Title:       "Local crítico: " + l.Label,
			Description: fmt.Sprintf("%s lidera com %d ocorrências. Risco %s.", l.Label, whole(l.Count), l.Risk),
			Level:       l.Risk,
		})
	}
	return out
}

// Build normalizes a merged table and computes the dashboard from it.
func Build(t table.Table, key string, opts Options) (*Dashboard, error) {
	res, err := incident.Normalize(t, key)
	if err != nil {
		return nil, err
	}
	d, err := Compute(res.Incidents, opts)
	if err != nil {
		return nil, fmt.Errorf("%s (%d linhas descartadas por data inválida): %w", t.Name, res.Dropped, err)
	}
	return d, nil
}
