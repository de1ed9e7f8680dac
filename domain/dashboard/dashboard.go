package dashboard

import (
	"errors"
	"time"
)

// ErrEmpty is returned when there is nothing to aggregate.
var ErrEmpty = errors.New("no incidents to aggregate")

// Risk labels shown on the dashboard.
const (
	RiskHigh   = "alto"
	RiskMedium = "médio"
	RiskLow    = "baixo"
)

const (
	highRatio       = 0.7
	mediumRatio     = 0.4
	projectionRatio = 0.6 // placeholder "forecast" for today, not a model output
	surgeRatio      = 1.3

	// NotAvailable is shown where a value is a stand-in (accuracy) or could not be computed.
	NotAvailable = "--"
)

// KPI is a named value shown as a card.
type KPI struct {
	Name        string `json:"nome"`
	Value       any    `json:"valor"`
	Description string `json:"descricao,omitempty"`
}

// Ranked is one entry of a frequency ranking.
type Ranked struct {
	Label string  `json:"label"`
	Count float64 `json:"count"`
	Risk  string  `json:"risco"`
}

// HourProjection is the average daily count observed at one hour of the day.
type HourProjection struct {
	Hour  int     `json:"hora"`
	Value float64 `json:"valor"`
	Risk  string  `json:"risco"`
}

// Alert is a free-text notice rendered on top of the page.
type Alert struct {
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
	Level       string `json:"nivel"`
}

// Dashboard is everything the presenter needs for one render.
type Dashboard struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	ReferenceDate time.Time        `json:"reference_date"`
	Rows          int              `json:"rows"`
	KPIs          []KPI            `json:"kpis"`
	TopLocations  []Ranked         `json:"top_locais"`
	TopStreets    []Ranked         `json:"top_ruas"`
	TopHours      []Ranked         `json:"top_horarios"`
	Hourly        []HourProjection `json:"previsao_horaria"`
	CrimeTypes    []Ranked         `json:"tipos_crime"`
	Alerts        []Alert          `json:"alertas"`
	Err           string           `json:"erro,omitempty"`
}

// Placeholder is the result shown when the data pipeline fails: zeroed KPIs and one alert
// describing the error.
func Placeholder(err error, now time.Time) *Dashboard {
	msg := "erro desconhecido"
	if err != nil {
		msg = err.Error()
	}
	return &Dashboard{
		GeneratedAt: now,
		KPIs: []KPI{
			{Name: kpi24h, Value: 0},
			{Name: kpiToday, Value: 0},
			{Name: kpiHighRisk, Value: 0},
			{Name: kpiAccuracy, Value: NotAvailable},
		},
		Alerts: []Alert{{
			Title:       "Falha ao carregar os dados",
			Description: "Não foi possível calcular os indicadores: " + msg,
			Level:       RiskHigh,
		}},
		Err: msg,
	}
}

// RiskLabel thresholds value against 70% / 40% of peak. Without a positive peak everything is low.
func RiskLabel(value, peak float64) string {
	switch {
	case peak <= 0:
		return RiskLow
	case value >= highRatio*peak:
		return RiskHigh
	case value >= mediumRatio*peak:
		return RiskMedium
	default:
		return RiskLow
	}
}
