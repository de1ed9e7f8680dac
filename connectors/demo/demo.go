package demo

import (
	"math/rand"
	"strconv"
	"time"

	"painel-preditivo/domain/table"
)

var (
	neighborhoods = []string{"Centro", "Aldeota", "Messejana", "Benfica", "Meireles", "Parangaba", "Montese"}
	streets       = []string{"Av. Duque de Caxias", "Rua Barão do Rio Branco", "Av. Bezerra de Menezes", "Rua Pedro I", "Av. Washington Soares"}
	crimes        = []string{"Roubo a transeunte", "Furto de celular", "Roubo de veículo", "Furto em residência", "Lesão corporal"}
	// evening-heavy hour distribution
	hourWeights = []int{2, 1, 1, 1, 1, 1, 2, 3, 4, 4, 4, 5, 6, 5, 5, 5, 6, 7, 9, 10, 10, 9, 7, 4}
)

// Tables returns simulated fact-date, fact-hour and fact-location tables with n incidents spread
// over the days before ref. The same seed and ref always produce the same data.
func Tables(ref time.Time, n int, seed int64) (dates, hours, places table.Table) {
	rng := rand.New(rand.NewSource(seed))
	const key = table.DefaultKeyColumn

	dates = table.Table{Name: "fato_data", Headers: []string{key, "DATA DO FATO"}}
	hours = table.Table{Name: "fato_hora", Headers: []string{key, "HORA DO FATO"}}
	places = table.Table{Name: "fato_local", Headers: []string{key, "BAIRRO", "LOGRADOURO", "NATUREZA"}}

	totalWeight := 0
	for _, w := range hourWeights {
		totalWeight += w
	}
	for i := 0; i < n; i++ {
		id := strconv.Itoa(100000 + i)
		// the first incident pins the reference date to ref
		back := rng.Intn(30)
		if i == 0 {
			back = 0
		}
		d := ref.AddDate(0, 0, -back)
		dates.Rows = append(dates.Rows, []string{id, d.Format("02/01/2006")})
		hours.Rows = append(hours.Rows, []string{id, strconv.Itoa(pickHour(rng, totalWeight)) + "h"})
		places.Rows = append(places.Rows, []string{
			id,
			skewed(rng, neighborhoods),
			skewed(rng, streets),
			skewed(rng, crimes),
		})
	}
	return dates, hours, places
}

func pickHour(rng *rand.Rand, total int) int {
	x := rng.Intn(total)
	for h, w := range hourWeights {
		if x < w {
			return h
		}
		x -= w
	}
	return len(hourWeights) - 1
}

// skewed favours the first entries so rankings have a clear leader.
func skewed(rng *rand.Rand, values []string) string {
	i := rng.Intn(len(values))
	j := rng.Intn(len(values))
	if j < i {
		i = j
	}
	return values[i]
}
