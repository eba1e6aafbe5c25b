package aggregator

import (
	"math"
	"sort"

	"healthlog/internal/models"
)

// result sizes of the summary cards
const (
	TopHabits   = 3
	TopRisks    = 3
	TopSymptoms = 4
)

// RankedFlag frequency of one flag over a range. Ratio is count/days capped at 1.
type RankedFlag struct {
	Name  models.Flag `json:"name"`
	Count int         `json:"count"`
	Ratio float64     `json:"ratio"`
}

// Percent ratio as a percentage rounded to one decimal
func (r RankedFlag) Percent() float64 {
	return math.Round(r.Ratio*1000) / 10
}

// Rank counts every flag over records (one per record), orders by count descending
// with ties kept in first-seen order, and returns the top n.
func Rank(records []models.FlagRecord, days, n int) []RankedFlag {
	counts := make(map[models.Flag]int)
	var order []models.Flag
	for _, rec := range records {
		for _, f := range rec.Flags {
			if _, ok := counts[f]; !ok {
				order = append(order, f)
			}
			counts[f]++
		}
	}

	ranked := make([]RankedFlag, 0, len(order))
	for _, f := range order {
		ranked = append(ranked, RankedFlag{
			Name:  f,
			Count: counts[f],
			Ratio: ratio(counts[f], days),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func ratio(count, days int) float64 {
	if days <= 0 {
		return 0
	}
	return math.Min(float64(count)/float64(days), 1)
}
