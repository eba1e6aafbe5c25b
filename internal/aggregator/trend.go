package aggregator

import "healthlog/internal/models"

// TrendPoint per-date mean of each field; nil when the day has no valid value
type TrendPoint struct {
	Date      models.Date `json:"date"`
	Systolic  *float64    `json:"systolic"`
	Diastolic *float64    `json:"diastolic"`
	Pulse     *float64    `json:"pulse"`
}

// Trend averages every reading of a date, dates ascending
func Trend(readings []models.Reading) []TrendPoint {
	ix := BuildIndex(readings)
	points := make([]TrendPoint, 0, ix.Len())
	for _, d := range ix.SortedDates() {
		bucket := ix.Get(d)
		points = append(points, TrendPoint{
			Date:      d,
			Systolic:  mean(bucket, FieldSystolic),
			Diastolic: mean(bucket, FieldDiastolic),
			Pulse:     mean(bucket, FieldPulse),
		})
	}
	return points
}

func mean(readings []models.Reading, field Field) *float64 {
	var sum float64
	n := 0
	for _, r := range readings {
		if v, ok := field.value(r); ok && v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
