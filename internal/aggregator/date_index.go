package aggregator

import (
	"sort"

	"healthlog/internal/models"
)

// DateIndex groups records by calendar date.
// Bucket contents keep input order; Dates keeps first-seen order.
type DateIndex[T models.Dated] struct {
	dates   []models.Date
	buckets map[models.Date][]T
}

// BuildIndex groups records on their date key in one pass
func BuildIndex[T models.Dated](records []T) *DateIndex[T] {
	ix := &DateIndex[T]{
		buckets: make(map[models.Date][]T),
	}
	for _, r := range records {
		d := r.RecordDate()
		if _, ok := ix.buckets[d]; !ok {
			ix.dates = append(ix.dates, d)
		}
		ix.buckets[d] = append(ix.buckets[d], r)
	}
	return ix
}

// Get returns the bucket for d (nil when absent)
func (ix *DateIndex[T]) Get(d models.Date) []T {
	if ix == nil {
		return nil
	}
	return ix.buckets[d]
}

// Has reports whether any record falls on d
func (ix *DateIndex[T]) Has(d models.Date) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.buckets[d]
	return ok
}

// Dates returns the date keys in first-seen order
func (ix *DateIndex[T]) Dates() []models.Date {
	if ix == nil {
		return nil
	}
	out := make([]models.Date, len(ix.dates))
	copy(out, ix.dates)
	return out
}

// SortedDates returns the date keys ascending
func (ix *DateIndex[T]) SortedDates() []models.Date {
	out := ix.Dates()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len number of distinct dates
func (ix *DateIndex[T]) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.dates)
}
