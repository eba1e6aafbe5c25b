package aggregator

import (
	"encoding/json"
	"fmt"
	"math"

	"healthlog/internal/models"
)

// Field numeric reading field
type Field string

const (
	FieldSystolic  Field = "systolic"
	FieldDiastolic Field = "diastolic"
	FieldPulse     Field = "pulse"
)

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldSystolic, FieldDiastolic, FieldPulse:
		return Field(s), nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

// Of extracts the field from a reading
func (f Field) Of(r models.Reading) *int {
	switch f {
	case FieldSystolic:
		return r.Systolic
	case FieldDiastolic:
		return r.Diastolic
	case FieldPulse:
		return r.Pulse
	default:
		return nil
	}
}

func (f Field) value(r models.Reading) (float64, bool) {
	v := f.Of(r)
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

// Stats summary of one numeric field. Count == 0 is the empty sentinel and
// marshals as {"avg":"-","min":"-","max":"-","count":0}.
type Stats struct {
	Avg   int
	Min   float64
	Max   float64
	Count int
}

// IsEmpty reports the sentinel
func (s Stats) IsEmpty() bool {
	return s.Count == 0
}

func (s Stats) MarshalJSON() ([]byte, error) {
	if s.IsEmpty() {
		return []byte(`{"avg":"-","min":"-","max":"-","count":0}`), nil
	}
	return json.Marshal(struct {
		Avg   int     `json:"avg"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Count int     `json:"count"`
	}{s.Avg, s.Min, s.Max, s.Count})
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Avg   any `json:"avg"`
		Min   any `json:"min"`
		Max   any `json:"max"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Count == 0 {
		*s = Stats{}
		return nil
	}
	avg, ok1 := raw.Avg.(float64)
	lo, ok2 := raw.Min.(float64)
	hi, ok3 := raw.Max.(float64)
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("stats: non-numeric values with count %d", raw.Count)
	}
	*s = Stats{Avg: int(avg), Min: lo, Max: hi, Count: raw.Count}
	return nil
}

// ComputeStats drops missing, non-positive and NaN values, then averages the rest.
// The mean is rounded half toward +inf.
func ComputeStats[T any](records []T, value func(T) (float64, bool)) Stats {
	var (
		sum   float64
		stats Stats
	)
	for _, r := range records {
		v, ok := value(r)
		if !ok || math.IsNaN(v) || v <= 0 {
			continue
		}
		if stats.Count == 0 || v < stats.Min {
			stats.Min = v
		}
		if stats.Count == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		stats.Count++
	}
	if stats.Count == 0 {
		return Stats{}
	}
	stats.Avg = roundHalfUp(sum / float64(stats.Count))
	return stats
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ReadingStats stats over one reading field
func ReadingStats(readings []models.Reading, field Field) Stats {
	return ComputeStats(readings, field.value)
}

// SegmentedStats overall stats plus the two clinically primary windows.
// Afternoon, night and unspecified readings only count toward Overall.
type SegmentedStats struct {
	Overall Stats `json:"overall"`
	Morning Stats `json:"morning"`
	Evening Stats `json:"evening"`
}

// Segmented computes the same stats shape per measurement window
func Segmented(readings []models.Reading, field Field) SegmentedStats {
	var morning, evening []models.Reading
	for _, r := range readings {
		switch r.TimeOfDay {
		case models.Morning:
			morning = append(morning, r)
		case models.Evening:
			evening = append(evening, r)
		}
	}
	return SegmentedStats{
		Overall: ReadingStats(readings, field),
		Morning: ReadingStats(morning, field),
		Evening: ReadingStats(evening, field),
	}
}

// VitalStats segmented stats for the three reading fields
type VitalStats struct {
	Systolic  SegmentedStats `json:"systolic"`
	Diastolic SegmentedStats `json:"diastolic"`
	Pulse     SegmentedStats `json:"pulse"`
}

// BuildVitalStats computes segmented stats for sys, dia and pulse
func BuildVitalStats(readings []models.Reading) VitalStats {
	return VitalStats{
		Systolic:  Segmented(readings, FieldSystolic),
		Diastolic: Segmented(readings, FieldDiastolic),
		Pulse:     Segmented(readings, FieldPulse),
	}
}

// RecordingCounts how many readings were taken in each window
type RecordingCounts struct {
	Total   int `json:"total"`
	Morning int `json:"morning"`
	Evening int `json:"evening"`
	Other   int `json:"other"`
}

// CountByTimeOfDay tallies readings per window
func CountByTimeOfDay(readings []models.Reading) RecordingCounts {
	c := RecordingCounts{Total: len(readings)}
	for _, r := range readings {
		switch r.TimeOfDay {
		case models.Morning:
			c.Morning++
		case models.Evening:
			c.Evening++
		default:
			c.Other++
		}
	}
	return c
}
