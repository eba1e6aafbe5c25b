package aggregator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"healthlog/internal/models"
)

// ErrUnknownPreset the preset name is not one of the supported ranges
var ErrUnknownPreset = errors.New("unknown range preset")

// DateRange inclusive on both ends
type DateRange struct {
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`
}

// Contains reports start <= d <= end
func (r DateRange) Contains(d models.Date) bool {
	return d >= r.Start && d <= r.End
}

// Days inclusive number of calendar days; 0 for an inverted range
func (r DateRange) Days() int {
	start, err1 := r.Start.Time(time.UTC)
	end, err2 := r.End.Time(time.UTC)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Preset named range shorthand resolved at query time
type Preset string

const (
	PresetThisMonth   Preset = "this-month"
	PresetThreeMonths Preset = "3-months"
	PresetAllTime     Preset = "all-time"
	PresetCustom      Preset = "custom"
)

// ParsePreset accepts the preset names plus "all"; empty means this-month
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PresetThisMonth):
		return PresetThisMonth, nil
	case string(PresetThreeMonths):
		return PresetThreeMonths, nil
	case string(PresetAllTime), "all":
		return PresetAllTime, nil
	case string(PresetCustom):
		return PresetCustom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
	}
}

// ResolvePreset turns a preset into concrete bounds relative to now (in now's location).
// start and end are only read for PresetCustom; an absent bound defaults to epoch / today.
func ResolvePreset(p Preset, now time.Time, start, end *models.Date) (DateRange, error) {
	today := models.DateOf(now)
	switch p {
	case PresetThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return DateRange{Start: models.DateOf(first), End: models.DateOf(last)}, nil
	case PresetThreeMonths:
		first := time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: models.DateOf(first), End: today}, nil
	case PresetAllTime:
		return DateRange{Start: models.EpochDate, End: today}, nil
	case PresetCustom:
		r := DateRange{Start: models.EpochDate, End: today}
		if start != nil && *start != "" {
			r.Start = *start
		}
		if end != nil && *end != "" {
			r.End = *end
		}
		return r, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}

// Filter keeps records dated inside r, preserving order. Idempotent.
func Filter[T models.Dated](records []T, r DateRange) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.RecordDate()) {
			out = append(out, rec)
		}
	}
	return out
}

// fixed denominators used by the summary progress bars
const (
	daysThisMonth   = 31
	daysThreeMonths = 90
	daysAllTime     = 365
)

// DaysInRange denominator for summary ratios. Custom ranges use their own length.
func DaysInRange(p Preset, r DateRange) int {
	switch p {
	case PresetThisMonth:
		return daysThisMonth
	case PresetThreeMonths:
		return daysThreeMonths
	case PresetAllTime:
		return daysAllTime
	default:
		return r.Days()
	}
}
