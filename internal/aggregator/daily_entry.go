package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"healthlog/internal/classifier"
	"healthlog/internal/models"
)

// MergePolicy which reading(s) of a day become the entry's BP
type MergePolicy string

const (
	FirstWins MergePolicy = "first-wins"
	LastWins  MergePolicy = "last-wins"
	// All keeps every reading of the day; BP is the per-field mean
	All MergePolicy = "all"
)

// ParseMergePolicy empty means FirstWins
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FirstWins:
		return FirstWins, nil
	case LastWins:
		return LastWins, nil
	case All:
		return All, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", s)
	}
}

// WeightScope which weight record is attached to an entry
type WeightScope string

const (
	// WeightLatestOverall the last record of the whole ordered weight list
	WeightLatestOverall WeightScope = "latest-overall"
	// WeightSameDay the last record dated on the entry's own day
	WeightSameDay WeightScope = "same-day"
)

// MergeOptions zero value is FirstWins / latest-overall / calendar table
type MergeOptions struct {
	Policy      MergePolicy
	WeightScope WeightScope
	Table       classifier.Table
}

func (o MergeOptions) withDefaults() MergeOptions {
	if o.Policy == "" {
		o.Policy = FirstWins
	}
	if o.WeightScope == "" {
		o.WeightScope = WeightLatestOverall
	}
	if len(o.Table.Rules) == 0 && o.Table.Floor == "" {
		o.Table = classifier.Calendar
	}
	return o
}

// Merger builds DailyEntry views over one snapshot
type Merger struct {
	opts     MergeOptions
	readings *DateIndex[models.Reading]
	habits   *DateIndex[models.FlagRecord]
	risks    *DateIndex[models.FlagRecord]
	symptoms *DateIndex[models.FlagRecord]
	weights  *DateIndex[models.WeightRecord]
	latest   *models.WeightRecord
	dates    []models.Date
}

// NewMerger indexes every record kind of snap once
func NewMerger(snap *models.Snapshot, opts MergeOptions) *Merger {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	m := &Merger{
		opts:     opts.withDefaults(),
		readings: BuildIndex(snap.Readings),
		habits:   BuildIndex(snap.Habits),
		risks:    BuildIndex(snap.Risks),
		symptoms: BuildIndex(snap.Symptoms),
		weights:  BuildIndex(snap.Weights),
		latest:   snap.LatestWeight(),
	}

	seen := make(map[models.Date]bool)
	collect := func(ds []models.Date) {
		for _, d := range ds {
			if !seen[d] {
				seen[d] = true
				m.dates = append(m.dates, d)
			}
		}
	}
	collect(m.readings.Dates())
	collect(m.habits.Dates())
	collect(m.risks.Dates())
	collect(m.symptoms.Dates())
	if m.opts.WeightScope == WeightSameDay {
		collect(m.weights.Dates())
	}
	sort.Slice(m.dates, func(i, j int) bool { return m.dates[i] < m.dates[j] })
	return m
}

// Dates every date that has at least one record, ascending
func (m *Merger) Dates() []models.Date {
	out := make([]models.Date, len(m.dates))
	copy(out, m.dates)
	return out
}

// MergeDay builds the entry for d; ok is false when nothing is logged that day
func (m *Merger) MergeDay(d models.Date) (models.DailyEntry, bool) {
	entry := models.DailyEntry{
		Date:      d,
		Stage:     models.StageUnknown,
		TimeOfDay: models.Unspecified,
		Risks:     models.FlagSet{},
		Habits:    models.FlagSet{},
		Symptoms:  models.FlagSet{},
	}

	found := false
	if readings := m.readings.Get(d); len(readings) > 0 {
		found = true
		m.applyReadings(&entry, readings)
	}
	for _, kind := range []struct {
		ix  *DateIndex[models.FlagRecord]
		dst *models.FlagSet
	}{
		{m.habits, &entry.Habits},
		{m.risks, &entry.Risks},
		{m.symptoms, &entry.Symptoms},
	} {
		for _, rec := range kind.ix.Get(d) {
			found = true
			kind.dst.Union(rec.Flags)
		}
	}

	var w *models.WeightRecord
	switch m.opts.WeightScope {
	case WeightSameDay:
		if ws := m.weights.Get(d); len(ws) > 0 {
			found = true
			last := ws[len(ws)-1]
			w = &last
		}
	default:
		w = m.latest
	}
	if w != nil {
		entry.WeightKg = w.WeightKg
		entry.BMI = w.BMI
	}
	return entry, found
}

func (m *Merger) applyReadings(entry *models.DailyEntry, readings []models.Reading) {
	var bp models.BP
	switch m.opts.Policy {
	case LastWins:
		r := readings[len(readings)-1]
		bp = models.BP{Systolic: r.Systolic, Diastolic: r.Diastolic, Pulse: r.Pulse}
		entry.TimeOfDay = r.TimeOfDay
	case All:
		bp = models.BP{
			Systolic:  meanInt(readings, FieldSystolic),
			Diastolic: meanInt(readings, FieldDiastolic),
			Pulse:     meanInt(readings, FieldPulse),
		}
		entry.TimeOfDay = readings[0].TimeOfDay
		entry.Readings = append([]models.Reading(nil), readings...)
	default:
		r := readings[0]
		bp = models.BP{Systolic: r.Systolic, Diastolic: r.Diastolic, Pulse: r.Pulse}
		entry.TimeOfDay = r.TimeOfDay
	}
	entry.BP = &bp
	entry.Stage = classifier.Classify(bp.Systolic, bp.Diastolic, m.opts.Table)
}

func meanInt(readings []models.Reading, field Field) *int {
	s := ReadingStats(readings, field)
	if s.IsEmpty() {
		return nil
	}
	v := s.Avg
	return &v
}

// MergeRange one entry per logged date inside r, ascending
func (m *Merger) MergeRange(r DateRange) []models.DailyEntry {
	out := make([]models.DailyEntry, 0)
	for _, d := range m.dates {
		if !r.Contains(d) {
			continue
		}
		if e, ok := m.MergeDay(d); ok {
			out = append(out, e)
		}
	}
	return out
}

// MergeAll one entry per logged date, ascending
func (m *Merger) MergeAll() []models.DailyEntry {
	return m.MergeRange(DateRange{Start: models.EpochDate, End: "9999-12-31"})
}

const monthLayout = "2006-01"

// MonthRange first..last day of a YYYY-MM month
func MonthRange(month string) (DateRange, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return DateRange{
		Start: models.DateOf(t),
		End:   models.DateOf(t.AddDate(0, 1, -1)),
	}, nil
}

// ShiftMonth moves a YYYY-MM month by delta months, rolling the year over
func ShiftMonth(month string, delta int) (string, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t.AddDate(0, delta, 0).Format(monthLayout), nil
}
