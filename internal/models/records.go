package models

import (
	"encoding/json"
	"time"
)

// DateLayout canonical calendar date format used as the index key everywhere
const DateLayout = "2006-01-02"

// Date calendar date in canonical YYYY-MM-DD form.
// Canonical dates compare correctly as strings.
type Date string

// EpochDate lower bound for unbounded ranges
const EpochDate Date = "1970-01-01"

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time returns midnight of the date in loc
func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, string(d), loc)
}

// AddDays shifts the date by n calendar days; an invalid date is returned unchanged
func (d Date) AddDays(n int) Date {
	t, err := d.Time(time.UTC)
	if err != nil {
		return d
	}
	return DateOf(t.AddDate(0, 0, n))
}

// Month returns the YYYY-MM prefix
func (d Date) Month() string {
	if len(d) < 7 {
		return ""
	}
	return string(d[:7])
}

func (d Date) String() string {
	return string(d)
}

// Dated is implemented by every record kind that can be indexed by date
type Dated interface {
	RecordDate() Date
}

// TimeOfDay measurement window
type TimeOfDay string

const (
	Morning     TimeOfDay = "morning"
	Afternoon   TimeOfDay = "afternoon"
	Evening     TimeOfDay = "evening"
	Night       TimeOfDay = "night"
	Unspecified TimeOfDay = "unspecified"
)

// Reading one home blood-pressure measurement.
// Nil fields were absent, non-numeric or non-positive in the source.
type Reading struct {
	Date      Date      `json:"date"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	Systolic  *int      `json:"systolic"`
	Diastolic *int      `json:"diastolic"`
	Pulse     *int      `json:"pulse"`
}

func (r Reading) RecordDate() Date { return r.Date }

// Flag named habit / risk / symptom
type Flag string

// FlagSet ordered set of flags (first-seen order)
type FlagSet []Flag

// Has reports whether f is in the set
func (s FlagSet) Has(f Flag) bool {
	for _, v := range s {
		if v == f {
			return true
		}
	}
	return false
}

// Add appends f if not already present
func (s *FlagSet) Add(f Flag) {
	if !s.Has(f) {
		*s = append(*s, f)
	}
}

// Union adds every flag of other, keeping first-seen order
func (s *FlagSet) Union(other FlagSet) {
	for _, f := range other {
		s.Add(f)
	}
}

func (s FlagSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Flag(s))
}

// FlagRecord one habit, risk-factor or symptom log entry
type FlagRecord struct {
	Date  Date    `json:"date"`
	Flags FlagSet `json:"flags"`
}

func (r FlagRecord) RecordDate() Date { return r.Date }

// WeightRecord body measurement log entry
type WeightRecord struct {
	Date     Date     `json:"date"`
	WeightKg *float64 `json:"weight_kg"`
	HeightCm *float64 `json:"height_cm"`
	BMI      *float64 `json:"bmi"`
}

func (r WeightRecord) RecordDate() Date { return r.Date }

// Snapshot immutable result of one fetch, replaced wholesale on refresh
type Snapshot struct {
	UserID    string          `json:"user_id"`
	Readings  []Reading       `json:"readings"`
	Habits    []FlagRecord    `json:"habits"`
	Risks     []FlagRecord    `json:"risks"`
	Symptoms  []FlagRecord    `json:"symptoms"`
	Weights   []WeightRecord  `json:"weights"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	Dropped   int             `json:"dropped"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// LatestWeight returns the last weight record of the ordered list
func (s *Snapshot) LatestWeight() *WeightRecord {
	if s == nil || len(s.Weights) == 0 {
		return nil
	}
	w := s.Weights[len(s.Weights)-1]
	return &w
}
