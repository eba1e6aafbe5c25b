package models

// Stage BP classification code produced by a threshold table
type Stage string

const (
	StageUnknown Stage = "unknown"

	// calendar / detail taxonomy
	StageNormal   Stage = "normal"
	StageElevated Stage = "elevated"
	StageOne      Stage = "stage1"
	StageTwo      Stage = "stage2"

	// report / table taxonomy (StageNormal shared)
	StageSlightlyHigh Stage = "slightly_high"
	StageHigh         Stage = "high"
	StageVeryHigh     Stage = "very_high"
	StageCrisis       Stage = "crisis"
)

// BP pressure pair plus pulse selected for a day
type BP struct {
	Systolic  *int `json:"sys"`
	Diastolic *int `json:"dia"`
	Pulse     *int `json:"pulse"`
}

// DailyEntry one merged, denormalized view of a calendar date
type DailyEntry struct {
	Date      Date      `json:"date"`
	BP        *BP       `json:"bp,omitempty"`
	Stage     Stage     `json:"stage"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	Risks     FlagSet   `json:"risks"`
	Habits    FlagSet   `json:"habits"`
	Symptoms  FlagSet   `json:"symptoms"`
	WeightKg  *float64  `json:"weight_kg,omitempty"`
	BMI       *float64  `json:"bmi,omitempty"`

	// Readings every reading of the day; only filled under the "all" merge policy
	Readings []Reading `json:"readings,omitempty"`
}

// HasReading reports whether the entry carries a pressure reading
func (e DailyEntry) HasReading() bool {
	return e.BP != nil
}
