package aggregator

import (
	"healthlog/internal/classifier"
	"healthlog/internal/models"
)

// WeightSummary latest body measurement with its BMI band
type WeightSummary struct {
	Date     models.Date          `json:"date"`
	WeightKg *float64             `json:"weight_kg"`
	HeightCm *float64             `json:"height_cm"`
	BMI      *float64             `json:"bmi"`
	Status   classifier.BMIStatus `json:"bmi_status"`
}

// HealthSummary everything the summary dashboard shows for one range
type HealthSummary struct {
	Preset      Preset          `json:"preset"`
	Range       DateRange       `json:"range"`
	DaysInRange int             `json:"days_in_range"`
	Counts      RecordingCounts `json:"counts"`
	Stats       VitalStats      `json:"stats"`
	Weight      *WeightSummary  `json:"weight"`
	TopHabits   []RankedFlag    `json:"top_habits"`
	TopRisks    []RankedFlag    `json:"top_risks"`
	TopSymptoms []RankedFlag    `json:"top_symptoms"`
}

// BuildHealthSummary filters every record kind to r and ranks flags against days.
// days <= 0 uses the preset's default denominator. Weight is the snapshot's latest
// record regardless of range.
func BuildHealthSummary(snap *models.Snapshot, p Preset, r DateRange, days int) HealthSummary {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	if days <= 0 {
		days = DaysInRange(p, r)
	}
	readings := Filter(snap.Readings, r)

	s := HealthSummary{
		Preset:      p,
		Range:       r,
		DaysInRange: days,
		Counts:      CountByTimeOfDay(readings),
		Stats:       BuildVitalStats(readings),
		TopHabits:   Rank(Filter(snap.Habits, r), days, TopHabits),
		TopRisks:    Rank(Filter(snap.Risks, r), days, TopRisks),
		TopSymptoms: Rank(Filter(snap.Symptoms, r), days, TopSymptoms),
	}
	if w := snap.LatestWeight(); w != nil {
		s.Weight = &WeightSummary{
			Date:     w.Date,
			WeightKg: w.WeightKg,
			HeightCm: w.HeightCm,
			BMI:      w.BMI,
			Status:   classifier.ClassifyBMI(w.BMI),
		}
	}
	return s
}
