package report

import (
	"sort"

	"healthlog/internal/classifier"
	"healthlog/internal/models"
)

// DefaultLimit rows in a printed report
const DefaultLimit = 20

// Row one classified reading of the report table
type Row struct {
	Date      models.Date      `json:"date"`
	TimeOfDay models.TimeOfDay `json:"time_of_day"`
	Systolic  *int             `json:"systolic"`
	Diastolic *int             `json:"diastolic"`
	Pulse     *int             `json:"pulse"`
	Stage     models.Stage     `json:"stage"`
	Label     string           `json:"label"`
}

// stage labels shown to the patient
var stageLabels = map[models.Stage]string{
	models.StageUnknown:      "-",
	models.StageNormal:       "ปกติ",
	models.StageElevated:     "สูงกว่าปกติ",
	models.StageOne:          "ความดันสูง ระยะ 1",
	models.StageTwo:          "ความดันสูง ระยะ 2",
	models.StageSlightlyHigh: "เริ่มสูง",
	models.StageHigh:         "สูง",
	models.StageVeryHigh:     "สูงมาก",
	models.StageCrisis:       "อันตราย",
}

// StageLabel display text for a stage
func StageLabel(s models.Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// BuildRows classifies readings with table and orders them newest first.
// Readings of the same date keep the latest-logged first. limit <= 0 keeps all rows.
func BuildRows(readings []models.Reading, table classifier.Table, limit int) []Row {
	rows := make([]Row, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		r := readings[i]
		stage := classifier.Classify(r.Systolic, r.Diastolic, table)
		rows = append(rows, Row{
			Date:      r.Date,
			TimeOfDay: r.TimeOfDay,
			Systolic:  r.Systolic,
			Diastolic: r.Diastolic,
			Pulse:     r.Pulse,
			Stage:     stage,
			Label:     StageLabel(stage),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
