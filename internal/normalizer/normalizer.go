// Package normalizer turns the raw upstream dashboard payload into typed records.
//
// Only a structurally invalid payload is an error. Individual records with missing
// or invalid fields are repaired locally (nil numbers, Unspecified time of day) or,
// when they carry no usable date, dropped and counted in Snapshot.Dropped.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"healthlog/internal/models"
)

// ErrMalformedPayload the payload root (or one of its sections) has the wrong shape
var ErrMalformedPayload = errors.New("malformed payload")

// payload section keys
const (
	sectionProfile  = "profile"
	sectionReadings = "records"
	sectionHabits   = "good_habits"
	sectionRisks    = "bad_habits"
	sectionSymptoms = "symptom_logs"
	sectionWeights  = "weight_logs"
)

var dateKeys = []string{"date", "log_date", "created_at"}

// Normalize parses the upstream payload. The root may be the full object form
// ({profile, records, good_habits, ...}) or a bare array of BP readings.
func Normalize(data []byte) (*models.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformedPayload)
	}

	snap := &models.Snapshot{
		Readings: []models.Reading{},
		Habits:   []models.FlagRecord{},
		Risks:    []models.FlagRecord{},
		Symptoms: []models.FlagRecord{},
		Weights:  []models.WeightRecord{},
	}

	switch v := root.(type) {
	case []any:
		snap.Readings = normalizeReadings(v, snap)
		return snap, nil
	case map[string]any:
		return normalizeObject(v, snap)
	default:
		return nil, fmt.Errorf("%w: root is %T, want object or array", ErrMalformedPayload, root)
	}
}

func normalizeObject(root map[string]any, snap *models.Snapshot) (*models.Snapshot, error) {
	if p, ok := root[sectionProfile]; ok && p != nil {
		raw, err := json.Marshal(p)
		if err == nil {
			snap.Profile = raw
		}
	}

	readings, err := section(root, sectionReadings)
	if err != nil {
		return nil, err
	}
	habits, err := section(root, sectionHabits)
	if err != nil {
		return nil, err
	}
	risks, err := section(root, sectionRisks)
	if err != nil {
		return nil, err
	}
	symptoms, err := section(root, sectionSymptoms)
	if err != nil {
		return nil, err
	}
	weights, err := section(root, sectionWeights)
	if err != nil {
		return nil, err
	}

	snap.Readings = normalizeReadings(readings, snap)
	snap.Habits = normalizeFlags(habits, HabitRules, snap)
	snap.Risks = normalizeFlags(risks, RiskRules, snap)
	snap.Symptoms = normalizeFlags(symptoms, SymptomRules, snap)
	snap.Weights = normalizeWeights(weights, snap)
	return snap, nil
}

// section absent or null means empty; any other non-array is structural damage
func section(root map[string]any, key string) ([]any, error) {
	v, ok := root[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want array", ErrMalformedPayload, key, v)
	}
	return items, nil
}

// recordDate returns the object form and canonical date of one item, or false
// when the item must be dropped
func recordDate(item any) (map[string]any, models.Date, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return nil, "", false
	}
	date, err := ParseDate(lookupString(m, dateKeys...))
	if err != nil {
		return nil, "", false
	}
	return m, date, true
}

func normalizeReadings(items []any, snap *models.Snapshot) []models.Reading {
	out := make([]models.Reading, 0, len(items))
	for _, item := range items {
		m, date, ok := recordDate(item)
		if !ok {
			snap.Dropped++
			continue
		}
		r := models.Reading{
			Date:      date,
			TimeOfDay: ParseTimeOfDay(lookupString(m, "period", "time", "time_of_day")),
		}
		if v, ok := lookup(m, "systolic", "sys"); ok {
			r.Systolic = positiveInt(v)
		}
		if v, ok := lookup(m, "diastolic", "dia"); ok {
			r.Diastolic = positiveInt(v)
		}
		if v, ok := lookup(m, "pulse", "heart_rate", "hr"); ok {
			r.Pulse = positiveInt(v)
		}
		out = append(out, r)
	}
	return out
}

func normalizeFlags(items []any, rules []FlagRule, snap *models.Snapshot) []models.FlagRecord {
	out := make([]models.FlagRecord, 0, len(items))
	for _, item := range items {
		m, date, ok := recordDate(item)
		if !ok {
			snap.Dropped++
			continue
		}
		out = append(out, models.FlagRecord{Date: date, Flags: extractFlags(m, rules)})
	}
	return out
}

func normalizeWeights(items []any, snap *models.Snapshot) []models.WeightRecord {
	out := make([]models.WeightRecord, 0, len(items))
	for _, item := range items {
		m, date, ok := recordDate(item)
		if !ok {
			snap.Dropped++
			continue
		}
		w := models.WeightRecord{Date: date}
		if v, ok := lookup(m, "weight", "weight_kg"); ok {
			w.WeightKg = positiveFloat(v)
		}
		if v, ok := lookup(m, "height", "height_cm"); ok {
			w.HeightCm = positiveFloat(v)
		}
		if v, ok := lookup(m, "bmi"); ok {
			w.BMI = positiveFloat(v)
		}
		out = append(out, w)
	}
	return out
}
