package normalizer

import (
	"errors"
	"testing"

	"healthlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullPayload(t *testing.T) {
	payload := []byte(`{
		"profile": {"xp_total": 120, "current_streak": 3},
		"records": [
			{"date": "2024-01-01", "period": "เช้า", "systolic": "118", "diastolic": 76, "pulse": 70},
			{"date": "2024-01-01", "time": "evening", "sys": 150, "dia": 95, "pulse": "abc"},
			{"date": "2024-01-02", "time": "ช่วงกลางคืน", "systolic": 0, "diastolic": -5}
		],
		"good_habits": [
			{"date": "2024-01-01", "meditation": true, "high_veggies": false, "exercise_bracket": "30-60"},
			{"date": "2024-01-02", "exercise_bracket": "none"}
		],
		"bad_habits": [
			{"date": "2024-01-01", "smoking": true, "high_salt": "true", "poor_sleep": 0}
		],
		"symptom_logs": [
			{"date": "2024-01-01", "dizziness": true, "blurred_vision": 1}
		],
		"weight_logs": [
			{"date": "2024-01-01", "weight": 72.5, "height": "170", "bmi": 25.1}
		]
	}`)

	snap, err := Normalize(payload)
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Len(t, snap.Readings, 3)
	first := snap.Readings[0]
	assert.Equal(t, models.Date("2024-01-01"), first.Date)
	assert.Equal(t, models.Morning, first.TimeOfDay)
	require.NotNil(t, first.Systolic)
	assert.Equal(t, 118, *first.Systolic)
	assert.Equal(t, 76, *first.Diastolic)
	assert.Equal(t, 70, *first.Pulse)

	second := snap.Readings[1]
	assert.Equal(t, models.Evening, second.TimeOfDay)
	assert.Equal(t, 150, *second.Systolic)
	assert.Nil(t, second.Pulse, "non-numeric pulse becomes nil")

	third := snap.Readings[2]
	assert.Equal(t, models.Night, third.TimeOfDay)
	assert.Nil(t, third.Systolic, "zero is missing, not data")
	assert.Nil(t, third.Diastolic)

	require.Len(t, snap.Habits, 2)
	assert.Equal(t, models.FlagSet{models.HabitMeditation, models.HabitExercise}, snap.Habits[0].Flags)
	assert.Empty(t, snap.Habits[1].Flags)

	require.Len(t, snap.Risks, 1)
	assert.Equal(t, models.FlagSet{models.RiskSalty, models.RiskSmoking}, snap.Risks[0].Flags)

	require.Len(t, snap.Symptoms, 1)
	assert.Equal(t, models.FlagSet{models.SymptomDizzy, models.SymptomBlur}, snap.Symptoms[0].Flags)

	require.Len(t, snap.Weights, 1)
	assert.InDelta(t, 72.5, *snap.Weights[0].WeightKg, 0.001)
	assert.InDelta(t, 170, *snap.Weights[0].HeightCm, 0.001)
	assert.InDelta(t, 25.1, *snap.Weights[0].BMI, 0.001)

	assert.JSONEq(t, `{"xp_total":120,"current_streak":3}`, string(snap.Profile))
	assert.Equal(t, 0, snap.Dropped)
}

func TestNormalize_BareArrayIsReadings(t *testing.T) {
	snap, err := Normalize([]byte(`[{"date":"2024-03-05","systolic":121,"diastolic":79}]`))
	require.NoError(t, err)
	require.Len(t, snap.Readings, 1)
	assert.Equal(t, models.Unspecified, snap.Readings[0].TimeOfDay)
	assert.Empty(t, snap.Habits)
	assert.Empty(t, snap.Weights)
}

func TestNormalize_MissingSectionsAreEmpty(t *testing.T) {
	snap, err := Normalize([]byte(`{"records": null}`))
	require.NoError(t, err)
	assert.NotNil(t, snap.Readings)
	assert.Empty(t, snap.Readings)
	assert.Empty(t, snap.Symptoms)
}

func TestNormalize_DropsUndatedAndNonObjectRecords(t *testing.T) {
	snap, err := Normalize([]byte(`{"records": [
		{"systolic": 120},
		"garbage",
		{"date": "not a date", "systolic": 120},
		{"date": "2024-01-01", "systolic": 120}
	]}`))
	require.NoError(t, err)
	assert.Len(t, snap.Readings, 1)
	assert.Equal(t, 3, snap.Dropped)
}

func TestNormalize_MalformedPayload(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"invalid json":   `{"records": [`,
		"string root":    `"hello"`,
		"number root":    `42`,
		"null root":      `null`,
		"section object": `{"records": {"date": "2024-01-01"}}`,
		"trailing bytes": `{"records": []} garbage`,
		"two values":     `{"records": []}{"records": []}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := Normalize([]byte(payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))
			assert.Nil(t, snap)
		})
	}
}

func TestNormalize_TrailingWhitespace(t *testing.T) {
	snap, err := Normalize([]byte("{\"records\": []}\n  \n"))
	require.NoError(t, err)
	assert.Empty(t, snap.Readings)
}

func TestPositiveInt(t *testing.T) {
	assert.Nil(t, positiveInt("NaN"))
	assert.Nil(t, positiveInt(""))
	assert.Nil(t, positiveInt(true))
	assert.Nil(t, positiveInt(0.2))
	require.NotNil(t, positiveInt("120.6"))
	assert.Equal(t, 121, *positiveInt("120.6"))
}

func TestTruthyAndBracket(t *testing.T) {
	assert.True(t, truthy(true))
	assert.True(t, truthy("Yes"))
	assert.True(t, truthy(float64(1)))
	assert.False(t, truthy("false"))
	assert.False(t, truthy(""))
	assert.False(t, truthy(nil))

	assert.True(t, bracketSet("15-30"))
	assert.False(t, bracketSet("none"))
	assert.False(t, bracketSet(" None "))
	assert.False(t, bracketSet(""))
}
