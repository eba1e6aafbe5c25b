package normalizer

import "healthlog/internal/models"

// FlagRule maps one boolean-ish source field to a named flag
type FlagRule struct {
	Field string
	Flag  models.Flag
	IsSet func(v any) bool
}

// HabitRules good_habits source fields
var HabitRules = []FlagRule{
	{Field: "meditation", Flag: models.HabitMeditation, IsSet: truthy},
	{Field: "high_veggies", Flag: models.HabitVeggies, IsSet: truthy},
	{Field: "exercise_bracket", Flag: models.HabitExercise, IsSet: bracketSet},
}

// RiskRules bad_habits source fields
var RiskRules = []FlagRule{
	{Field: "forgot_meds", Flag: models.RiskForgotMeds, IsSet: truthy},
	{Field: "high_salt", Flag: models.RiskSalty, IsSet: truthy},
	{Field: "poor_sleep", Flag: models.RiskSleep, IsSet: truthy},
	{Field: "alcohol_intake", Flag: models.RiskAlcohol, IsSet: truthy},
	{Field: "smoking", Flag: models.RiskSmoking, IsSet: truthy},
	{Field: "high_stress", Flag: models.RiskStress, IsSet: truthy},
}

// SymptomRules symptom_logs source fields
var SymptomRules = []FlagRule{
	{Field: "fatigue", Flag: models.SymptomFatigue, IsSet: truthy},
	{Field: "chest_pain", Flag: models.SymptomChestPain, IsSet: truthy},
	{Field: "breathlessness", Flag: models.SymptomBreathlessness, IsSet: truthy},
	{Field: "weak_limbs", Flag: models.SymptomWeakLimbs, IsSet: truthy},
	{Field: "headache", Flag: models.SymptomHeadache, IsSet: truthy},
	{Field: "dizziness", Flag: models.SymptomDizzy, IsSet: truthy},
	{Field: "blurred_vision", Flag: models.SymptomBlur, IsSet: truthy},
	{Field: "nosebleed", Flag: models.SymptomNosebleed, IsSet: truthy},
	{Field: "swelling", Flag: models.SymptomSwelling, IsSet: truthy},
}

func extractFlags(m map[string]any, rules []FlagRule) models.FlagSet {
	flags := models.FlagSet{}
	for _, rule := range rules {
		v, ok := m[rule.Field]
		if !ok || v == nil {
			continue
		}
		if rule.IsSet(v) {
			flags.Add(rule.Flag)
		}
	}
	return flags
}
