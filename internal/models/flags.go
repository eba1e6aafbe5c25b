package models

// good habits
const (
	HabitMeditation Flag = "meditation"
	HabitVeggies    Flag = "veggies"
	HabitExercise   Flag = "exercise"
)

// risk factors (bad habits)
const (
	RiskForgotMeds Flag = "forgot_meds"
	RiskSalty      Flag = "salty"
	RiskSleep      Flag = "sleep"
	RiskAlcohol    Flag = "alcohol"
	RiskSmoking    Flag = "smoking"
	RiskStress     Flag = "stress"
)

// symptoms
const (
	SymptomFatigue        Flag = "fatigue"
	SymptomChestPain      Flag = "chest_pain"
	SymptomBreathlessness Flag = "breathlessness"
	SymptomWeakLimbs      Flag = "weak_limbs"
	SymptomHeadache       Flag = "headache"
	SymptomDizzy          Flag = "dizzy"
	SymptomBlur           Flag = "blur"
	SymptomNosebleed      Flag = "nosebleed"
	SymptomSwelling       Flag = "swelling"
)
