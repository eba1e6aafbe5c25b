package classifier

// BMIStatus weight band derived from body-mass index
type BMIStatus string

const (
	BMIUnknown     BMIStatus = "unknown"
	BMIUnderweight BMIStatus = "underweight"
	BMINormal      BMIStatus = "normal"
	BMIOverweight  BMIStatus = "overweight"
	BMIObese       BMIStatus = "obese"
)

// ClassifyBMI bands: <18.5, <25, <30, else obese
func ClassifyBMI(bmi *float64) BMIStatus {
	if bmi == nil || *bmi <= 0 {
		return BMIUnknown
	}
	switch v := *bmi; {
	case v < 18.5:
		return BMIUnderweight
	case v < 25:
		return BMINormal
	case v < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}
