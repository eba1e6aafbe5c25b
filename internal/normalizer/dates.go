package normalizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"healthlog/internal/models"
)

// ErrInvalidDate the value cannot be read as a calendar date
var ErrInvalidDate = errors.New("invalid date")

// buddhistEraOffset Thai solar calendar years run 543 ahead of the Gregorian calendar
const buddhistEraOffset = 543

var isoLayouts = []string{
	models.DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

var monthNames = map[string]time.Month{
	// Thai abbreviations, dots stripped
	"มค": time.January, "กพ": time.February, "มีค": time.March, "เมย": time.April,
	"พค": time.May, "มิย": time.June, "กค": time.July, "สค": time.August,
	"กย": time.September, "ตค": time.October, "พย": time.November, "ธค": time.December,
	// Thai full names
	"มกราคม": time.January, "กุมภาพันธ์": time.February, "มีนาคม": time.March,
	"เมษายน": time.April, "พฤษภาคม": time.May, "มิถุนายน": time.June,
	"กรกฎาคม": time.July, "สิงหาคม": time.August, "กันยายน": time.September,
	"ตุลาคม": time.October, "พฤศจิกายน": time.November, "ธันวาคม": time.December,
	// English
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "june": time.June, "july": time.July, "august": time.August,
	"september": time.September, "october": time.October, "november": time.November,
	"december": time.December,
}

// ParseDate reads a source date into the canonical YYYY-MM-DD form.
// Accepted: ISO dates and timestamps (date taken as written), y/m/d, d/m/y,
// and "d <month name> y" with Thai or English month names. Buddhist-era years
// (>= 2400, or two digits as printed by the Thai short format) are converted.
func ParseDate(raw string) (models.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidDate
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}

	if parts := strings.Split(s, "/"); len(parts) == 3 {
		if len(parts[0]) == 4 {
			return buildDate(parts[0], parts[1], parts[2], raw)
		}
		return buildDate(parts[2], parts[1], parts[0], raw)
	}

	if fields := strings.Fields(s); len(fields) == 3 {
		key := strings.ToLower(strings.ReplaceAll(fields[1], ".", ""))
		if month, ok := monthNames[key]; ok {
			return buildDate(fields[2], strconv.Itoa(int(month)), fields[0], raw)
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

func buildDate(yearStr, monthStr, dayStr, raw string) (models.Date, error) {
	year, err1 := strconv.Atoi(strings.TrimSpace(yearStr))
	month, err2 := strconv.Atoi(strings.TrimSpace(monthStr))
	day, err3 := strconv.Atoi(strings.TrimSpace(dayStr))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	switch {
	case year >= 2400:
		year -= buddhistEraOffset
	case year < 100:
		year = 2500 + year - buddhistEraOffset
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return models.DateOf(t), nil
}

var exactTimeLabels = map[string]models.TimeOfDay{
	"morning":   models.Morning,
	"am":        models.Morning,
	"afternoon": models.Afternoon,
	"noon":      models.Afternoon,
	"evening":   models.Evening,
	"pm":        models.Evening,
	"night":     models.Night,
	"bedtime":   models.Night,
}

// Thai labels are matched as substrings ("ช่วงเช้า", "ตอนเย็น", ...)
var thaiTimeLabels = []struct {
	label string
	tod   models.TimeOfDay
}{
	{"เช้า", models.Morning},
	{"เย็น", models.Evening},
	{"ก่อนนอน", models.Night},
	{"กลางคืน", models.Night},
	{"ดึก", models.Night},
	{"บ่าย", models.Afternoon},
	{"กลางวัน", models.Afternoon},
	{"เที่ยง", models.Afternoon},
}

// ParseTimeOfDay maps a free-text period label onto the closed enum.
// Anything unrecognized is Unspecified.
func ParseTimeOfDay(label string) models.TimeOfDay {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return models.Unspecified
	}
	if tod, ok := exactTimeLabels[s]; ok {
		return tod
	}
	for _, l := range thaiTimeLabels {
		if strings.Contains(s, l.label) {
			return l.tod
		}
	}
	return models.Unspecified
}
