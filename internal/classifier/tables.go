package classifier

import (
	"fmt"
	"os"

	"healthlog/internal/models"

	"gopkg.in/yaml.v3"
)

// table names
const (
	CalendarTable = "calendar"
	ReportTable   = "report"
)

// Calendar 4-stage table used by the calendar and day detail views
var Calendar = Table{
	Name:  CalendarTable,
	Floor: models.StageNormal,
	Rules: []Rule{
		{Stage: models.StageTwo, Systolic: 140, Diastolic: 90, Match: MatchBoth},
		{Stage: models.StageOne, Systolic: 130, Diastolic: 80, Match: MatchEither},
		{Stage: models.StageElevated, Systolic: 120, Match: MatchEither},
	},
}

// Report 5-level table used by the report table
var Report = Table{
	Name:  ReportTable,
	Floor: models.StageNormal,
	Rules: []Rule{
		{Stage: models.StageCrisis, Systolic: 180, Diastolic: 110, Match: MatchEither},
		{Stage: models.StageVeryHigh, Systolic: 160, Diastolic: 100, Match: MatchEither},
		{Stage: models.StageHigh, Systolic: 140, Diastolic: 90, Match: MatchEither},
		{Stage: models.StageSlightlyHigh, Systolic: 130, Diastolic: 80, Match: MatchEither},
	},
}

// Tables named threshold tables
type Tables map[string]Table

// DefaultTables the built-in calendar and report tables
func DefaultTables() Tables {
	return Tables{
		CalendarTable: Calendar,
		ReportTable:   Report,
	}
}

// Get returns the named table, falling back to the built-in one
func (ts Tables) Get(name string) Table {
	if t, ok := ts[name]; ok {
		return t
	}
	if t, ok := DefaultTables()[name]; ok {
		return t
	}
	return Calendar
}

type tablesFile struct {
	Tables []Table `yaml:"tables"`
}

// ParseTables decodes a YAML document; entries override the defaults by name
func ParseTables(data []byte) (Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse threshold tables: %w", err)
	}
	ts := DefaultTables()
	for _, t := range f.Tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		ts[t.Name] = t
	}
	return ts, nil
}

// LoadTables reads threshold tables from path. An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threshold tables %s: %w", path, err)
	}
	return ParseTables(data)
}
