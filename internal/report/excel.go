package report

import (
	"bytes"
	"fmt"

	"healthlog/internal/aggregator"

	"github.com/xuri/excelize/v2"
)

const (
	readingsSheet = "Readings"
	summarySheet  = "Summary"
)

// ReadingsHeader export header of the readings sheet
var ReadingsHeader = []string{
	"Date",
	"Time of Day",
	"Systolic",
	"Diastolic",
	"Pulse",
	"Stage",
	"Status",
}

// GenerateWorkbook builds an xlsx file with the report rows and, when given, the summary
func GenerateWorkbook(rows []Row, summary *aggregator.HealthSummary) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so Close is called explicitly below

	index, err := f.NewSheet(readingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeReadings(f, rows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if summary != nil {
		if err := writeSummary(f, summary, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeReadings(f *excelize.File, rows []Row, headerStyle int) error {
	for col, header := range ReadingsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(readingsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(readingsSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(readingsSheet, "A", "B", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(readingsSheet, "F", "G", 16); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, r := range rows {
		row := i + 2 // row 1 is the header
		values := []any{
			string(r.Date),
			string(r.TimeOfDay),
			intOrDash(r.Systolic),
			intOrDash(r.Diastolic),
			intOrDash(r.Pulse),
			string(r.Stage),
			r.Label,
		}
		for col, v := range values {
			if err := setCellValue(f, readingsSheet, col+1, row, v); err != nil {
				return fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	if err := f.SetPanes(readingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s *aggregator.HealthSummary, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	lines := [][]any{
		{"Metric", "Overall", "Morning", "Evening"},
		statsLine("Systolic avg", s.Stats.Systolic),
		statsLine("Diastolic avg", s.Stats.Diastolic),
		statsLine("Pulse avg", s.Stats.Pulse),
		{"Range", fmt.Sprintf("%s - %s", s.Range.Start, s.Range.End)},
		{"Readings", s.Counts.Total, s.Counts.Morning, s.Counts.Evening},
	}
	if s.Weight != nil {
		lines = append(lines,
			[]any{"Weight (kg)", floatOrDash(s.Weight.WeightKg)},
			[]any{"BMI", floatOrDash(s.Weight.BMI), string(s.Weight.Status)},
		)
	}
	for _, group := range []struct {
		title  string
		ranked []aggregator.RankedFlag
	}{
		{"Top habits", s.TopHabits},
		{"Top risks", s.TopRisks},
		{"Top symptoms", s.TopSymptoms},
	} {
		for _, r := range group.ranked {
			lines = append(lines, []any{group.title, string(r.Name), r.Count, fmt.Sprintf("%.1f%%", r.Percent())})
		}
	}

	for i, line := range lines {
		for col, v := range line {
			if err := setCellValue(f, summarySheet, col+1, i+1, v); err != nil {
				return fmt.Errorf("failed to set summary cell: %w", err)
			}
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "A", 18)
}

func statsLine(title string, seg aggregator.SegmentedStats) []any {
	return []any{title, avgOrDash(seg.Overall), avgOrDash(seg.Morning), avgOrDash(seg.Evening)}
}

func avgOrDash(s aggregator.Stats) any {
	if s.IsEmpty() {
		return "-"
	}
	return s.Avg
}

func intOrDash(v *int) any {
	if v == nil {
		return "-"
	}
	return *v
}

func floatOrDash(v *float64) any {
	if v == nil {
		return "-"
	}
	return *v
}

func setCellValue(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
