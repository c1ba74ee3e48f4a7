package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/chemviz/equipment-api/internal/domain"
)

const (
	summarySheet      = "Summary"
	distributionSheet = "Type Distribution"
	dataSheet         = "Equipment Data"
)

// Service renders a printable workbook from already-computed
// analytics. It formats what the snapshot holds and nothing else; all
// derived numbers come from the analytics engine.
type Service struct {
	now func() time.Time
}

// NewService creates a report renderer.
func NewService() *Service {
	return &Service{now: time.Now}
}

// Render builds the report workbook for one dataset and its snapshot.
func (s *Service) Render(dataset domain.Dataset, snapshot domain.AnalyticsSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", summarySheet)
	if err := s.writeSummary(f, dataset, snapshot); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(distributionSheet); err != nil {
		return nil, fmt.Errorf("failed to create distribution sheet: %w", err)
	}
	if err := writeDistribution(f, snapshot); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, fmt.Errorf("failed to create data sheet: %w", err)
	}
	if err := writeTable(f, snapshot); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) writeSummary(f *excelize.File, dataset domain.Dataset, snapshot domain.AnalyticsSnapshot) error {
	summary := snapshot.Summary
	rows := [][]any{
		{"Equipment Analysis Report"},
		{},
		{"Filename", dataset.Filename},
		{"Uploaded", dataset.UploadedAt.Format("2006-01-02 15:04:05")},
		{"Equipment Count", dataset.RowCount},
		{"Report Generated", s.now().Format("2006-01-02 15:04:05")},
		{},
		{"Metric", "Unit", "Average", "Min", "Max"},
		{"Flowrate", summary.Units[domain.FieldFlowrate], summary.Flowrate.Avg, summary.Flowrate.Min, summary.Flowrate.Max},
		{"Pressure", summary.Units[domain.FieldPressure], summary.Pressure.Avg, summary.Pressure.Min, summary.Pressure.Max},
		{"Temperature", summary.Units[domain.FieldTemperature], summary.Temperature.Avg, summary.Temperature.Min, summary.Temperature.Max},
	}
	return writeRows(f, summarySheet, rows)
}

func writeDistribution(f *excelize.File, snapshot domain.AnalyticsSnapshot) error {
	types := make([]string, 0, len(snapshot.TypeDistribution))
	for equipmentType := range snapshot.TypeDistribution {
		types = append(types, equipmentType)
	}
	sort.Strings(types)

	rows := [][]any{{"Type", "Count"}}
	for _, equipmentType := range types {
		rows = append(rows, []any{equipmentType, snapshot.TypeDistribution[equipmentType]})
	}
	return writeRows(f, distributionSheet, rows)
}

func writeTable(f *excelize.File, snapshot domain.AnalyticsSnapshot) error {
	units := snapshot.Summary.Units
	rows := [][]any{{
		"Equipment Name",
		"Type",
		fmt.Sprintf("Flowrate (%s)", units[domain.FieldFlowrate]),
		fmt.Sprintf("Pressure (%s)", units[domain.FieldPressure]),
		fmt.Sprintf("Temperature (%s)", units[domain.FieldTemperature]),
	}}
	for _, row := range snapshot.Table {
		rows = append(rows, []any{row.EquipmentName, row.Type, row.Flowrate, row.Pressure, row.Temperature})
	}
	return writeRows(f, dataSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
