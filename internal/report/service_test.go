package report

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chemviz/equipment-api/internal/analytics"
	"github.com/chemviz/equipment-api/internal/domain"
)

func TestRenderWorkbook(t *testing.T) {
	records := []domain.EquipmentRecord{
		{EquipmentName: "Pump-1", Type: "pump", Flowrate: 120, Pressure: 5.2, Temperature: 110},
		{EquipmentName: "Valve-1", Type: "valve", Flowrate: 60, Pressure: 4.1, Temperature: 105},
	}
	units := map[string]string{
		domain.FieldFlowrate:    "m³/h",
		domain.FieldPressure:    "bar",
		domain.FieldTemperature: "°C",
	}
	dataset := domain.NewDataset(uuid.New(), "plant.csv", len(records))
	snapshot := analytics.NewEngine(analytics.DefaultBins, units).Compute(records)

	payload, err := NewService().Render(dataset, snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Type Distribution")
	assert.Contains(t, sheets, "Equipment Data")

	filename, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "plant.csv", filename)

	avgFlow, err := f.GetCellValue("Summary", "C9")
	require.NoError(t, err)
	assert.Equal(t, "90", avgFlow)

	// Distribution is sorted by type name.
	firstType, err := f.GetCellValue("Type Distribution", "A2")
	require.NoError(t, err)
	assert.Equal(t, "pump", firstType)

	name, err := f.GetCellValue("Equipment Data", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Pump-1", name)
}

func TestRenderEmptySnapshot(t *testing.T) {
	units := map[string]string{
		domain.FieldFlowrate:    "m³/h",
		domain.FieldPressure:    "bar",
		domain.FieldTemperature: "°C",
	}
	snapshot := analytics.NewEngine(analytics.DefaultBins, units).Compute(nil)
	dataset := domain.Dataset{Filename: "empty.csv"}

	payload, err := NewService().Render(dataset, snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}
