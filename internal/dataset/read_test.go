package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flood.xlsx")

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("observations")
	require.NoError(t, err)

	rows := [][]string{
		{"date", "province", "rainfall_mm", "water_level_m", "temperature_c", "humidity_percent", "is_flood"},
		{"2024-06-25", "Bangkok", "120.5", "3.2", "31.0", "78.5", "1"},
		{"2024-06-26", "Chiang Mai", "15.0", "0.8", "28.0", "60.0", "0"},
	}
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, file.Save(path))

	got, err := Load(path, date("2024-06-01"), date("2024-06-30"))
	require.NoError(t, err)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, "Bangkok", got.Samples[0].Province)
	assert.InDelta(t, 3.2, got.Samples[0].WaterLevelM, 1e-9)
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeCSV(t,
		header,
		"2024-06-25,Bangkok,120.5,3.2,31.0,78.5,1",
		"2024-06-26,Bangkok,120.5",
	)

	got, err := Load(path, date("2024-06-01"), date("2024-06-30"))
	require.NoError(t, err)
	// The short row fails coercion and is dropped, not fatal.
	assert.Len(t, got.Samples, 1)
	assert.Equal(t, 1, got.Dropped)
}
