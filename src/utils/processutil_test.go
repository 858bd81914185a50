package utils

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"DEN-LAS", "BWI-MDW"}, "BWI-MDW"))
	assert.False(t, Contains([]int{1, 2}, 3))
}

func TestHasColumn(t *testing.T) {
	df := dataframe.New(series.New([]string{"WN"}, series.String, "CARRIER"))
	assert.True(t, HasColumn(df, "CARRIER"))
	assert.False(t, HasColumn(df, "carrier"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "82.35", FormatFloat(82.3456, 2))
	assert.Equal(t, "n/a", FormatFloat(math.NaN(), 2))
	assert.Equal(t, "n/a", FormatFloat(math.Inf(1), 1))
}

func TestWriteSheetNaN(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"DEN-LAS", "BWI-MDW"}, series.String, "route"),
		series.New([]float64{81.5, math.NaN()}, series.Float, "load_factor"),
	)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	out := excelize.NewFile()
	require.NoError(t, WriteSheet(out, "Sheet1", df))
	require.NoError(t, out.SaveAs(path))
	out.Close()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"route", "load_factor"}, rows[0])
	assert.Equal(t, []string{"DEN-LAS", "81.5"}, rows[1])
	// NaN 写为空单元格
	assert.Equal(t, "BWI-MDW", rows[2][0])
	if len(rows[2]) > 1 {
		assert.Empty(t, rows[2][1])
	}
}

func TestWriteSheetCreatesSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	df := dataframe.New(series.New([]int{3}, series.Int, "months"))
	require.NoError(t, WriteSheet(f, "Summary", df))

	v, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}
