package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

const segmentCSV = `DEPARTURES_SCHEDULED,DEPARTURES_PERFORMED,SEATS,PASSENGERS,CARRIER,ORIGIN,DEST,YEAR,MONTH,
10,10,1430,1200,WN,LAS,DEN,2023,1,
12,11,1573,,WN,MDW,BWI,2023,1,
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIsDataFile(t *testing.T) {
	cases := map[string]bool{
		"T_T100D_SEGMENT_2023_Segment.csv": true,
		"On_Time_2023_1.CSV":               true,
		"report.xlsx":                      true,
		"~$report.xlsx":                    false,
		".hidden.csv":                      false,
		"readme.txt":                       false,
		"archive.zip":                      false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsDataFile(name), name)
	}
}

func TestReadCSVDropsTrailingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2023_Segment.csv")
	writeFile(t, path, segmentCSV)

	df, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 9, df.Ncol())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, "1200", df.Col("PASSENGERS").Records()[0])
	assert.Equal(t, []string{"2023", "2023"}, df.Col("YEAR").Records())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_Segment.csv"), segmentCSV)
	writeFile(t, filepath.Join(dir, "a_Segment.csv"), `DEPARTURES_SCHEDULED,DEPARTURES_PERFORMED,SEATS,PASSENGERS,CARRIER,ORIGIN,DEST,YEAR,MONTH,
5,5,700,600,WN,DAL,HOU,2022,12,
`)
	writeFile(t, filepath.Join(dir, "notes_Segment.txt"), "ignored")

	df, files, err := LoadDir(dir, "*_Segment.*", "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_Segment.csv", filepath.Base(files[0]))
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, "DAL", df.Col("ORIGIN").Records()[0])
}

func TestLoadDirNoFiles(t *testing.T) {
	_, _, err := LoadDir(t.TempDir(), "*.csv", "")
	assert.ErrorIs(t, err, ErrNoFiles)

	_, _, err = LoadDir(t.TempDir(), "[", "")
	assert.Error(t, err)
}

func TestReadFileUnsupported(t *testing.T) {
	_, err := ReadFile("data.parquet", "")
	assert.Error(t, err)
}

func writeXLSX(t *testing.T, path, sheetName string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "on_time.xlsx")
	writeXLSX(t, path, "OTP", [][]string{
		{},
		{"OP_UNIQUE_CARRIER", "ORIGIN", "DEST", "YEAR", "MONTH", "DEP_DEL15"},
		{"WN", "LAS", "DEN", "2023", "1", "1"},
		{"WN", "DEN", "LAS", "2023", "1"},
	})

	df, err := ReadXLSX(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"1", ""}, df.Col("DEP_DEL15").Records())

	df, err = ReadFile(path, "OTP")
	require.NoError(t, err)
	assert.Equal(t, 6, df.Ncol())

	_, err = ReadXLSX(path, "Missing")
	assert.Error(t, err)
}

func TestFileMonitor(t *testing.T) {
	dir := t.TempDir()
	monitor, err := NewFileMonitor(dir)
	require.NoError(t, err)
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 10)
	go monitor.Watch(ctx, func(name string) { got <- name })

	writeFile(t, filepath.Join(dir, "ignored.txt"), "x")
	target := filepath.Join(dir, "2024_Segment.csv")
	writeFile(t, target, segmentCSV)

	select {
	case name := <-got:
		assert.Equal(t, target, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for new data file")
	}
}

func TestFileMonitorBadDir(t *testing.T) {
	_, err := NewFileMonitor(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
