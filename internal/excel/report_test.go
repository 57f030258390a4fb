package excel

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"grimaldi/internal/composition"
	"grimaldi/internal/repository"
)

func sampleResult(t *testing.T) *composition.Result {
	t.Helper()
	p := &composition.Profile{HeightM: 1.75, WeightKg: 80, Age: 30, Sex: composition.SexMale}
	m := &composition.Measurements{Arms: 33, Forearms: 28, Waist: 92, Hip: 100, Thighs: 57, Calves: 37}
	res, err := composition.AnalyzeComposition(m, p)
	require.NoError(t, err)
	return res
}

func TestWriteReport(t *testing.T) {
	res := sampleResult(t)
	at := time.Date(2026, 4, 2, 8, 15, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := WriteReport(&buf, Report{
		Name:       "João Silva",
		CreatedAt:  at,
		Result:     res,
		VisionUsed: true,
		History: []Entry{
			{At: at.AddDate(0, -1, 0), Score: 55, FatPercent: 24, LeanMassKg: 60, Waist: 95},
			{At: at, Score: res.Score, FatPercent: res.Composition.FatPercent, LeanMassKg: res.Composition.LeanMassKg, Waist: 92},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetMeasurements, SheetIndices, SheetHistory}, f.GetSheetList())

	name, _ := f.GetCellValue(SheetSummary, "A2")
	assert.Equal(t, "João Silva", name)

	score, _ := f.GetCellValue(SheetSummary, "A5")
	assert.Equal(t, strconv.Itoa(res.Score), score)

	label, _ := f.GetCellValue(SheetSummary, "A10")
	assert.Equal(t, "IMC", label)

	waistLabel, _ := f.GetCellValue(SheetMeasurements, "A4")
	assert.Equal(t, "Cintura", waistLabel)
	waist, _ := f.GetCellValue(SheetMeasurements, "B4", excelize.Options{RawCellValue: true})
	assert.Equal(t, "92", waist)

	for i, n := range composition.IndexNames {
		band, _ := f.GetCellValue(SheetIndices, cell("C", i+2))
		assert.Equal(t, string(res.Indices.Get(n).Band), band, n)
	}

	rows, err := f.GetRows(SheetHistory)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteReportWithoutHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{Name: "Ana", CreatedAt: time.Now(), Result: sampleResult(t)}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.NotContains(t, f.GetSheetList(), SheetHistory)
}

func TestWriteReportNilResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteReport(&buf, Report{Name: "Ana"}))
}

func TestWriteDashboard(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDashboard(&buf, []DashboardRow{
		{UserID: 1, Name: "Ana", At: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Score: 82, FatPercent: 22.1, BMI: 21.4, Waist: 70},
		{UserID: 2, Name: "Rui", At: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), Score: 40, VisionUsed: true},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetDashboard)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ana", rows[1][1])
	assert.Equal(t, "05/01/2026", rows[1][2])
	assert.Equal(t, "sim", rows[2][7])
}

func TestReportFileName(t *testing.T) {
	at := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		want string
	}{
		{"João Silva", "João_Silva_2026-02-03.xlsx"},
		{"  a/b  ", "ab_2026-02-03.xlsx"},
		{"", "grimaldi_2026-02-03.xlsx"},
	}
	for _, tt := range tests {
		if got := ReportFileName(tt.name, at); got != tt.want {
			t.Errorf("ReportFileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHistoryFromRecords(t *testing.T) {
	newer := repository.Record{CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Score: 70, Waist: 88}
	older := repository.Record{CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Score: 60, Waist: 92}

	got := HistoryFromRecords([]repository.Record{newer, older})
	require.Len(t, got, 2)
	assert.Equal(t, 60, got[0].Score)
	assert.Equal(t, 88.0, got[1].Waist)
	assert.Empty(t, HistoryFromRecords(nil))
}
