package output_test

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/output"
)

func TestMasterRoundTrip(t *testing.T) {
	table := models.NewMasterTable(
		[]string{"Project Name", "Cost", "Start Date", "Code", "Approved"},
		[]string{"alpha.xlsx", "beta.xlsm"},
	)
	table.Values[0] = []interface{}{"Alpha", "Beta"}
	table.Values[1] = []interface{}{int64(100), 2.5}
	table.Values[2] = []interface{}{"2024-03-01T00:00:00", nil}
	table.Values[3] = []interface{}{"00123", "1e3"}
	table.Values[4] = []interface{}{true, false}

	path := filepath.Join(t.TempDir(), "master.xlsx")
	require.NoError(t, output.WriteMaster(table, path, output.MasterOptions{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	a1, err := f.GetCellValue(output.DefaultMasterSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, output.DefaultReturnReference, a1)
	require.NoError(t, f.Close())

	got, err := output.ReadMaster(path)
	require.NoError(t, err)
	assert.Equal(t, table.Keys, got.Keys)
	assert.Equal(t, []string{"alpha", "beta"}, got.Files)
	assert.Equal(t, table.Values, got.Values)
}

func TestReadMasterTrimsKeys(t *testing.T) {
	table := models.NewMasterTable([]string{"Cost ", "  Name"}, []string{"one.xlsx"})
	table.Values[0] = []interface{}{int64(5)}
	table.Values[1] = []interface{}{"One"}
	path := filepath.Join(t.TempDir(), "master.xlsx")
	require.NoError(t, output.WriteMaster(table, path, output.MasterOptions{}))

	got, err := output.ReadMaster(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cost", "Name"}, got.Keys)
	assert.Equal(t, []interface{}{int64(5)}, got.Values[0])
}

func TestWriteMasterOptions(t *testing.T) {
	table := models.NewMasterTable([]string{"Key"}, []string{"one.xlsx"})
	path := filepath.Join(t.TempDir(), "master.xlsx")
	require.NoError(t, output.WriteMaster(table, path, output.MasterOptions{
		SheetName:       "Summary",
		ReturnReference: "Quarter 1",
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary"}, f.GetSheetList())
	a1, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Quarter 1", a1)
}

func TestReadMasterEmpty(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := output.ReadMaster(path)
	assert.ErrorIs(t, err, output.ErrEmptyMaster)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "return", output.FileStem("return.xlsx"))
	assert.Equal(t, "q1", output.FileStem("q1.backup.xlsm"))
	assert.Equal(t, "plain", output.FileStem("plain"))
}

func TestBlankTemplate(t *testing.T) {
	dir := t.TempDir()
	blank := filepath.Join(dir, "blank_template.xlsm")
	f := excelize.NewFile()
	_, err := f.NewSheet("Summary")
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(blank))
	require.NoError(t, f.Close())

	sink := output.BlankTemplate{Path: blank, OutDir: filepath.Join(dir, "out")}
	doc, err := sink.Open()
	require.NoError(t, err)
	assert.True(t, doc.HasSheet("Summary"))
	assert.False(t, doc.HasSheet("Missing"))
	require.NoError(t, doc.SetCellValue("Summary", "B2", "Alpha"))
	path, err := doc.Save("alpha")
	require.NoError(t, err)
	require.NoError(t, doc.Close())
	assert.Equal(t, filepath.Join(dir, "out", "alpha.xlsm"), path)

	saved, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer saved.Close()
	v, err := saved.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", v)

	again, err := sink.Open()
	require.NoError(t, err)
	defer again.Close()
	other, err := again.Save("beta")
	require.NoError(t, err)
	fresh, err := excelize.OpenFile(other)
	require.NoError(t, err)
	defer fresh.Close()
	v, err = fresh.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Empty(t, v, "each copy starts from the blank template")
}

func TestWriteReport(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)
	records := []models.ValidationRecord{
		{Outcome: models.OutcomePass, File: "a.xlsx", Key: "Date", Value: "2020-01-01T00:00:00",
			CellRef: "B2", Sheet: "S", Wanted: "DATE", Got: "DATE"},
		{Outcome: models.OutcomeFail, File: "a.xlsx", Key: "Name", Value: models.NoValue,
			CellRef: "A1", Sheet: "S", Wanted: "TEXT", Got: models.GotEmpty},
	}

	path, err := output.WriteReport(records, t.TempDir(), now)
	require.NoError(t, err)
	assert.Equal(t, "validation_report_20240301_140509.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, output.ReportHeader, rows[0])
	assert.Equal(t, []string{"PASS", "a.xlsx", "Date", "2020-01-01T00:00:00", "B2", "S", "DATE", "DATE"}, rows[1])
	assert.Equal(t, []string{"FAIL", "a.xlsx", "Name", "NO VALUE RETURNED", "A1", "S", "TEXT", "EMPTY"}, rows[2])
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	returnFile := filepath.Join(dir, "a.xlsx")
	require.NoError(t, os.WriteFile(returnFile, []byte("hello"), 0o644))

	batch := models.NewBatch()
	batch.Add(&models.FileExtraction{
		File:     "a.xlsx",
		Checksum: "5d41402abc4b2a76b9719d911017c592",
		Sheets: map[string]models.CellMap{
			"S": {"A1": {File: "a.xlsx", Sheet: "S", CellRef: "A1", Value: "x", Type: models.TypeText}},
		},
	})

	snapPath := filepath.Join(dir, "data.json")
	opts := datamap.DefaultOptions()
	opts.Engine = datamap.EngineContainer
	opts.SheetLimits = map[string]int{"S": 10}
	require.NoError(t, output.WriteSnapshot(batch, snapPath, opts, time.Now()))

	snap, err := output.ReadSnapshot(snapPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xlsx"}, snap.Batch.Names)
	assert.Equal(t, datamap.EngineContainer, snap.Engine)

	restored := snap.Options(datamap.Options{Engine: datamap.EngineFull, Workers: 2})
	assert.Equal(t, datamap.EngineContainer, restored.Engine)
	assert.Equal(t, opts.RowLimit, restored.RowLimit)
	assert.Equal(t, map[string]int{"S": 10}, restored.SheetLimits)
	assert.Equal(t, 2, restored.Workers)

	legacy := &output.Snapshot{Batch: models.NewBatch()}
	assert.Equal(t, datamap.EngineFull, legacy.Options(datamap.DefaultOptions()).Engine)
	cell, ok := snap.Batch.Files["a.xlsx"].Cell("S", "A1")
	require.True(t, ok)
	assert.Equal(t, "x", cell.Value)

	same, err := snap.Unchanged(returnFile)
	require.NoError(t, err)
	assert.True(t, same)

	require.NoError(t, os.WriteFile(returnFile, []byte("changed"), 0o644))
	same, err = snap.Unchanged(returnFile)
	require.NoError(t, err)
	assert.False(t, same)

	_, err = snap.Unchanged(filepath.Join(dir, "other.xlsx"))
	assert.True(t, errors.Is(err, output.ErrNotInSnapshot))
}
