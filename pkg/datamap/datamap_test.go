package datamap_test

import (
	"context"
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
)

const testDatamap = `cell_key,template_sheet,cell_reference,type
Project Name,Summary,B2,TEXT
Cost,Summary,B3,NUMBER
Start Date,Dates,C4,DATE
Notes,Summary,B9,
`

type sheetValues map[string]map[string]interface{}

func writeReturn(t *testing.T, dir, name string, sheets sheetValues) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for sheet, cells := range sheets {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		for ref, v := range cells {
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeDatamap(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "datamap.csv")
	require.NoError(t, os.WriteFile(path, []byte(testDatamap), 0o644))
	return path
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	dm := writeDatamap(t, dir)
	alpha := writeReturn(t, dir, "alpha.xlsx", sheetValues{
		"Summary": {"B2": "Alpha", "B3": 1200, "B9": "on track"},
		"Dates":   {"C4": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	beta := writeReturn(t, dir, "beta.xlsx", sheetValues{
		"Summary": {"B2": "Beta", "B3": "lots"},
		"Dates":   {},
	})
	gamma := writeReturn(t, dir, "gamma.xlsx", sheetValues{
		"Summary": {"B2": "Gamma"},
	})

	opts := datamap.DefaultOptions()
	opts.Workers = 2
	res, err := datamap.Import(context.Background(), dm, []string{alpha, beta, gamma}, opts)
	require.NoError(t, err)

	assert.Len(t, res.Entries, 4)
	assert.Equal(t, []string{"alpha.xlsx", "beta.xlsx"}, res.Batch.Names)
	assert.Equal(t, map[string][]string{"gamma.xlsx": {"Dates"}}, res.Batch.Rejected)
	assert.Len(t, res.Checks, 6)

	assert.Equal(t, []string{"Project Name", "Cost", "Start Date", "Notes"}, res.Master.Keys)
	assert.Equal(t, []string{"alpha.xlsx", "beta.xlsx"}, res.Master.Files)
	assert.Equal(t, []interface{}{"Alpha", "Beta"}, res.Master.Values[0])
	assert.Equal(t, []interface{}{int64(1200), "lots"}, res.Master.Values[1])
	assert.Equal(t, []interface{}{"2024-03-01T00:00:00", nil}, res.Master.Values[2])
	assert.Equal(t, []interface{}{"on track", nil}, res.Master.Values[3])

	require.Len(t, res.Records, 8)
	byKey := map[string]models.ValidationRecord{}
	for _, r := range res.Records {
		byKey[r.Key+"/"+r.File] = r
	}
	assert.Equal(t, models.OutcomePass, byKey["Start Date/alpha.xlsx"].Outcome)
	assert.Equal(t, models.OutcomeFail, byKey["Cost/beta.xlsx"].Outcome)
	assert.Equal(t, "TEXT", byKey["Cost/beta.xlsx"].Got)
	assert.Equal(t, models.NoValue, byKey["Start Date/beta.xlsx"].Value)
	assert.Equal(t, models.OutcomeUntyped, byKey["Notes/alpha.xlsx"].Outcome)
	assert.Equal(t, models.OutcomeFail, byKey["Notes/beta.xlsx"].Outcome)
	assert.Equal(t, models.NotRequired, byKey["Notes/beta.xlsx"].Wanted)
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	dm := writeDatamap(t, dir)
	lonely := writeReturn(t, dir, "lonely.xlsx", sheetValues{"Summary": {"B2": "x"}})

	_, err := datamap.Import(context.Background(), dm, []string{lonely}, datamap.DefaultOptions())
	assert.ErrorIs(t, err, datamap.ErrNoApplicableSheets)

	ok1 := writeReturn(t, dir, "ok1.xlsx", sheetValues{"Summary": {}, "Dates": {}})
	opts := datamap.DefaultOptions()
	opts.MinFiles = 2
	_, err = datamap.Import(context.Background(), dm, []string{ok1, lonely}, opts)
	assert.ErrorIs(t, err, datamap.ErrTooFewFiles)

	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	_, err = datamap.Import(context.Background(), dm, []string{ok1, bad}, datamap.DefaultOptions())
	assert.ErrorIs(t, err, datamap.ErrInvalidFormat)
	var extErr *datamap.ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.xlsx", "a.xlsx", "b.xlsx"} {
		paths = append(paths, writeReturn(t, dir, name, sheetValues{"Summary": {"A1": name}}))
	}

	for _, engine := range []datamap.Engine{datamap.EngineFull, datamap.EngineContainer} {
		t.Run(string(engine), func(t *testing.T) {
			opts := datamap.DefaultOptions()
			opts.Engine = engine
			opts.Workers = 2
			batch, err := datamap.ExtractAll(context.Background(), paths, opts)
			require.NoError(t, err)
			assert.Equal(t, []string{"c.xlsx", "a.xlsx", "b.xlsx"}, batch.Names)
			cell, ok := batch.Files["a.xlsx"].Cell("Summary", "A1")
			require.True(t, ok)
			assert.Equal(t, "a.xlsx", cell.Value)
		})
	}

	other := filepath.Join(t.TempDir(), "a.xlsx")
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(other, data, 0o644))
	_, err = datamap.ExtractAll(context.Background(), []string{paths[1], other}, datamap.DefaultOptions())
	assert.ErrorIs(t, err, datamap.ErrDuplicateFile)

	opts := datamap.DefaultOptions()
	opts.Engine = "bogus"
	_, err = datamap.ExtractAll(context.Background(), paths, opts)
	assert.ErrorIs(t, err, datamap.ErrUnknownEngine)
}

func TestFindWorkbooks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xlsx", "b.xlsm", "blank_template.xlsx", "~$a.xlsx", "notes.txt", "c.XLSX"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	paths, err := datamap.FindWorkbooks(dir)
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.xlsx", "b.xlsm", "c.XLSX"}, names)
}

func TestParseEngine(t *testing.T) {
	e, err := datamap.ParseEngine("container")
	require.NoError(t, err)
	assert.Equal(t, datamap.EngineContainer, e)

	e, err = datamap.ParseEngine("")
	require.NoError(t, err)
	assert.Equal(t, datamap.EngineFull, e)

	_, err = datamap.ParseEngine("fast")
	assert.ErrorIs(t, err, datamap.ErrUnknownEngine)
}
