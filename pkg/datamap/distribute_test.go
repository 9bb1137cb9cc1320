package datamap_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/output"
	"github.com/ukaji3/datamap-go/pkg/datamap/parser"
)

type memorySink struct {
	sheets []string
	saved  map[string]map[string]interface{}
	opened int
	closed int
}

func (s *memorySink) Open() (datamap.Document, error) {
	s.opened++
	return &memoryDoc{sink: s, cells: map[string]interface{}{}}, nil
}

type memoryDoc struct {
	sink  *memorySink
	cells map[string]interface{}
}

func (d *memoryDoc) HasSheet(sheet string) bool {
	for _, s := range d.sink.sheets {
		if s == sheet {
			return true
		}
	}
	return false
}

func (d *memoryDoc) SetCellValue(sheet, cellref string, value interface{}) error {
	d.cells[sheet+"!"+cellref] = value
	return nil
}

func (d *memoryDoc) Save(name string) (string, error) {
	if d.sink.saved == nil {
		d.sink.saved = map[string]map[string]interface{}{}
	}
	d.sink.saved[name] = d.cells
	return name, nil
}

func (d *memoryDoc) Close() error {
	d.sink.closed++
	return nil
}

var distEntries = []models.DatamapEntry{
	{Key: "Name", Sheet: "Summary", CellRef: "B2"},
	{Key: "Cost", Sheet: "Summary", CellRef: "B3"},
	{Key: "Extra", Sheet: "Missing", CellRef: "A1"},
}

func TestDistribute(t *testing.T) {
	master := models.NewMasterTable(
		[]string{"Name", "Cost", "Extra", "Overrun"},
		[]string{"alpha", "", "beta"},
	)
	master.Values[0] = []interface{}{"Alpha", "Nobody", "Beta"}
	master.Values[1] = []interface{}{int64(10), nil, nil}
	master.Values[2] = []interface{}{"x", "y", "z"}
	master.Values[3] = []interface{}{"ignored", "ignored", "ignored"}

	sink := &memorySink{sheets: []string{"Summary"}}
	written, err := datamap.Distribute(distEntries, master, sink, datamap.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, written)
	assert.Equal(t, 2, sink.opened)
	assert.Equal(t, 2, sink.closed)
	assert.Equal(t, map[string]interface{}{"Summary!B2": "Alpha", "Summary!B3": int64(10)}, sink.saved["alpha"])
	assert.Equal(t, map[string]interface{}{"Summary!B2": "Beta"}, sink.saved["beta"])
}

func TestDistributeDuplicateHeader(t *testing.T) {
	master := models.NewMasterTable([]string{"Name", "Cost", "Extra"}, []string{"Q1", "Q1", "Q2"})
	master.Values[0] = []interface{}{"2020", "2021", "Second"}

	sink := &memorySink{sheets: []string{"Summary"}}
	written, err := datamap.Distribute(distEntries, master, sink, datamap.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "Q2"}, written)
	assert.Equal(t, 2, sink.opened)
	assert.Equal(t, map[string]interface{}{"Summary!B2": "2020"}, sink.saved["Q1"])
}

func TestCheckKeys(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		missing    []string
		unexpected []string
		misplaced  []string
	}{
		{name: "equal", keys: []string{"Name", "Cost", "Extra"}},
		{name: "extra rows allowed", keys: []string{"Name", "Cost", "Extra", "More"}},
		{name: "renamed", keys: []string{"Name", "Price", "Extra"}, missing: []string{"Cost"}, unexpected: []string{"Price"}},
		{name: "short", keys: []string{"Name"}, missing: []string{"Cost", "Extra"}},
		{name: "reordered", keys: []string{"Cost", "Name", "Extra"}, misplaced: []string{"Name", "Cost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := datamap.CheckKeys(distEntries, tt.keys)
			if tt.missing == nil && tt.unexpected == nil && tt.misplaced == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, datamap.ErrKeyMismatch)
			var km *datamap.KeyMismatchError
			require.True(t, errors.As(err, &km))
			assert.Equal(t, tt.missing, km.Missing)
			assert.Equal(t, tt.unexpected, km.Unexpected)
			assert.Equal(t, tt.misplaced, km.Misplaced)
		})
	}
}

func TestDistributeKeyMismatchWritesNothing(t *testing.T) {
	master := models.NewMasterTable([]string{"Name", "Price", "Extra"}, []string{"alpha"})
	sink := &memorySink{sheets: []string{"Summary"}}

	_, err := datamap.Distribute(distEntries, master, sink, datamap.DefaultOptions())
	assert.ErrorIs(t, err, datamap.ErrKeyMismatch)
	assert.Zero(t, sink.opened)
}

// Values imported into a master land back in the same cells of the template.
func TestDistributeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	blank := filepath.Join(dir, "blank_template.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("Summary")
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(blank))
	require.NoError(t, f.Close())

	text := models.TypeText
	entries := []models.DatamapEntry{
		distEntries[0],
		distEntries[1],
		{Key: "Code", Sheet: "Summary", CellRef: "B4", Type: &text},
	}
	master := models.NewMasterTable([]string{"Name", "Cost", "Code"}, []string{"alpha", "beta"})
	master.Values[0] = []interface{}{"Alpha", "Beta"}
	master.Values[1] = []interface{}{int64(10), 2.5}
	master.Values[2] = []interface{}{"00123", "1e3"}

	masterPath := filepath.Join(dir, "master.xlsx")
	require.NoError(t, output.WriteMaster(master, masterPath, output.MasterOptions{}))
	readBack, err := output.ReadMaster(masterPath)
	require.NoError(t, err)
	assert.Equal(t, "00123", readBack.Value(2, 0))

	sink := output.BlankTemplate{Path: blank, OutDir: filepath.Join(dir, "out")}
	written, err := datamap.Distribute(entries, readBack, sink, datamap.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, written, 2)

	for col, path := range written {
		wb, err := excelize.OpenFile(path)
		require.NoError(t, err)
		for row, e := range entries {
			got, err := wb.GetCellValue(e.Sheet, e.CellRef)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint(master.Values[row][col]), got)
		}
		require.NoError(t, wb.Close())

		fe, err := parser.Workbook{}.Extract(path)
		require.NoError(t, err)
		code, ok := fe.Cell("Summary", "B4")
		require.True(t, ok)
		assert.Equal(t, master.Values[2][col], code.Value)
		assert.Equal(t, models.TypeText, code.Type)
	}
}
