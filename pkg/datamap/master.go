package datamap

import (
	"fmt"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// BuildMaster projects a reconciled batch into a table with one row per
// entry and one column per file. Cells absent from a present sheet are
// blank.
func BuildMaster(entries []models.DatamapEntry, batch *models.Batch) (*models.MasterTable, error) {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	files := append([]string(nil), batch.Names...)
	table := models.NewMasterTable(keys, files)

	for col, name := range files {
		fe := batch.Files[name]
		for row, e := range entries {
			cells, ok := fe.Sheets[e.Sheet]
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", ErrMissingSheet, e.Sheet, name)
			}
			if cell, ok := cells[e.CellRef]; ok {
				table.Values[row][col] = cell.Value
			}
		}
	}
	return table, nil
}
