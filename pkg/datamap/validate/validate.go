package validate

import (
	"errors"
	"fmt"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// ErrNoTermination indicates the state machine did not reach Complete.
var ErrNoTermination = errors.New("validation did not terminate")

// maxSteps bounds a single run; the longest path has six transitions.
const maxSteps = 16

// Line validates one entry against one file's extraction. A missing sheet
// counts as a missing cell.
func Line(entry models.DatamapEntry, fe *models.FileExtraction) (models.ValidationRecord, error) {
	ctx := Context{Entry: entry, File: fe.File}
	if cell, ok := fe.Cell(entry.Sheet, entry.CellRef); ok {
		ctx.Cell = &cell
	}

	state := Unvalidated
	var rec models.ValidationRecord
	for i := 0; i < maxSteps; i++ {
		if state.IsTerminal() {
			return rec, nil
		}
		state, rec = Step(state, ctx, rec)
	}
	if state.IsTerminal() {
		return rec, nil
	}
	return rec, fmt.Errorf("%w: %s!%s in %s stuck at %s", ErrNoTermination, entry.Sheet, entry.CellRef, fe.File, state)
}

// Validate checks every entry against every file in the batch. Records are
// ordered by entry, then by the batch's file order.
func Validate(entries []models.DatamapEntry, batch *models.Batch) ([]models.ValidationRecord, error) {
	records := make([]models.ValidationRecord, 0, len(entries)*batch.Len())
	for _, entry := range entries {
		for _, name := range batch.Names {
			rec, err := Line(entry, batch.Files[name])
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// Filter drops records for entries that declared no type column at all.
func Filter(records []models.ValidationRecord) []models.ValidationRecord {
	out := make([]models.ValidationRecord, 0, len(records))
	for _, r := range records {
		if r.Requested {
			out = append(out, r)
		}
	}
	return out
}
