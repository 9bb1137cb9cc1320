package datamap

import (
	"fmt"

	"github.com/ukaji3/datamap-go/pkg/datamap/loader"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// Reconcile checks each file in the batch for every sheet the datamap uses.
// Checks are ordered by file, then by the sheet's first use in the datamap.
func Reconcile(entries []models.DatamapEntry, batch *models.Batch) []models.SheetCheck {
	sheets := loader.Sheets(entries)
	checks := make([]models.SheetCheck, 0, len(sheets)*batch.Len())
	for _, name := range batch.Names {
		fe := batch.Files[name]
		for _, sheet := range sheets {
			check := models.SheetCheck{File: name, Sheet: sheet, Status: models.CheckPass}
			if fe.HasSheet(sheet) {
				check.Reason = fmt.Sprintf("sheet %q found in %s", sheet, name)
			} else {
				check.Status = models.CheckFail
				check.Reason = fmt.Sprintf("sheet %q not found in %s", sheet, name)
			}
			checks = append(checks, check)
		}
	}
	return checks
}

// RemoveFailing returns a batch without the files that failed any check.
// Removed files and their missing sheets are recorded in Rejected.
func RemoveFailing(checks []models.SheetCheck, batch *models.Batch, opts Options) (*models.Batch, error) {
	log := opts.logger()
	rejected := make(map[string][]string)
	for _, c := range checks {
		if c.Status != models.CheckFail {
			continue
		}
		log.Warn("file is missing a datamap sheet and will be excluded", "file", c.File, "sheet", c.Sheet)
		rejected[c.File] = append(rejected[c.File], c.Sheet)
	}

	out := models.NewBatch()
	for _, name := range batch.Names {
		if _, bad := rejected[name]; bad {
			continue
		}
		out.Add(batch.Files[name])
	}
	if len(rejected) > 0 {
		out.Rejected = rejected
	}

	if out.Len() == 0 {
		return out, ErrNoApplicableSheets
	}
	if out.Len() < opts.MinFiles {
		return out, fmt.Errorf("%w: %d of %d required", ErrTooFewFiles, out.Len(), opts.MinFiles)
	}
	return out, nil
}
