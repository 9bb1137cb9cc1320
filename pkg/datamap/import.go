package datamap

import (
	"context"

	"github.com/ukaji3/datamap-go/pkg/datamap/loader"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/validate"
)

// ImportResult is everything the import pipeline produced.
type ImportResult struct {
	Entries []models.DatamapEntry
	Checks  []models.SheetCheck
	Records []models.ValidationRecord
	Master  *models.MasterTable
	// Batch holds only the files that survived reconciliation.
	Batch *models.Batch
	// Options are the options the batch was extracted with, including the
	// sheet limits derived from the datamap.
	Options Options
}

// Import loads a datamap, extracts the workbooks, drops files that lack a
// required sheet, validates the rest and builds the master table.
func Import(ctx context.Context, datamapPath string, paths []string, opts Options) (*ImportResult, error) {
	entries, err := loader.Load(datamapPath, loader.Options{Progress: opts.Progress, Logger: opts.logger()})
	if err != nil {
		return nil, err
	}
	if opts.TrimToDatamap {
		opts.SheetLimits = loader.MaxRows(entries)
	}

	batch, err := ExtractAll(ctx, paths, opts)
	if err != nil {
		return nil, err
	}

	checks := Reconcile(entries, batch)
	batch, err = RemoveFailing(checks, batch, opts)
	if err != nil {
		return nil, err
	}

	records, err := validate.Validate(entries, batch)
	if err != nil {
		return nil, err
	}

	master, err := BuildMaster(entries, batch)
	if err != nil {
		return nil, err
	}
	opts.progress("Built master")

	return &ImportResult{
		Entries: entries,
		Checks:  checks,
		Records: validate.Filter(records),
		Master:  master,
		Batch:   batch,
		Options: opts,
	}, nil
}
