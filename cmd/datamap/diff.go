package main

import (
	"errors"

	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/output"
)

type fileState int

const (
	stateUnchanged fileState = iota
	stateChanged
	stateNew
)

type status struct {
	state   fileState
	changed int
}

// fileStatus compares the file at path against its snapshot entry. Changed
// files are re-extracted with ext, which must read files the way the
// snapshot was taken.
func fileStatus(snap *output.Snapshot, ext datamap.Extractor, path string) (status, error) {
	same, err := snap.Unchanged(path)
	switch {
	case errors.Is(err, output.ErrNotInSnapshot):
		return status{state: stateNew}, nil
	case err != nil:
		return status{}, err
	case same:
		return status{state: stateUnchanged}, nil
	}

	fe, err := ext.Extract(path)
	if err != nil {
		return status{}, err
	}
	old, _ := snap.Batch.Get(fe.File)
	return status{state: stateChanged, changed: countChanged(old, fe)}, nil
}

// countChanged compares two extractions of the same file by rendered value,
// since snapshot numbers are decoded as float64.
func countChanged(old, cur *models.FileExtraction) int {
	n := 0
	seen := make(map[string]bool)
	for sheet, cells := range cur.Sheets {
		for ref, c := range cells {
			seen[sheet+"!"+ref] = true
			prev, ok := old.Cell(sheet, ref)
			if !ok || models.FormatValue(prev.Value) != models.FormatValue(c.Value) {
				n++
			}
		}
	}
	for sheet, cells := range old.Sheets {
		for ref := range cells {
			if !seen[sheet+"!"+ref] {
				n++
			}
		}
	}
	return n
}
