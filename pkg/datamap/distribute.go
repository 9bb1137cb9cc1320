package datamap

import (
	"fmt"
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// Document is an open copy of the blank template.
type Document interface {
	HasSheet(sheet string) bool
	SetCellValue(sheet, cellref string, value interface{}) error
	// Save writes the document under name and returns the path written.
	Save(name string) (string, error)
	Close() error
}

// Sink hands out fresh copies of the blank template.
type Sink interface {
	Open() (Document, error)
}

// CheckKeys compares the master's row keys to the datamap's keys position
// by position over the datamap's length.
func CheckKeys(entries []models.DatamapEntry, keys []string) error {
	want := make(map[string]bool, len(entries))
	for _, e := range entries {
		want[e.Key] = true
	}
	have := make(map[string]bool, len(keys))
	for i, k := range keys {
		if i >= len(entries) {
			break
		}
		have[k] = true
	}

	mismatch := &KeyMismatchError{}
	var misplaced []string
	for i, e := range entries {
		if !have[e.Key] {
			mismatch.Missing = append(mismatch.Missing, e.Key)
		}
		if i >= len(keys) || keys[i] != e.Key {
			misplaced = append(misplaced, e.Key)
		}
	}
	for i, k := range keys {
		if i >= len(entries) {
			break
		}
		if !want[k] {
			mismatch.Unexpected = append(mismatch.Unexpected, k)
		}
	}
	if len(misplaced) == 0 {
		return nil
	}
	if len(mismatch.Missing) == 0 && len(mismatch.Unexpected) == 0 {
		mismatch.Misplaced = misplaced
	}
	return mismatch
}

// Distribute writes each master column into its own copy of the blank
// template, placing every value at the cell its datamap entry names. A
// column whose identifier repeats an earlier one is skipped so no output is
// overwritten. It returns the paths written.
func Distribute(entries []models.DatamapEntry, master *models.MasterTable, sink Sink, opts Options) ([]string, error) {
	log := opts.logger()
	if err := CheckKeys(entries, master.Keys); err != nil {
		return nil, err
	}
	if extra := len(master.Keys) - len(entries); extra > 0 {
		log.Warn("master has rows beyond the datamap, skipping them", "rows", extra)
	}

	var written []string
	seen := make(map[string]int, len(master.Files))
	for col, name := range master.Files {
		if strings.TrimSpace(name) == "" {
			log.Warn("master column has no file identifier, skipping it", "column", col+2)
			continue
		}
		if first, ok := seen[name]; ok {
			log.Warn("master column repeats a file identifier, skipping it",
				"file", name, "column", col+2, "first_column", first+2)
			continue
		}
		seen[name] = col
		out, err := writeColumn(entries, master, col, name, sink, opts)
		if err != nil {
			return written, err
		}
		written = append(written, out)
		opts.progress("Wrote " + out)
	}
	return written, nil
}

func writeColumn(entries []models.DatamapEntry, master *models.MasterTable, col int, name string, sink Sink, opts Options) (string, error) {
	doc, err := sink.Open()
	if err != nil {
		return "", fmt.Errorf("opening template for %s: %w", name, err)
	}
	defer doc.Close()

	for row, e := range entries {
		v := master.Value(row, col)
		if v == nil {
			continue
		}
		if !doc.HasSheet(e.Sheet) {
			opts.logger().Warn("template has no sheet for key, skipping it",
				"file", name, "key", e.Key, "sheet", e.Sheet)
			continue
		}
		if err := doc.SetCellValue(e.Sheet, e.CellRef, v); err != nil {
			return "", fmt.Errorf("writing %s to %s!%s for %s: %w", e.Key, e.Sheet, e.CellRef, name, err)
		}
	}
	return doc.Save(name)
}
