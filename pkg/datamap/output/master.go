// Package output writes and reads the files the pipeline produces: the
// master workbook, populated templates, the validation report and the
// extraction snapshot.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/parser"
)

const (
	// DefaultMasterSheet is the sheet the master table is written to.
	DefaultMasterSheet = "Master"
	// DefaultReturnReference is the label written to the master's A1 cell.
	DefaultReturnReference = "Return Reference"
)

// ErrEmptyMaster indicates a master workbook has no header row.
var ErrEmptyMaster = errors.New("master has no header row")

// MasterOptions configures the master workbook layout.
type MasterOptions struct {
	SheetName       string
	ReturnReference string
}

func (o MasterOptions) sheet() string {
	if o.SheetName != "" {
		return o.SheetName
	}
	return DefaultMasterSheet
}

func (o MasterOptions) label() string {
	if o.ReturnReference != "" {
		return o.ReturnReference
	}
	return DefaultReturnReference
}

// FileStem returns a file name up to its first dot.
func FileStem(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

// WriteMaster writes the table to path: A1 holds the return reference
// label, row 1 from B the file stems, column A from row 2 the keys.
func WriteMaster(table *models.MasterTable, path string, opts MasterOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.sheet()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, 0, len(table.Files)+1)
	header = append(header, opts.label())
	for _, name := range table.Files {
		header = append(header, FileStem(name))
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, key := range table.Keys {
		row := make([]interface{}, 0, len(table.Files)+1)
		row = append(row, key)
		row = append(row, table.Values[i]...)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing master row for %s: %w", key, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// ReadMaster reads a master workbook's first sheet back into a table.
// Cells stored as numbers come back as int64 or float64, booleans as bool,
// and text stays text even when it looks numeric. Blank cells are nil.
func ReadMaster(path string) (*models.MasterTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMaster, path)
	}

	files := append([]string(nil), rows[0][1:]...)
	keys := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		key := ""
		if len(row) > 0 {
			key = strings.TrimSpace(row[0])
		}
		keys = append(keys, key)
	}

	table := models.NewMasterTable(keys, files)
	for i, row := range rows[1:] {
		for j := range files {
			if j+1 >= len(row) || row[j+1] == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return nil, err
			}
			v, err := masterValue(f, sheet, ref, row[j+1])
			if err != nil {
				return nil, fmt.Errorf("reading master cell %s: %w", ref, err)
			}
			table.Values[i][j] = v
		}
	}
	return table, nil
}

// masterValue types a raw cell by how it is stored.
func masterValue(f *excelize.File, sheet, ref, raw string) (interface{}, error) {
	ct, err := f.GetCellType(sheet, ref)
	if err != nil {
		return nil, err
	}
	switch ct {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return parser.ParseValue(raw), nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	default:
		return raw, nil
	}
}
