package models

import (
	"strconv"
	"strings"
)

// ExtractedCell is a single value read from a workbook.
type ExtractedCell struct {
	// File is the workbook file name (no path).
	File string `json:"file_name"`
	// Sheet is the worksheet name.
	Sheet string `json:"sheet_name"`
	// CellRef is the cell address (column letters + 1-based row).
	CellRef string `json:"cellref"`
	// Value is string, int64, float64, bool or nil.
	Value interface{} `json:"value"`
	// Type is the inferred value type.
	Type ValueType `json:"data_type"`
}

// IsEmpty reports whether the cell carries no usable value.
func (c ExtractedCell) IsEmpty() bool {
	switch v := c.Value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}

// String renders the value as text.
func (c ExtractedCell) String() string {
	return FormatValue(c.Value)
}

// FormatValue renders an extracted value as text. Nil becomes "".
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strings.ToUpper(strconv.FormatBool(t))
	default:
		return ""
	}
}

// CellMap maps cell address to extracted cell for one sheet.
type CellMap map[string]ExtractedCell
