package models

// MasterTable is the aggregate of a batch: one row per datamap key, one
// column per source workbook.
type MasterTable struct {
	// Keys holds the row labels (column A from row 2) in datamap order.
	Keys []string `json:"keys"`
	// Files holds the column headers (row 1 from column B).
	Files []string `json:"files"`
	// Values is indexed [row][column]; nil is a blank cell.
	Values [][]interface{} `json:"values"`
}

// NewMasterTable allocates a table of the given shape.
func NewMasterTable(keys, files []string) *MasterTable {
	values := make([][]interface{}, len(keys))
	for i := range values {
		values[i] = make([]interface{}, len(files))
	}
	return &MasterTable{Keys: keys, Files: files, Values: values}
}

// Value returns the cell at row, col or nil when out of range.
func (m *MasterTable) Value(row, col int) interface{} {
	if row < 0 || row >= len(m.Values) {
		return nil
	}
	if col < 0 || col >= len(m.Values[row]) {
		return nil
	}
	return m.Values[row][col]
}
