// Package models defines data structures shared by the datamap pipeline.
package models

// ValueType is the kind of value a datamap entry expects, or an extracted
// cell was observed to hold.
type ValueType string

const (
	// TypeText is a textual value.
	TypeText ValueType = "TEXT"
	// TypeNumber is an integer, float or boolean value.
	TypeNumber ValueType = "NUMBER"
	// TypeDate is a date or datetime, carried as ISO-8601 text.
	TypeDate ValueType = "DATE"
)

// Known reports whether t is one of the types the validator can check.
func (t ValueType) Known() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate:
		return true
	}
	return false
}

// DatamapEntry is one declared field of a datamap.
type DatamapEntry struct {
	// Key is the business field name.
	Key string `json:"key"`
	// Sheet is the worksheet the value lives on.
	Sheet string `json:"sheet"`
	// CellRef is the upper-cased cell address, e.g. "C11".
	CellRef string `json:"cellref"`
	// Type is the declared value type. Nil when the datamap has no type
	// column; otherwise the trimmed literal, which may be empty.
	Type *ValueType `json:"data_type"`
	// SourceFile is the datamap path the entry was read from.
	SourceFile string `json:"filename"`
}

// DeclaredType returns the declared type literal and whether a type column
// was present at all.
func (e DatamapEntry) DeclaredType() (ValueType, bool) {
	if e.Type == nil {
		return "", false
	}
	return *e.Type, true
}
