package models

// CheckStatus is the outcome of a sheet-presence check.
type CheckStatus string

const (
	CheckPass CheckStatus = "PASS"
	CheckFail CheckStatus = "FAIL"
)

// SheetCheck records whether a file contains a sheet the datamap requires.
type SheetCheck struct {
	// File is the workbook file name.
	File string `json:"file_name"`
	// Sheet is the sheet required by the datamap.
	Sheet string `json:"sheet"`
	// Status is PASS when the sheet is present.
	Status CheckStatus `json:"status"`
	// Reason is a human-readable explanation.
	Reason string `json:"reason"`
}
