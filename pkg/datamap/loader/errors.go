package loader

import (
	"errors"
	"fmt"
)

// ErrNotCSV indicates the datamap path does not have a .csv extension.
var ErrNotCSV = errors.New("datamap is not a csv file")

// ErrEncoding indicates the datamap was saved with an unexpected encoding,
// typically "CSV UTF-8" with a byte order mark instead of plain CSV.
var ErrEncoding = errors.New("incorrect datamap encoding: save as CSV (Comma delimited), not CSV UTF-8")

// ErrMalformedHeader indicates the header row lacks the required columns.
var ErrMalformedHeader = errors.New("malformed datamap header")

// ErrMissingLine indicates a line with no key, sheet or cell reference.
var ErrMissingLine = errors.New("datamap contains a missing line")

// ErrMissingSheetField indicates a line with no sheet.
var ErrMissingSheetField = errors.New("datamap line is missing a sheet field")

// ErrMissingCellKey indicates a line with no key.
var ErrMissingCellKey = errors.New("datamap line is missing a key field")

// ErrInvalidCellRef indicates a line whose cell reference is missing or not
// of the form letters-then-digits.
var ErrInvalidCellRef = errors.New("datamap line has an invalid cell reference")

// LineError locates a datamap error on a specific line.
type LineError struct {
	Line int
	Key  string
	Err  error
}

func (e *LineError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (key %q): %v", e.Line, e.Key, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
