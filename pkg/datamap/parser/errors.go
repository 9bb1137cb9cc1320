package parser

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx package.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrDuplicateCell indicates two extracted cells claimed the same address on
// one sheet. This is an internal invariant violation, not a data error.
var ErrDuplicateCell = errors.New("duplicate sheet/cellref item when extracting cells")

// ExtractionError represents an error during extraction of one workbook.
type ExtractionError struct {
	File      string
	SheetName string
	Component string // "open", "package", "cells", "sharedStrings"
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.SheetName == "" {
		return fmt.Sprintf("extraction error in %s (%s): %v", e.File, e.Component, e.Err)
	}
	return fmt.Sprintf("extraction error in %s sheet %q (%s): %v", e.File, e.SheetName, e.Component, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(file, sheetName, component string, err error) *ExtractionError {
	return &ExtractionError{
		File:      file,
		SheetName: sheetName,
		Component: component,
		Err:       err,
	}
}
