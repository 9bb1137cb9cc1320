package datamap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap/parser"
)

// Errors returned while reading workbooks.
var (
	ErrFileNotFound  = parser.ErrFileNotFound
	ErrInvalidFormat = parser.ErrInvalidFormat
	ErrDuplicateCell = parser.ErrDuplicateCell
)

// ErrDuplicateFile indicates two input paths share a file name.
var ErrDuplicateFile = errors.New("duplicate file name in batch")

// ErrUnknownEngine indicates an unsupported extraction engine.
var ErrUnknownEngine = errors.New("unknown extraction engine")

// ErrNoApplicableSheets indicates reconciliation rejected every file.
var ErrNoApplicableSheets = errors.New("no files contain the sheets required by the datamap")

// ErrTooFewFiles indicates fewer files than required survived reconciliation.
var ErrTooFewFiles = errors.New("too few files remain after reconciliation")

// ErrMissingSheet indicates an accepted file lacks a sheet the datamap
// requires. Reconciliation should have rejected it.
var ErrMissingSheet = errors.New("sheet missing from accepted file")

// ErrKeyMismatch indicates a master's keys differ from the datamap's.
var ErrKeyMismatch = errors.New("master keys do not match datamap keys")

// ExtractionError is returned by both extraction engines.
type ExtractionError = parser.ExtractionError

// KeyMismatchError lists how a master's keys differ from the datamap's.
type KeyMismatchError struct {
	// Missing are datamap keys absent from the master.
	Missing []string
	// Unexpected are master keys absent from the datamap.
	Unexpected []string
	// Misplaced are datamap keys present in the master at another row.
	Misplaced []string
}

func (e *KeyMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "not in master: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "not in datamap: "+strings.Join(e.Unexpected, ", "))
	}
	if len(e.Misplaced) > 0 {
		parts = append(parts, "out of order: "+strings.Join(e.Misplaced, ", "))
	}
	return fmt.Sprintf("%v (%s)", ErrKeyMismatch, strings.Join(parts, "; "))
}

func (e *KeyMismatchError) Unwrap() error {
	return ErrKeyMismatch
}
