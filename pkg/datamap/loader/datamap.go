// Package loader reads datamap CSV files.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"golang.org/x/text/encoding/charmap"
)

// Accepted header spellings, matched case-insensitively.
var (
	keyHeaders     = []string{"cell_key", "cellkey", "key"}
	sheetHeaders   = []string{"template_sheet", "sheet", "templatesheet"}
	cellrefHeaders = []string{"cell_reference", "cell_ref", "cellref", "cellreference"}
	typeHeaders    = []string{"type", "value_type", "cell_type", "celltype"}
)

var cellrefPattern = regexp.MustCompile(`^[A-Z]+[0-9]+$`)

// Options configures datamap loading.
type Options struct {
	// Progress receives short status messages. Nil means no-op.
	Progress func(string)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) progress(msg string) {
	if o.Progress != nil {
		o.Progress(msg)
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Header records which column holds each datamap field. Type is -1 when the
// datamap has no type column.
type Header struct {
	Key     int
	Sheet   int
	CellRef int
	Type    int
}

// Load reads a datamap CSV and returns its entries in file order.
// Any invalid line aborts the whole load.
func Load(path string, opts Options) ([]models.DatamapEntry, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotCSV)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opts.progress(fmt.Sprintf("Checking datamap file %s", path))
	text, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entries, err := parse(strings.NewReader(text), path)
	if err != nil {
		return nil, err
	}

	opts.logger().Info("datamap loaded", "path", path, "entries", len(entries))
	opts.progress(fmt.Sprintf("%s checked ok", path))
	return entries, nil
}

// decode applies the encoding heuristic: a non-ASCII first byte is rejected
// outright, otherwise UTF-8 is tried before falling back to Latin-1.
func decode(raw []byte) (string, error) {
	if len(raw) > 0 && raw[0] >= utf8.RuneSelf {
		return "", ErrEncoding
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	latin, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return string(latin), nil
}

func parse(r io.Reader, source string) ([]models.DatamapEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	top, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: datamap is empty", ErrMalformedHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	header, err := ParseHeader(top)
	if err != nil {
		return nil, err
	}

	var entries []models.DatamapEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &LineError{Line: perr.Line, Err: err}
			}
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		entry, err := header.entry(record, source)
		if err != nil {
			return nil, &LineError{Line: line, Key: entry.Key, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseHeader locates the datamap columns in a header row.
func ParseHeader(top []string) (Header, error) {
	switch len(top) {
	case 0, 1:
		return Header{}, fmt.Errorf("%w: datamap contains only one header - need at least three", ErrMalformedHeader)
	case 2:
		return Header{}, fmt.Errorf("%w: datamap contains only two headers - need at least three", ErrMalformedHeader)
	}

	h := Header{Key: -1, Sheet: -1, CellRef: -1, Type: -1}
	for i, name := range top {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case h.Key < 0 && contains(keyHeaders, name):
			h.Key = i
		case h.Sheet < 0 && contains(sheetHeaders, name):
			h.Sheet = i
		case h.CellRef < 0 && contains(cellrefHeaders, name):
			h.CellRef = i
		case h.Type < 0 && contains(typeHeaders, name):
			h.Type = i
		}
	}

	var missing []string
	if h.Key < 0 {
		missing = append(missing, "key")
	}
	if h.Sheet < 0 {
		missing = append(missing, "sheet")
	}
	if h.CellRef < 0 {
		missing = append(missing, "cellref")
	}
	if len(missing) > 0 {
		return Header{}, fmt.Errorf("%w: no column for %s in %q", ErrMalformedHeader, strings.Join(missing, ", "), top)
	}
	return h, nil
}

func (h Header) entry(record []string, source string) (models.DatamapEntry, error) {
	key := strings.TrimSpace(field(record, h.Key))
	sheet := strings.TrimSpace(field(record, h.Sheet))
	cellref := strings.ToUpper(strings.TrimSpace(field(record, h.CellRef)))

	entry := models.DatamapEntry{
		Key:        key,
		Sheet:      sheet,
		CellRef:    cellref,
		SourceFile: source,
	}

	switch {
	case key == "" && sheet == "" && cellref == "":
		return entry, ErrMissingLine
	case sheet == "":
		return entry, ErrMissingSheetField
	case key == "":
		return entry, fmt.Errorf("%w (sheet %s, cell %s)", ErrMissingCellKey, sheet, cellref)
	case !cellrefPattern.MatchString(cellref):
		return entry, fmt.Errorf("%w: %q", ErrInvalidCellRef, cellref)
	}

	if h.Type >= 0 {
		t := models.ValueType(strings.TrimSpace(field(record, h.Type)))
		entry.Type = &t
	}
	return entry, nil
}

// MaxRows returns the highest row referenced on each sheet.
func MaxRows(entries []models.DatamapEntry) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		row := rowOf(e.CellRef)
		if row > out[e.Sheet] {
			out[e.Sheet] = row
		}
	}
	return out
}

// Sheets returns the distinct sheets named by entries in first-seen order.
func Sheets(entries []models.DatamapEntry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.Sheet] {
			seen[e.Sheet] = true
			out = append(out, e.Sheet)
		}
	}
	return out
}

func rowOf(cellref string) int {
	row := 0
	for _, r := range cellref {
		if r >= '0' && r <= '9' {
			row = row*10 + int(r-'0')
		}
	}
	return row
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
