package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the ISO-8601 form used for date cells.
const DateLayout = "2006-01-02T15:04:05"

// DefaultRowLimit is the row cutoff applied per sheet by the full engine.
const DefaultRowLimit = 500

// Workbook extracts cells through excelize, resolving number formats so
// dates come back as dates.
type Workbook struct {
	// RowLimit skips rows beyond this number on every sheet. 0 means no limit.
	RowLimit int
	// SheetLimits overrides RowLimit for the named sheets.
	SheetLimits map[string]int
	Progress    func(string)
	Logger      *slog.Logger
}

// Extract reads every non-empty cell of every sheet in the workbook at path.
func (w Workbook) Extract(path string) (*models.FileExtraction, error) {
	name := filepath.Base(path)
	log := loggerOr(w.Logger).With("file", name, "engine", "full")

	data, sum, err := readSource(path)
	if err != nil {
		return nil, NewExtractionError(name, "", "open", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		log.Error("cannot open workbook, it does not conform to the xlsx format", "error", err)
		return nil, NewExtractionError(name, "", "open", fmt.Errorf("%w: %v", ErrInvalidFormat, err))
	}
	defer f.Close()

	if w.Progress != nil {
		w.Progress("Extracting " + name)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	out := &models.FileExtraction{
		File:     name,
		Path:     path,
		Checksum: sum,
		Sheets:   make(map[string]models.CellMap),
	}
	for _, sheet := range f.GetSheetList() {
		cells, err := w.extractSheet(f, name, sheet, date1904)
		if err != nil {
			return nil, NewExtractionError(name, sheet, "cells", err)
		}
		cm, err := buildCellMap(cells)
		if err != nil {
			return nil, NewExtractionError(name, sheet, "cells", err)
		}
		out.Sheets[sheet] = cm
		log.Debug("sheet extracted", "sheet", sheet, "cells", len(cm))
	}
	return out, nil
}

func (w Workbook) limitFor(sheet string) int {
	if l, ok := w.SheetLimits[sheet]; ok {
		return l
	}
	return w.RowLimit
}

func (w Workbook) extractSheet(f *excelize.File, file, sheet string, date1904 bool) ([]models.ExtractedCell, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c := classifier{f: f, sheet: sheet, date1904: date1904, dateStyles: make(map[int]bool)}
	limit := w.limitFor(sheet)

	var result []models.ExtractedCell
	rowNum := 0
	for rows.Next() {
		rowNum++
		if limit > 0 && rowNum > limit {
			break
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		for colIdx, raw := range cols {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				return nil, err
			}
			value, typ, err := c.classify(ref, raw)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", ref, err)
			}
			result = append(result, models.ExtractedCell{
				File:    file,
				Sheet:   sheet,
				CellRef: ref,
				Value:   value,
				Type:    typ,
			})
		}
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return result, nil
}

type classifier struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (c classifier) classify(ref, raw string) (interface{}, models.ValueType, error) {
	ct, err := c.f.GetCellType(c.sheet, ref)
	if err != nil {
		return nil, "", err
	}
	switch ct {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return strings.TrimSpace(raw), models.TypeText, nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), models.TypeNumber, nil
	case excelize.CellTypeDate:
		return raw, models.TypeDate, nil
	}

	v := parseValue(raw)
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s), models.TypeText, nil
	}
	isDate, err := c.isDateStyled(ref)
	if err != nil {
		return nil, "", err
	}
	if !isDate {
		return v, models.TypeNumber, nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, "", err
	}
	t, err := excelize.ExcelDateToTime(serial, c.date1904)
	if err != nil {
		return v, models.TypeNumber, nil
	}
	return t.Format(DateLayout), models.TypeDate, nil
}

func (c classifier) isDateStyled(ref string) (bool, error) {
	idx, err := c.f.GetCellStyle(c.sheet, ref)
	if err != nil {
		return false, err
	}
	if known, ok := c.dateStyles[idx]; ok {
		return known, nil
	}
	style, err := c.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	isDate := false
	if style.CustomNumFmt != nil {
		isDate = IsDateFormat(*style.CustomNumFmt)
	} else {
		isDate = isBuiltinDateFormat(style.NumFmt)
	}
	c.dateStyles[idx] = isDate
	return isDate, nil
}

func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// IsDateFormat reports whether a number format code renders a date or time.
// Quoted literals, escaped characters and bracketed sections such as colours
// and locales are ignored; elapsed-time brackets like [h] count as time.
func IsDateFormat(code string) bool {
	code = strings.ToLower(code)
	// Only the positive section decides.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var sb strings.Builder
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch ch {
		case '"':
			j := strings.IndexByte(code[i+1:], '"')
			if j < 0 {
				i = len(code)
			} else {
				i += j + 1
			}
		case '\\', '_', '*':
			i++
		case '[':
			j := strings.IndexByte(code[i:], ']')
			if j < 0 {
				i = len(code)
				continue
			}
			inner := code[i+1 : i+j]
			if inner == "h" || inner == "hh" || inner == "m" || inner == "mm" || inner == "s" || inner == "ss" {
				sb.WriteString(inner)
			}
			i += j
		default:
			sb.WriteByte(ch)
		}
	}
	stripped := sb.String()
	if strings.ContainsAny(stripped, "yd") {
		return true
	}
	if strings.ContainsAny(stripped, "hs") {
		return true
	}
	// A lone month token such as "mmm" is still a date.
	return strings.Contains(stripped, "m") && !strings.ContainsAny(stripped, "0#?")
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// Try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// Return as string
	return s
}

// ParseValue is parseValue for packages that re-type raw spreadsheet text.
func ParseValue(s string) interface{} {
	return parseValue(s)
}
