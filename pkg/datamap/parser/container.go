package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/xuri/excelize/v2"
)

// Container extracts cells by reading the xlsx zip container directly.
// It does not evaluate number formats, so it trades date detection for
// throughput on large batches.
type Container struct {
	Progress func(string)
	Logger   *slog.Logger
}

// Extract reads every worksheet cell that carries a value or formula.
func (c Container) Extract(path string) (*models.FileExtraction, error) {
	name := filepath.Base(path)
	log := loggerOr(c.Logger).With("file", name, "engine", "container")

	data, sum, err := readSource(path)
	if err != nil {
		return nil, NewExtractionError(name, "", "open", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Error("cannot open workbook, it does not conform to the xlsx format", "error", err)
		return nil, NewExtractionError(name, "", "open", fmt.Errorf("%w: %v", ErrInvalidFormat, err))
	}
	pkg, err := openPackage(zr)
	if err != nil {
		log.Error("cannot read workbook package", "error", err)
		return nil, NewExtractionError(name, "", "package", err)
	}

	if c.Progress != nil {
		c.Progress("Extracting " + name)
	}

	out := &models.FileExtraction{
		File:     name,
		Path:     path,
		Checksum: sum,
		Sheets:   make(map[string]models.CellMap),
	}
	for _, sheet := range pkg.sheets {
		if !pkg.isWorksheet(sheet.part) {
			log.Debug("skipping non-worksheet part", "sheet", sheet.name, "part", sheet.part)
			continue
		}
		cells, err := pkg.readWorksheet(name, sheet, log)
		if err != nil {
			return nil, NewExtractionError(name, sheet.name, "cells", err)
		}
		cm, err := buildCellMap(cells)
		if err != nil {
			return nil, NewExtractionError(name, sheet.name, "cells", err)
		}
		out.Sheets[sheet.name] = cm
	}
	return out, nil
}

// rawCell is a c element as it appears in the worksheet XML.
type rawCell struct {
	ref        string
	typ        string
	value      string
	inline     string
	hasValue   bool
	hasInline  bool
	hasFormula bool
}

func (p *xlsxPackage) readWorksheet(file string, sheet sheetPart, log *slog.Logger) ([]models.ExtractedCell, error) {
	zf, ok := p.files[sheet.part]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrInvalidFormat, sheet.part)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var result []models.ExtractedCell
	decoder := xml.NewDecoder(rc)
	row, col := 0, 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "row":
			next := row + 1
			if r := attr(se, "r"); r != "" {
				if n, err := strconv.Atoi(r); err == nil {
					next = n
				}
			}
			row, col = next, 0
		case "c":
			cell, err := readCell(decoder, se)
			if err != nil {
				return nil, err
			}
			if cell.ref == "" {
				col++
				cell.ref, err = excelize.CoordinatesToCellName(col, row)
				if err != nil {
					return nil, err
				}
			} else if c, _, err := excelize.CellNameToCoordinates(cell.ref); err == nil {
				col = c
			}
			if !cell.hasValue && !cell.hasInline && !cell.hasFormula {
				continue
			}
			value, typ, err := cell.convert(p.sharedStrings)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell.ref, err)
			}
			if cell.hasFormula && !cell.hasValue {
				log.Debug("formula cell has no cached value", "sheet", sheet.name, "cellref", cell.ref)
			}
			result = append(result, models.ExtractedCell{
				File:    file,
				Sheet:   sheet.name,
				CellRef: strings.ToUpper(cell.ref),
				Value:   value,
				Type:    typ,
			})
		}
	}
}

func readCell(decoder *xml.Decoder, start xml.StartElement) (rawCell, error) {
	cell := rawCell{ref: attr(start, "r"), typ: attr(start, "t")}
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return cell, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				cell.value, err = readElementText(decoder)
				cell.hasValue = true
				if err != nil {
					return cell, err
				}
				continue
			case "f":
				cell.hasFormula = true
				if _, err := readElementText(decoder); err != nil {
					return cell, err
				}
				continue
			case "is":
				cell.inline, err = readStringItem(decoder)
				cell.hasInline = true
				if err != nil {
					return cell, err
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return cell, nil
}

func (c rawCell) convert(sst []string) (interface{}, models.ValueType, error) {
	switch c.typ {
	case "s":
		if !c.hasValue {
			return nil, models.TypeText, nil
		}
		idx, err := strconv.Atoi(strings.TrimSpace(c.value))
		if err != nil {
			return nil, "", fmt.Errorf("shared string index %q: %w", c.value, err)
		}
		if idx < 0 || idx >= len(sst) {
			return nil, "", fmt.Errorf("shared string index %d out of range", idx)
		}
		return sst[idx], models.TypeText, nil
	case "inlineStr":
		if c.hasInline {
			return c.inline, models.TypeText, nil
		}
		if c.hasValue {
			return c.value, models.TypeText, nil
		}
		return nil, models.TypeText, nil
	case "str", "e":
		if !c.hasValue {
			return nil, models.TypeText, nil
		}
		return c.value, models.TypeText, nil
	case "b":
		if !c.hasValue {
			return nil, models.TypeNumber, nil
		}
		return strings.TrimSpace(c.value) == "1", models.TypeNumber, nil
	case "d":
		if !c.hasValue {
			return nil, models.TypeDate, nil
		}
		return c.value, models.TypeDate, nil
	default:
		if !c.hasValue {
			return nil, models.TypeNumber, nil
		}
		v := parseValue(strings.TrimSpace(c.value))
		if s, ok := v.(string); ok {
			return s, models.TypeText, nil
		}
		return v, models.TypeNumber, nil
	}
}
