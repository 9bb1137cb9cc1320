package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	contentTypesPart = "[Content_Types].xml"
	workbookPart     = "xl/workbook.xml"
	workbookRelsPart = "xl/_rels/workbook.xml.rels"
	sharedStringPart = "xl/sharedStrings.xml"

	worksheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	worksheetMacroType   = "application/vnd.ms-excel.worksheet"
	sharedStringsRelType = "/sharedStrings"
)

// sheetPart is a workbook sheet and the package part holding its XML.
type sheetPart struct {
	name string
	rID  string
	part string
}

// xlsxPackage is the parsed manifest of an xlsx zip container.
type xlsxPackage struct {
	files         map[string]*zip.File
	worksheets    map[string]bool
	sheets        []sheetPart
	sharedStrings []string
}

func openPackage(r *zip.Reader) (*xlsxPackage, error) {
	pkg := &xlsxPackage{files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		pkg.files[f.Name] = f
	}

	ct, err := pkg.read(contentTypesPart)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidFormat, contentTypesPart)
	}
	pkg.worksheets = parseContentTypes(ct)

	wb, err := pkg.read(workbookPart)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidFormat, workbookPart)
	}
	pkg.sheets = parseWorkbookSheets(wb)

	rels, err := pkg.read(workbookRelsPart)
	if err != nil {
		return nil, err
	}
	targets, sstTarget := parseWorkbookRels(rels)
	for i := range pkg.sheets {
		if target, ok := targets[pkg.sheets[i].rID]; ok {
			pkg.sheets[i].part = resolveRelativePath(target, "xl")
		}
	}

	sstPath := sharedStringPart
	if sstTarget != "" {
		sstPath = resolveRelativePath(sstTarget, "xl")
	}
	if f, ok := pkg.files[sstPath]; ok {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		pkg.sharedStrings, err = parseSharedStrings(rc)
		if err != nil {
			return nil, fmt.Errorf("shared strings: %w", err)
		}
	}
	return pkg, nil
}

// isWorksheet reports whether a part is declared as a worksheet in the
// content-type manifest. Chartsheets and dialog sheets are not.
func (p *xlsxPackage) isWorksheet(part string) bool {
	return part != "" && p.worksheets[part]
}

// read returns the part's bytes, or nil when the part is absent.
func (p *xlsxPackage) read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func parseContentTypes(data []byte) map[string]bool {
	result := make(map[string]bool)
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Override" {
			continue
		}
		ct := attr(se, "ContentType")
		if ct == worksheetContentType || strings.HasPrefix(ct, worksheetMacroType) {
			result[strings.TrimPrefix(attr(se, "PartName"), "/")] = true
		}
	}
	return result
}

func parseWorkbookSheets(data []byte) []sheetPart {
	var result []sheetPart
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var name, rID string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					name = a.Value
				case "id":
					rID = a.Value
				}
			}
			if name != "" && rID != "" {
				result = append(result, sheetPart{name: name, rID: rID})
			}
		}
	}
	return result
}

// parseWorkbookRels maps relationship id to target and also returns the
// shared-string table's target when one is declared.
func parseWorkbookRels(data []byte) (map[string]string, string) {
	result := make(map[string]string)
	var sst string
	if data == nil {
		return result, sst
	}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			rID, target := attr(se, "Id"), attr(se, "Target")
			if rID != "" && target != "" {
				result[rID] = target
			}
			if strings.HasSuffix(attr(se, "Type"), sharedStringsRelType) {
				sst = target
			}
		}
	}
	return result, sst
}

func parseSharedStrings(r io.Reader) ([]string, error) {
	var result []string
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "si" {
			s, err := readStringItem(decoder)
			if err != nil {
				return nil, err
			}
			result = append(result, s)
		}
	}
}

// readStringItem concatenates the text runs of an si or is element, leaving
// out phonetic runs. The decoder must be positioned just past the start tag.
func readStringItem(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth, inText, phonetic := 1, false, 0
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "rPh":
				phonetic++
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inText = false
			case "rPh":
				phonetic--
			}
		case xml.CharData:
			if inText && phonetic == 0 {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func readElementText(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := token.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return sb.String(), nil
}

func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "../") {
		clean := target
		for strings.HasPrefix(clean, "../") {
			clean = strings.TrimPrefix(clean, "../")
		}
		return clean
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return baseDir + "/" + target
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
