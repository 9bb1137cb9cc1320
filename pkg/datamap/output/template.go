package output

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/datamap-go/pkg/datamap"
)

// BlankTemplate opens fresh copies of a blank return form. Saved copies go
// to OutDir and keep the template's extension.
type BlankTemplate struct {
	Path   string
	OutDir string
}

// Open implements datamap.Sink.
func (b BlankTemplate) Open() (datamap.Document, error) {
	f, err := excelize.OpenFile(b.Path)
	if err != nil {
		return nil, err
	}
	return &templateDoc{f: f, ext: filepath.Ext(b.Path), outDir: b.OutDir}, nil
}

type templateDoc struct {
	f      *excelize.File
	ext    string
	outDir string
}

func (d *templateDoc) HasSheet(sheet string) bool {
	idx, err := d.f.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

func (d *templateDoc) SetCellValue(sheet, cellref string, value interface{}) error {
	return d.f.SetCellValue(sheet, cellref, value)
}

func (d *templateDoc) Save(name string) (string, error) {
	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.outDir, name+d.ext)
	if err := d.f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func (d *templateDoc) Close() error {
	return d.f.Close()
}
