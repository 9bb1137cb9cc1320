package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// ReportHeader is the first row of a validation report.
var ReportHeader = []string{
	"Pass Status", "Filename", "Key", "Value", "Cell Reference",
	"Sheet Name", "Expected Type", "Got Type",
}

// ReportName returns the report file name for a run started at now.
func ReportName(now time.Time) string {
	return "validation_report_" + now.Format("20060102_150405") + ".csv"
}

// WriteReport writes records as CSV into dir and returns the file path.
func WriteReport(records []models.ValidationRecord, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ReportName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ReportHeader); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			string(r.Outcome), r.File, r.Key, r.Value, r.CellRef,
			r.Sheet, r.Wanted, r.Got,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}
