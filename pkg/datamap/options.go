// Package datamap collects values from a batch of Excel return files into a
// master table using a datamap, and writes a master back out to templates.
package datamap

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/parser"
)

// Engine selects how workbooks are read.
type Engine string

const (
	// EngineFull reads through excelize and resolves number formats, so
	// dates are recognised. Rows beyond RowLimit are skipped.
	EngineFull Engine = "full"
	// EngineContainer streams the worksheet XML straight from the zip
	// container. Faster on large batches; dates stored as serials stay
	// numbers.
	EngineContainer Engine = "container"
)

// ParseEngine converts a configuration string to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(s); e {
	case EngineFull, EngineContainer:
		return e, nil
	case "":
		return EngineFull, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
}

// Options configures the import and export pipelines.
type Options struct {
	// Engine selects the cell extractor.
	Engine Engine
	// RowLimit is the per-sheet row cutoff for the full engine. 0 means
	// no limit.
	RowLimit int
	// TrimToDatamap bounds each sheet at the highest row the datamap
	// references instead of RowLimit.
	TrimToDatamap bool
	// SheetLimits overrides RowLimit per sheet. Import fills it from the
	// datamap when TrimToDatamap is set.
	SheetLimits map[string]int
	// Workers caps concurrent extractions. 0 means GOMAXPROCS.
	Workers int
	// MinFiles is the fewest files that may survive reconciliation.
	MinFiles int
	// Progress receives short status messages. May be nil.
	Progress func(string)
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns default pipeline options.
func DefaultOptions() Options {
	return Options{
		Engine:   EngineFull,
		RowLimit: parser.DefaultRowLimit,
		MinFiles: 1,
	}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) progress(msg string) {
	if o.Progress != nil {
		o.Progress(msg)
	}
}

// Extractor reads one workbook into a FileExtraction.
type Extractor interface {
	Extract(path string) (*models.FileExtraction, error)
}

// NewExtractor returns the extractor selected by o.Engine.
func (o Options) NewExtractor() (Extractor, error) {
	switch o.Engine {
	case EngineFull, "":
		return parser.Workbook{
			RowLimit:    o.RowLimit,
			SheetLimits: o.SheetLimits,
			Progress:    o.Progress,
			Logger:      o.logger(),
		}, nil
	case EngineContainer:
		return parser.Container{
			Progress: o.Progress,
			Logger:   o.logger(),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, o.Engine)
}
