// Package config loads datamap settings from defaults, an optional YAML
// file and DATAMAP_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/output"
)

// Config holds all datamap configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	Master  MasterConfig  `yaml:"master"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExtractConfig controls how return files are read.
type ExtractConfig struct {
	// Engine is "full" (excelize) or "container" (direct zip/XML).
	Engine string `yaml:"engine" env:"DATAMAP_ENGINE" default:"full"`

	// RowLimit is the per-sheet row cutoff for the full engine (default: 500, 0 = none)
	RowLimit int `yaml:"row_limit" env:"DATAMAP_ROW_LIMIT" default:"500"`

	// TrimToDatamap limits each sheet to the highest row the datamap uses.
	TrimToDatamap bool `yaml:"trim_to_datamap" env:"DATAMAP_TRIM_TO_DATAMAP" default:"false"`

	// Workers caps concurrent extractions (default: 0 = GOMAXPROCS)
	Workers int `yaml:"workers" env:"DATAMAP_WORKERS" default:"0"`

	// MinFiles is the fewest files that may survive reconciliation (default: 1)
	MinFiles int `yaml:"min_files" env:"DATAMAP_MIN_FILES" default:"1"`
}

// MasterConfig controls the master workbook layout.
type MasterConfig struct {
	SheetName       string `yaml:"sheet_name" env:"DATAMAP_MASTER_SHEET" default:"Master"`
	ReturnReference string `yaml:"return_reference" env:"DATAMAP_RETURN_REFERENCE" default:"Return Reference"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"DATAMAP_LOG_LEVEL" default:"info"`

	// Format is text or json (default: text)
	Format string `yaml:"format" env:"DATAMAP_LOG_FORMAT" default:"text"`
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if _, err := datamap.ParseEngine(c.Extract.Engine); err != nil {
		errs = append(errs, fmt.Sprintf("DATAMAP_ENGINE (%q) must be one of: full, container", c.Extract.Engine))
	}
	if c.Extract.RowLimit < 0 {
		errs = append(errs, "DATAMAP_ROW_LIMIT must be non-negative")
	}
	if c.Extract.Workers < 0 {
		errs = append(errs, "DATAMAP_WORKERS must be non-negative")
	}
	if c.Extract.MinFiles < 1 {
		errs = append(errs, "DATAMAP_MIN_FILES must be at least 1")
	}
	if strings.TrimSpace(c.Master.SheetName) == "" {
		errs = append(errs, "DATAMAP_MASTER_SHEET must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("DATAMAP_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("DATAMAP_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Options converts the extraction settings to pipeline options.
func (c *Config) Options() (datamap.Options, error) {
	engine, err := datamap.ParseEngine(c.Extract.Engine)
	if err != nil {
		return datamap.Options{}, err
	}
	opts := datamap.DefaultOptions()
	opts.Engine = engine
	opts.RowLimit = c.Extract.RowLimit
	opts.TrimToDatamap = c.Extract.TrimToDatamap
	opts.Workers = c.Extract.Workers
	opts.MinFiles = c.Extract.MinFiles
	return opts, nil
}

// MasterOptions returns the master workbook layout.
func (c *Config) MasterOptions() output.MasterOptions {
	return output.MasterOptions{
		SheetName:       c.Master.SheetName,
		ReturnReference: c.Master.ReturnReference,
	}
}
