package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ukaji3/datamap-go/pkg/datamap"
	"github.com/ukaji3/datamap-go/pkg/datamap/models"
	"github.com/ukaji3/datamap-go/pkg/datamap/parser"
)

// ErrNotInSnapshot indicates a file was not part of the snapshotted batch.
var ErrNotInSnapshot = errors.New("file not in snapshot")

// Snapshot is a saved batch, used to tell whether return files changed
// since they were imported. It records how the batch was extracted so a
// later comparison reads files the same way.
type Snapshot struct {
	Created     time.Time      `json:"created"`
	Engine      datamap.Engine `json:"engine"`
	RowLimit    int            `json:"row_limit,omitempty"`
	SheetLimits map[string]int `json:"sheet_limits,omitempty"`
	Batch       *models.Batch  `json:"batch"`
}

// WriteSnapshot saves the batch as JSON along with the extraction settings
// in opts.
func WriteSnapshot(batch *models.Batch, path string, opts datamap.Options, now time.Time) error {
	engine := opts.Engine
	if engine == "" {
		engine = datamap.EngineFull
	}
	s := Snapshot{
		Created:     now,
		Engine:      engine,
		RowLimit:    opts.RowLimit,
		SheetLimits: opts.SheetLimits,
		Batch:       batch,
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. Numbers come back
// as float64.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if s.Batch == nil {
		s.Batch = models.NewBatch()
	}
	return &s, nil
}

// Options returns base with the snapshot's extraction settings applied.
// Snapshots without an engine keep base's settings.
func (s *Snapshot) Options(base datamap.Options) datamap.Options {
	if s.Engine == "" {
		return base
	}
	base.Engine = s.Engine
	base.RowLimit = s.RowLimit
	base.SheetLimits = s.SheetLimits
	return base
}

// Unchanged reports whether the file at path still has the checksum
// recorded for its name.
func (s *Snapshot) Unchanged(path string) (bool, error) {
	name := filepath.Base(path)
	fe, ok := s.Batch.Get(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotInSnapshot, name)
	}
	sum, err := parser.Checksum(path)
	if err != nil {
		return false, err
	}
	return sum == fe.Checksum, nil
}
