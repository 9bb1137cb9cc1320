package datamap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// blankTemplateMarker identifies the blank return form, which is never data.
const blankTemplateMarker = "blank_template"

// ExtractAll extracts every workbook in paths with a bounded pool of
// workers. The batch keeps the order of paths. The first failure cancels
// the remaining work and is returned.
func ExtractAll(ctx context.Context, paths []string, opts Options) (*models.Batch, error) {
	ext, err := opts.NewExtractor()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, name)
		}
		seen[name] = true
	}

	results := make([]*models.FileExtraction, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fe, err := ext.Extract(p)
			if err != nil {
				return err
			}
			results[i] = fe
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := models.NewBatch()
	for _, fe := range results {
		batch.Add(fe)
	}
	opts.logger().Info("extracted workbooks", "files", batch.Len(), "engine", string(opts.Engine))
	return batch, nil
}

// FindWorkbooks lists the .xlsx and .xlsm files in dir, skipping the blank
// template and Office lock files.
func FindWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xlsm" {
			continue
		}
		if strings.HasPrefix(name, "~$") || strings.Contains(name, blankTemplateMarker) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
