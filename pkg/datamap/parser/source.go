package parser

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ukaji3/datamap-go/pkg/datamap/models"
)

// Checksum returns the hex MD5 digest of the file at path.
func Checksum(path string) (string, error) {
	_, sum, err := readSource(path)
	return sum, err
}

// readSource reads the whole file once; both engines parse from these bytes
// so their checksums are comparable.
func readSource(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, "", err
	}
	sum := md5.Sum(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// buildCellMap indexes a sheet's cells by address.
func buildCellMap(cells []models.ExtractedCell) (models.CellMap, error) {
	out := make(models.CellMap, len(cells))
	for _, c := range cells {
		if _, ok := out[c.CellRef]; ok {
			return nil, fmt.Errorf("%w: %s!%s", ErrDuplicateCell, c.Sheet, c.CellRef)
		}
		out[c.CellRef] = c
	}
	return out, nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
