// Package dataset appends collection runs to the growing CSV dataset:
// one raw file per date, plus a master file rebuilt from the raw files.
package dataset

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/model"
)

// Writer owns the data directory layout: <dir>/raw/<date>.csv per run and
// <dir>/master.csv spanning all runs.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer rooted at dataDir.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// WriteDaily writes the run's records to raw/<date>.csv, overwriting any
// previous file for the same date, then rebuilds the master dataset.
// Returns the raw file path.
func (w *Writer) WriteDaily(date string, records []model.DailyRecord) (string, error) {
	rawDir := filepath.Join(w.dataDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "dataset: create %s", rawDir)
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return "", eris.Wrap(err, "dataset: marshal records")
	}

	path := filepath.Join(rawDir, date+".csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "dataset: write %s", path)
	}

	if err := w.RebuildMaster(); err != nil {
		return "", err
	}
	return path, nil
}

// RebuildMaster concatenates every raw file, in date order, into
// master.csv. Unreadable raw files are skipped with a warning so one bad
// file cannot poison the whole dataset.
func (w *Writer) RebuildMaster() error {
	rawDir := filepath.Join(w.dataDir, "raw")
	paths, err := filepath.Glob(filepath.Join(rawDir, "*.csv"))
	if err != nil {
		return eris.Wrap(err, "dataset: glob raw files")
	}
	sort.Strings(paths)

	combined := []model.DailyRecord{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("skipping unreadable raw file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		var records []model.DailyRecord
		if err := csvutil.Unmarshal(data, &records); err != nil {
			zap.L().Warn("skipping malformed raw file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		combined = append(combined, records...)
	}

	data, err := csvutil.Marshal(combined)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal master")
	}

	master := filepath.Join(w.dataDir, "master.csv")
	if err := os.WriteFile(master, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", master)
	}
	return nil
}
