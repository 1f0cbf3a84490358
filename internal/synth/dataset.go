package synth

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
)

var datasetHeader = []string{
	model.ColStress, model.ColSleep, model.ColWater, model.ColPollution, model.ColColoring,
	model.ColIssues, model.ColBudget, model.ColGenetics, model.ColScore, model.ColRisk,
}

// WriteCSV writes records in the dataset layout the trainer reads.
func WriteCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(datasetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		row := []string{
			r.Stress,
			strconv.FormatFloat(r.Sleep, 'f', -1, 64),
			strconv.FormatFloat(r.Water, 'f', -1, 64),
			r.Pollution,
			r.Coloring,
			strings.Join(r.Issues, ", "),
			r.Budget,
			r.Genetics,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.Risk,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDataset generates rows labelled records with seed and saves them as CSV at path.
func WriteDataset(ctx context.Context, path string, rows int, seed int64) error {
	if rows < 1 {
		return fmt.Errorf("rows must be positive, got %d", rows)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	records := NewGenerator(seed).Records(rows)
	if err := WriteCSV(file, records); err != nil {
		return err
	}
	logger.Get().Info(ctx, "synthetic dataset written",
		logger.String("path", path),
		logger.Int("rows", rows),
		logger.Any("seed", seed))
	return nil
}
