// Package dataset reads historical hair health records from CSV or XLSX
// files and turns them into the numeric matrices the forests are fitted on.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/hairhealth/internal/domain/model"
)

// requiredColumns must appear in the header row. The issue column may be
// absent, in which case every record has no issues.
var requiredColumns = []string{
	model.ColStress, model.ColSleep, model.ColWater, model.ColPollution,
	model.ColColoring, model.ColBudget, model.ColGenetics, model.ColScore, model.ColRisk,
}

// Load reads the records at path. The format follows the file extension:
// .csv or .xlsx (first sheet).
func Load(ctx context.Context, path string) ([]model.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		return ReadCSV(ctx, f)
	case ".xlsx":
		return loadXLSX(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV parses CSV records from r.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(ctx, rows)
}

func loadXLSX(ctx context.Context, path string) ([]model.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return parseRows(ctx, rows)
}

// parseRows maps the header row to column positions and parses every data row.
func parseRows(ctx context.Context, rows [][]string) ([]model.Record, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	pos := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	records := make([]model.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if blank(row) {
			continue
		}
		rec, err := parseRow(row, pos, i+2)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

func parseRow(row []string, pos map[string]int, line int) (model.Record, error) {
	cell := func(col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	text := func(col string) (string, error) {
		v := cell(col)
		if v == "" {
			return "", &RowError{Line: line, Column: col, Err: errors.New("empty value")}
		}
		return v, nil
	}
	number := func(col string) (float64, error) {
		v := cell(col)
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, &RowError{Line: line, Column: col, Value: v, Err: err}
		}
		return f, nil
	}

	var (
		rec model.Record
		err error
	)
	if rec.Stress, err = text(model.ColStress); err != nil {
		return rec, err
	}
	if rec.Sleep, err = number(model.ColSleep); err != nil {
		return rec, err
	}
	if rec.Water, err = number(model.ColWater); err != nil {
		return rec, err
	}
	if rec.Pollution, err = text(model.ColPollution); err != nil {
		return rec, err
	}
	if rec.Coloring, err = text(model.ColColoring); err != nil {
		return rec, err
	}
	if rec.Budget, err = text(model.ColBudget); err != nil {
		return rec, err
	}
	if rec.Genetics, err = text(model.ColGenetics); err != nil {
		return rec, err
	}
	if rec.Score, err = number(model.ColScore); err != nil {
		return rec, err
	}
	if rec.Risk, err = text(model.ColRisk); err != nil {
		return rec, err
	}
	rec.Issues = model.ParseIssues(cell(model.ColIssues))
	return rec, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
