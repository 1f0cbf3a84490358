package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/hairhealth/internal/adapters/dataset"
	"github.com/okian/hairhealth/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const header = "Stress Level,Sleep Hours,Water Intake (L),Pollution Exposure,Hair Coloring Frequency,Hair Issues,Hair Care Budget,Genetic/Hormonal Wellness,Hair Health Score,Hair Risk Level\n"

const sampleCSV = header +
	`High,5,1.5,High,Often,"Hair Fall, Dandruff",Low,Poor,32,High` + "\n" +
	`Low,8,3,Low,Never,,High,Good,85,Low` + "\n" +
	`Moderate,7,2,Moderate,Rarely,Dryness,Medium,Average,61.5,Medium` + "\n"

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)
	return path
}

func TestLoadCSV(t *testing.T) {
	ctx := context.Background()

	Convey("Given a well-formed CSV dataset", t, func() {
		path := writeFile(t.TempDir(), "hair.csv", sampleCSV)

		records, err := dataset.Load(ctx, path)

		Convey("Then every row is parsed", func() {
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 3)

			first := records[0]
			So(first.Stress, ShouldEqual, "High")
			So(first.Sleep, ShouldEqual, 5.0)
			So(first.Water, ShouldEqual, 1.5)
			So(first.Issues, ShouldResemble, []string{"Hair Fall", "Dandruff"})
			So(first.Score, ShouldEqual, 32.0)
			So(first.Risk, ShouldEqual, "High")
		})

		Convey("Then a missing issue cell means no issues", func() {
			So(records[1].Issues, ShouldBeEmpty)
			So(records[1].IssueCount(), ShouldEqual, 0)
		})
	})

	Convey("Given columns in a different order", t, func() {
		csv := "Hair Risk Level,Hair Health Score,Genetic/Hormonal Wellness,Hair Care Budget,Hair Coloring Frequency,Pollution Exposure,Water Intake (L),Sleep Hours,Stress Level\n" +
			"Low,90,Good,High,Never,Low,3,8,Low\n"

		records, err := dataset.ReadCSV(ctx, strings.NewReader(csv))

		Convey("Then cells are mapped by header name", func() {
			So(err, ShouldBeNil)
			So(records[0].Stress, ShouldEqual, "Low")
			So(records[0].Sleep, ShouldEqual, 8.0)
			So(records[0].Score, ShouldEqual, 90.0)
			So(records[0].Issues, ShouldBeNil)
		})
	})

	Convey("Given a non-numeric sleep value", t, func() {
		csv := header + "High,lots,1.5,High,Often,,Low,Poor,32,High\n"

		_, err := dataset.ReadCSV(ctx, strings.NewReader(csv))

		Convey("Then the error names the line and column", func() {
			var rowErr *dataset.RowError
			So(errors.As(err, &rowErr), ShouldBeTrue)
			So(rowErr.Line, ShouldEqual, 2)
			So(rowErr.Column, ShouldEqual, model.ColSleep)
			So(rowErr.Value, ShouldEqual, "lots")
			So(errors.Is(err, dataset.ErrMalformedRow), ShouldBeTrue)
		})
	})

	Convey("Given an empty categorical cell", t, func() {
		csv := header + ",5,1.5,High,Often,,Low,Poor,32,High\n"

		_, err := dataset.ReadCSV(ctx, strings.NewReader(csv))
		So(errors.Is(err, dataset.ErrMalformedRow), ShouldBeTrue)
	})

	Convey("Given a header without the score column", t, func() {
		csv := "Stress Level,Sleep Hours\nHigh,5\n"

		_, err := dataset.ReadCSV(ctx, strings.NewReader(csv))
		So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "Water Intake (L)")
	})

	Convey("Given only a header", t, func() {
		_, err := dataset.ReadCSV(ctx, strings.NewReader(header))
		So(errors.Is(err, dataset.ErrNoRows), ShouldBeTrue)
	})

	Convey("Given an unknown extension", t, func() {
		_, err := dataset.Load(ctx, "hair.parquet")
		So(errors.Is(err, dataset.ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func TestLoadXLSX(t *testing.T) {
	Convey("Given the sample dataset as a workbook", t, func() {
		path := filepath.Join(t.TempDir(), "hair.xlsx")
		f := excelize.NewFile()
		rows, err := dataset.ReadCSV(context.Background(), strings.NewReader(sampleCSV))
		So(err, ShouldBeNil)

		So(f.SetSheetRow("Sheet1", "A1", &[]any{
			model.ColStress, model.ColSleep, model.ColWater, model.ColPollution, model.ColColoring,
			model.ColIssues, model.ColBudget, model.ColGenetics, model.ColScore, model.ColRisk,
		}), ShouldBeNil)
		for i, r := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			So(f.SetSheetRow("Sheet1", cell, &[]any{
				r.Stress, r.Sleep, r.Water, r.Pollution, r.Coloring,
				strings.Join(r.Issues, ","), r.Budget, r.Genetics, r.Score, r.Risk,
			}), ShouldBeNil)
		}
		So(f.SaveAs(path), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		records, err := dataset.Load(context.Background(), path)

		Convey("Then it reads the same records as the CSV", func() {
			So(err, ShouldBeNil)
			So(records, ShouldResemble, rows)
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given parsed records", t, func() {
		records, err := dataset.ReadCSV(context.Background(), strings.NewReader(sampleCSV))
		So(err, ShouldBeNil)

		enc, err := dataset.Encode(records)

		Convey("Then the matrix follows the feature column order", func() {
			So(err, ShouldBeNil)
			So(enc.Rows(), ShouldEqual, 3)
			So(enc.X[0], ShouldResemble, []float64{0, 5, 1.5, 0, 0, 2, 0, 0})
			So(enc.X[2], ShouldResemble, []float64{2, 7, 2, 2, 2, 1, 2, 2})
			So(enc.Scores, ShouldResemble, []float64{32, 85, 61.5})
		})

		Convey("Then risk labels are encoded in first-seen order", func() {
			So(enc.Risks, ShouldResemble, []int{0, 1, 2})
			So(enc.RiskEncoder.Classes, ShouldResemble, []string{"High", "Low", "Medium"})
		})

		Convey("Then every categorical column has an encoder", func() {
			So(enc.Encoders.Validate(), ShouldBeNil)
		})
	})

	Convey("Given no records", t, func() {
		_, err := dataset.Encode(nil)
		So(errors.Is(err, dataset.ErrNoRows), ShouldBeTrue)
	})
}

func TestProfile(t *testing.T) {
	Convey("Given parsed records", t, func() {
		records, err := dataset.ReadCSV(context.Background(), strings.NewReader(sampleCSV))
		So(err, ShouldBeNil)

		p, err := dataset.Profile(records)

		Convey("Then the summary reflects the data", func() {
			So(err, ShouldBeNil)
			So(p.Rows, ShouldEqual, 3)
			So(p.Score.Min, ShouldEqual, 32.0)
			So(p.Score.Max, ShouldEqual, 85.0)
			So(p.Score.Median, ShouldEqual, 61.5)
			So(p.RiskCounts, ShouldResemble, map[string]int{"High": 1, "Low": 1, "Medium": 1})
			So(p.IssueCounts["Dandruff"], ShouldEqual, 1)
		})
	})

	Convey("Given no records", t, func() {
		_, err := dataset.Profile(nil)
		So(errors.Is(err, dataset.ErrNoRows), ShouldBeTrue)
	})
}
