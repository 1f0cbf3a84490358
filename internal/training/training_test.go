package training_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/okian/hairhealth/internal/adapters/dataset"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/internal/training"
	. "github.com/smartystreets/goconvey/convey"
)

// syntheticRecords builds a deterministic dataset where stress and sleep
// drive the score and the score drives the risk level.
func syntheticRecords(n int) []model.Record {
	stress := []string{"Low", "Moderate", "High"}
	levels := []string{"Low", "Moderate", "High"}
	freq := []string{"Never", "Rarely", "Often"}
	budget := []string{"Low", "Medium", "High"}
	genetics := []string{"Poor", "Average", "Good"}

	out := make([]model.Record, n)
	for i := range out {
		in := model.Input{
			Stress:    stress[i%3],
			Sleep:     float64(4 + i%5),
			Water:     float64(1 + i%3),
			Pollution: levels[(i/3)%3],
			Coloring:  freq[(i/2)%3],
			Budget:    budget[(i/5)%3],
			Genetics:  genetics[(i/7)%3],
		}
		if i%4 == 0 {
			in.Issues = []string{model.IssueDandruff}
		}
		score := 30 + 8*in.Sleep - 10*float64(i%3)
		risk := "Low"
		switch {
		case score < 50:
			risk = "High"
		case score < 70:
			risk = "Medium"
		}
		out[i] = model.Record{Input: in, Score: score, Risk: risk}
	}
	return out
}

func TestSplit(t *testing.T) {
	Convey("Given ten rows and a 20% hold-out", t, func() {
		train, test, err := training.Split(10, 0.2, 42)

		Convey("Then the partitions have the expected sizes", func() {
			So(err, ShouldBeNil)
			So(len(train), ShouldEqual, 8)
			So(len(test), ShouldEqual, 2)
		})

		Convey("Then together they cover every row exactly once", func() {
			all := append(append([]int(nil), train...), test...)
			sort.Ints(all)
			So(all, ShouldResemble, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
		})

		Convey("Then the same seed gives the same partition", func() {
			train2, test2, err := training.Split(10, 0.2, 42)
			So(err, ShouldBeNil)
			So(train2, ShouldResemble, train)
			So(test2, ShouldResemble, test)
		})
	})

	Convey("Given a fraction that would empty the training side", t, func() {
		train, test, err := training.Split(3, 0.9, 1)
		So(err, ShouldBeNil)
		So(len(train), ShouldEqual, 1)
		So(len(test), ShouldEqual, 2)
	})

	Convey("Given invalid arguments", t, func() {
		_, _, err := training.Split(1, 0.2, 1)
		So(errors.Is(err, training.ErrInvalidSplit), ShouldBeTrue)
		_, _, err = training.Split(10, 0, 1)
		So(errors.Is(err, training.ErrInvalidSplit), ShouldBeTrue)
		_, _, err = training.Split(10, 1, 1)
		So(errors.Is(err, training.ErrInvalidSplit), ShouldBeTrue)
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given regression predictions", t, func() {
		m, err := training.EvaluateRegression([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 5})

		So(err, ShouldBeNil)
		So(m.RMSE, ShouldAlmostEqual, 0.5, 1e-12)
		So(m.MAE, ShouldAlmostEqual, 0.25, 1e-12)
		So(m.R2, ShouldAlmostEqual, 0.8, 1e-12)
	})

	Convey("Given a constant held-out target", t, func() {
		m, err := training.EvaluateRegression([]float64{3, 3}, []float64{3, 4})
		So(err, ShouldBeNil)
		So(math.IsNaN(m.R2), ShouldBeFalse)
	})

	Convey("Given classification predictions", t, func() {
		m, err := training.EvaluateClassification([]int{0, 1, 1, 2}, []int{0, 1, 2, 2}, []string{"a", "b", "c"})

		So(err, ShouldBeNil)
		So(m.Accuracy, ShouldEqual, 0.75)
		So(m.Confusion, ShouldResemble, [][]int{{1, 0, 0}, {0, 1, 1}, {0, 0, 1}})
		So(m.Labels, ShouldResemble, []string{"a", "b", "c"})
	})

	Convey("Given mismatched lengths", t, func() {
		_, err := training.EvaluateRegression([]float64{1}, nil)
		So(errors.Is(err, training.ErrLengthMismatch), ShouldBeTrue)
		_, err = training.EvaluateClassification([]int{1}, nil, nil)
		So(errors.Is(err, training.ErrLengthMismatch), ShouldBeTrue)
	})
}

func TestTrainer(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an encoded synthetic dataset", t, func() {
		enc, err := dataset.Encode(syntheticRecords(60))
		So(err, ShouldBeNil)

		newTrainer := func() *training.Trainer {
			return training.NewTrainer(
				training.WithSeed(7),
				training.WithForestOptions(forest.WithTrees(15)),
				training.WithDatasetName("synthetic"),
				training.WithClock(func() time.Time { return fixed }),
			)
		}

		res, err := newTrainer().Train(ctx, enc)

		Convey("Then a complete bundle is produced", func() {
			So(err, ShouldBeNil)
			So(res.Bundle.Validate(), ShouldBeNil)
			So(res.Bundle.Score.Params.Trees, ShouldEqual, 15)
			So(res.Bundle.Score.Params.Seed, ShouldEqual, 7)
		})

		Convey("Then the report describes the run", func() {
			r := res.Report
			So(r.TrainedAt, ShouldEqual, fixed)
			So(r.Dataset, ShouldEqual, "synthetic")
			So(r.Rows, ShouldEqual, 60)
			So(r.TrainRows, ShouldEqual, 48)
			So(r.TestRows, ShouldEqual, 12)
			So(r.Score.RMSE, ShouldBeGreaterThanOrEqualTo, 0)
			So(r.Score.MAE, ShouldBeLessThanOrEqualTo, r.Score.RMSE)
			So(r.Risk.Accuracy, ShouldBeBetweenOrEqual, 0, 1)
			So(len(r.Risk.Confusion), ShouldEqual, len(r.Risk.Labels))
			So(len(r.ScoreImportances), ShouldEqual, model.NumFeatures)
		})

		Convey("Then the score model learned the signal", func() {
			So(res.Report.Score.R2, ShouldBeGreaterThan, 0.5)
		})

		Convey("Then retraining with the same seed is reproducible", func() {
			again, err := newTrainer().Train(ctx, enc)
			So(err, ShouldBeNil)
			So(again.Report, ShouldResemble, res.Report)
		})
	})

	Convey("Given a dataset too small to split", t, func() {
		enc, err := dataset.Encode(syntheticRecords(1))
		So(err, ShouldBeNil)

		_, err = training.NewTrainer().Train(ctx, enc)
		So(errors.Is(err, training.ErrInvalidSplit), ShouldBeTrue)
	})

	Convey("Given a cancelled context", t, func() {
		enc, err := dataset.Encode(syntheticRecords(20))
		So(err, ShouldBeNil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = training.NewTrainer().Train(cctx, enc)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
