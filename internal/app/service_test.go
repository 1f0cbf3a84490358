package service_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/hairhealth/internal/adapters/dataset"
	service "github.com/okian/hairhealth/internal/app"
	"github.com/okian/hairhealth/internal/domain/bundle"
	"github.com/okian/hairhealth/internal/domain/encoding"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/internal/domain/scoring"
	"github.com/okian/hairhealth/internal/domain/tips"
	"github.com/okian/hairhealth/internal/synth"
	"github.com/okian/hairhealth/internal/training"
	"github.com/okian/hairhealth/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWith(&bytes.Buffer{}, logger.FormatText); err != nil {
		panic(err)
	}
}

var (
	bundleOnce sync.Once
	testBundle *bundle.Bundle
)

// trainedBundle fits small forests on synthetic data once per test binary.
func trainedBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	bundleOnce.Do(func() {
		enc, err := dataset.Encode(synth.NewGenerator(1).Records(300))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		res, err := training.NewTrainer(training.WithForestOptions(forest.WithTrees(20))).Train(context.Background(), enc)
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		testBundle = res.Bundle
	})
	return testBundle
}

func scenarioInput() model.Input {
	return model.Input{
		Stress: "High", Sleep: 5, Water: 1.5, Pollution: "Moderate", Coloring: "Rarely",
		Issues: []string{"Hair Fall", "Dandruff"}, Budget: "Medium", Genetics: "Average",
	}
}

func TestService_New(t *testing.T) {
	Convey("Given no bundle", t, func() {
		svc, err := service.New()

		Convey("Then construction fails", func() {
			So(svc, ShouldBeNil)
			So(errors.Is(err, service.ErrNoModels), ShouldBeTrue)
		})
	})

	Convey("Given an incomplete bundle", t, func() {
		_, err := service.New(service.WithBundle(&bundle.Bundle{}))

		So(errors.Is(err, service.ErrNoModels), ShouldBeTrue)
		So(errors.Is(err, bundle.ErrIncomplete), ShouldBeTrue)
	})

	Convey("Given a trained bundle", t, func() {
		svc, err := service.New(service.WithBundle(trainedBundle(t)))

		Convey("Then the service reports loaded models", func() {
			So(err, ShouldBeNil)
			So(svc.ModelsLoaded(), ShouldBeTrue)
			So(svc.Threshold(), ShouldEqual, scoring.DefaultThreshold)

			stats := svc.Stats()
			So(stats["models_loaded"], ShouldEqual, true)
			So(stats["score_model_trees"], ShouldEqual, 20)
		})

		Convey("Then the vocabulary mirrors the encoders", func() {
			vocab := svc.Vocabulary()
			So(len(vocab), ShouldEqual, len(model.CategoricalColumns))
			So(vocab[model.ColStress], ShouldResemble, trainedBundle(t).Encoders[model.ColStress].Classes)

			vocab[model.ColStress][0] = "mutated"
			So(svc.Vocabulary()[model.ColStress][0], ShouldNotEqual, "mutated")
		})
	})
}

func TestService_Predict(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with trained models", t, func() {
		b := trainedBundle(t)
		svc, err := service.New(service.WithBundle(b))
		So(err, ShouldBeNil)

		Convey("When the scenario answers are scored", func() {
			res, err := svc.Predict(ctx, scenarioInput())

			Convey("Then score, bucket and risk agree with the models", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, scoring.Round(res.RawScore))
				So(res.ResultClass, ShouldEqual, scoring.Classify(res.RawScore))
				So(b.RiskEncoder.Classes, ShouldContain, res.Risk)
			})

			Convey("Then the tips follow the rules in order", func() {
				So(res.Tips, ShouldResemble, []string{
					tips.StressTip, tips.SleepTip, tips.HydrationTip, tips.ProteinTip, tips.DandruffTip,
				})
			})
		})

		Convey("When the same answers are scored twice", func() {
			a, err := svc.Predict(ctx, scenarioInput())
			So(err, ShouldBeNil)
			b, err := svc.Predict(ctx, scenarioInput())
			So(err, ShouldBeNil)

			Convey("Then the results are identical", func() {
				So(b, ShouldResemble, a)
			})
		})

		Convey("When issues are duplicated or padded", func() {
			in := scenarioInput()
			in.Issues = []string{" Hair Fall", "Dandruff", "Hair Fall", ""}
			padded, err := svc.Predict(ctx, in)
			So(err, ShouldBeNil)
			clean, err := svc.Predict(ctx, scenarioInput())
			So(err, ShouldBeNil)

			Convey("Then they count the same as the clean selection", func() {
				So(padded, ShouldResemble, clean)
			})
		})

		Convey("When an answer was never seen in training", func() {
			in := scenarioInput()
			in.Genetics = "Excellent"
			_, err := svc.Predict(ctx, in)

			Convey("Then an encoding error is returned", func() {
				var encErr *encoding.EncodingError
				So(errors.As(err, &encErr), ShouldBeTrue)
				So(encErr.Value, ShouldEqual, "Excellent")
				So(service.IsClientError(err), ShouldBeTrue)
			})
		})

		Convey("When a required answer is missing", func() {
			in := scenarioInput()
			in.Stress = ""
			_, err := svc.Predict(ctx, in)

			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			So(service.IsClientError(err), ShouldBeTrue)
		})

		Convey("When predictions run concurrently", func() {
			gen := synth.NewGenerator(99)
			inputs := gen.Inputs(40)
			want := make([]service.Result, len(inputs))
			for i, in := range inputs {
				want[i], err = svc.Predict(ctx, in)
				So(err, ShouldBeNil)
			}

			got := make([]service.Result, len(inputs))
			var wg sync.WaitGroup
			for i, in := range inputs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got[i], _ = svc.Predict(ctx, in)
				}()
			}
			wg.Wait()

			Convey("Then every result matches the sequential one", func() {
				So(got, ShouldResemble, want)
			})
		})
	})

	Convey("Given a custom threshold", t, func() {
		svc, err := service.New(service.WithBundle(trainedBundle(t)), service.WithThreshold(1000))
		So(err, ShouldBeNil)

		res, err := svc.Predict(ctx, scenarioInput())
		So(err, ShouldBeNil)
		So(res.ResultClass, ShouldEqual, scoring.BucketBad)
	})
}

func TestIsClientError(t *testing.T) {
	Convey("Given server side errors", t, func() {
		So(service.IsClientError(forest.ErrNotFitted), ShouldBeFalse)
		So(service.IsClientError(errors.New("boom")), ShouldBeFalse)
	})
}
