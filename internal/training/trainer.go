// Package training fits the score and risk forests on an encoded dataset and
// measures them on a held-out partition.
package training

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/hairhealth/internal/adapters/dataset"
	"github.com/okian/hairhealth/internal/domain/bundle"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/domain/model"
	"github.com/okian/hairhealth/pkg/logger"
)

// Defaults for a new Trainer.
const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
)

// Result is the output of one training run.
type Result struct {
	Bundle *bundle.Bundle
	Report bundle.Report
}

// Trainer fits both estimators with a shared seed and split.
type Trainer struct {
	seed         int64
	testFraction float64
	forestOpts   []forest.Option
	datasetName  string
	log          logger.Logger
	now          func() time.Time
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithSeed sets the seed used for the split and both forests.
func WithSeed(seed int64) Option {
	return func(t *Trainer) { t.seed = seed }
}

// WithTestFraction sets the held-out share of rows.
func WithTestFraction(f float64) Option {
	return func(t *Trainer) { t.testFraction = f }
}

// WithForestOptions forwards hyperparameters to both forests.
func WithForestOptions(opts ...forest.Option) Option {
	return func(t *Trainer) { t.forestOpts = append(t.forestOpts, opts...) }
}

// WithDatasetName records where the rows came from in the report.
func WithDatasetName(name string) Option {
	return func(t *Trainer) { t.datasetName = name }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock overrides the time source stamped on reports.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTrainer creates a Trainer.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		seed:         DefaultSeed,
		testFraction: DefaultTestFraction,
		log:          logger.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train splits enc, fits the regressor on scores and the classifier on risk
// ids concurrently, and evaluates both on the held-out rows.
func (t *Trainer) Train(ctx context.Context, enc *dataset.Encoded) (*Result, error) {
	trainIdx, testIdx, err := Split(enc.Rows(), t.testFraction, t.seed)
	if err != nil {
		return nil, err
	}
	xTrain, xTest := rows(enc.X, trainIdx), rows(enc.X, testIdx)

	opts := append([]forest.Option{forest.WithSeed(t.seed)}, t.forestOpts...)
	reg := forest.NewRegressor(opts...)
	clf := forest.NewClassifier(opts...)

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := reg.Fit(gctx, xTrain, rows(enc.Scores, trainIdx)); err != nil {
			return fmt.Errorf("fit score model: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := clf.Fit(gctx, xTrain, rows(enc.Risks, trainIdx)); err != nil {
			return fmt.Errorf("fit risk model: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	t.log.Info(ctx, "models fitted",
		logger.Int("train_rows", len(trainIdx)),
		logger.Int("trees", reg.Params.Trees),
		logger.Duration("elapsed", time.Since(started)),
	)

	scorePred, err := reg.PredictBatch(xTest)
	if err != nil {
		return nil, fmt.Errorf("evaluate score model: %w", err)
	}
	scoreMetrics, err := EvaluateRegression(rows(enc.Scores, testIdx), scorePred)
	if err != nil {
		return nil, err
	}
	riskPred, err := clf.PredictBatch(xTest)
	if err != nil {
		return nil, fmt.Errorf("evaluate risk model: %w", err)
	}
	riskMetrics, err := EvaluateClassification(rows(enc.Risks, testIdx), riskPred, enc.RiskEncoder.Classes)
	if err != nil {
		return nil, err
	}

	t.log.Info(ctx, "held-out evaluation",
		logger.Int("test_rows", len(testIdx)),
		logger.Float64("score_rmse", scoreMetrics.RMSE),
		logger.Float64("score_mae", scoreMetrics.MAE),
		logger.Float64("score_r2", scoreMetrics.R2),
		logger.Float64("risk_accuracy", riskMetrics.Accuracy),
	)

	b := &bundle.Bundle{
		Score:       reg,
		Risk:        clf,
		RiskEncoder: enc.RiskEncoder,
		Encoders:    enc.Encoders,
	}
	return &Result{
		Bundle: b,
		Report: bundle.Report{
			TrainedAt:        t.now().UTC(),
			Dataset:          t.datasetName,
			Rows:             enc.Rows(),
			TrainRows:        len(trainIdx),
			TestRows:         len(testIdx),
			Seed:             t.seed,
			TestFraction:     t.testFraction,
			Trees:            reg.Params.Trees,
			Score:            scoreMetrics,
			Risk:             riskMetrics,
			ScoreImportances: named(reg.Importances),
			RiskImportances:  named(clf.Importances),
		},
	}, nil
}

func named(importances []float64) map[string]float64 {
	if len(importances) != model.NumFeatures {
		return nil
	}
	out := make(map[string]float64, model.NumFeatures)
	for i, v := range importances {
		out[model.FeatureColumns[i]] = v
	}
	return out
}
