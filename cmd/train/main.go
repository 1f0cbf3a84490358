package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/hairhealth/internal/adapters/artifacts"
	"github.com/okian/hairhealth/internal/adapters/dataset"
	"github.com/okian/hairhealth/internal/config"
	"github.com/okian/hairhealth/internal/domain/forest"
	"github.com/okian/hairhealth/internal/training"
	"github.com/okian/hairhealth/pkg/logger"
)

// trainOptions are the trainer settings after config and flags are merged.
type trainOptions struct {
	dataset         string
	out             string
	seed            int64
	trees           int
	testFraction    float64
	maxDepth        int
	minSamplesSplit int
	maxFeatures     string
	logLevel        string
	logFormat       string
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "hairhealth-train",
		Short: "Fit the hair score and risk models from a dataset",
		Long: `Reads the historical dataset (CSV or XLSX), fits the score regressor and the
risk classifier on a seeded train/test split, logs held-out metrics and writes
the model artifacts and training report to the output directory.`,
		Example: `
  hairhealth-train --dataset dataset/hair_health_dataset.csv --out artifacts
  hairhealth-train --trees 200 --max-depth 12 --seed 7
  hairhealth-train --max-features sqrt`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyConfig(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return train(cmd.Context(), opts)
		},
	}

	defaults := config.New()
	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", defaults.DatasetPath, "dataset file (.csv or .xlsx)")
	f.StringVar(&opts.out, "out", defaults.ArtifactDir, "directory receiving the model artifacts")
	f.Int64Var(&opts.seed, "seed", defaults.Seed, "seed for the split and the forests")
	f.IntVar(&opts.trees, "trees", defaults.Trees, "trees per forest")
	f.Float64Var(&opts.testFraction, "test-fraction", defaults.TestFraction, "share of rows held out for evaluation")
	f.IntVar(&opts.maxDepth, "max-depth", defaults.MaxDepth, "maximum tree depth, 0 for unlimited")
	f.IntVar(&opts.minSamplesSplit, "min-samples-split", defaults.MinSamplesSplit, "minimum node size that may be split")
	f.StringVar(&opts.maxFeatures, "max-features", defaults.MaxFeatures, "features per split: all, sqrt or a count; empty keeps each model's default")
	f.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	return cmd
}

// applyConfig fills every flag the user did not set from .env, the config
// file and HAIR_ environment variables.
func applyConfig(cmd *cobra.Command, opts *trainOptions) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if !f.Changed("dataset") {
		opts.dataset = cfg.DatasetPath
	}
	if !f.Changed("out") {
		opts.out = cfg.ArtifactDir
	}
	if !f.Changed("seed") {
		opts.seed = cfg.Seed
	}
	if !f.Changed("trees") {
		opts.trees = cfg.Trees
	}
	if !f.Changed("test-fraction") {
		opts.testFraction = cfg.TestFraction
	}
	if !f.Changed("max-depth") {
		opts.maxDepth = cfg.MaxDepth
	}
	if !f.Changed("min-samples-split") {
		opts.minSamplesSplit = cfg.MinSamplesSplit
	}
	if !f.Changed("max-features") {
		opts.maxFeatures = cfg.MaxFeatures
	}
	if !f.Changed("log-level") {
		opts.logLevel = cfg.LogLevel
	}
	opts.logFormat = cfg.LogFormat

	if err := logger.InitWith(cmd.ErrOrStderr(), opts.logFormat); err != nil {
		return err
	}
	return logger.SetLevelString(opts.logLevel)
}

// train runs load, profile, encode, fit and evaluate, then saves the
// artifacts and the report.
func train(ctx context.Context, opts *trainOptions) error {
	log := logger.Get()

	records, err := dataset.Load(ctx, opts.dataset)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", opts.dataset, err)
	}
	profile, err := dataset.Profile(records)
	if err != nil {
		return fmt.Errorf("profile dataset: %w", err)
	}
	log.Info(ctx, "dataset loaded",
		logger.String("path", opts.dataset),
		logger.Int("rows", profile.Rows),
		logger.Float64("score_mean", profile.Score.Mean),
		logger.Float64("score_std_dev", profile.Score.StdDev),
		logger.Float64("sleep_median", profile.Sleep.Median),
		logger.Float64("water_median", profile.Water.Median),
		logger.Any("risk_counts", profile.RiskCounts),
		logger.Any("issue_counts", profile.IssueCounts),
	)

	features, err := forest.ParseMaxFeatures(opts.maxFeatures)
	if err != nil {
		return err
	}

	enc, err := dataset.Encode(records)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	trainer := training.NewTrainer(
		training.WithSeed(opts.seed),
		training.WithTestFraction(opts.testFraction),
		training.WithDatasetName(filepath.Base(opts.dataset)),
		training.WithLogger(log.Named("training")),
		training.WithForestOptions(
			forest.WithTrees(opts.trees),
			forest.WithMaxDepth(opts.maxDepth),
			forest.WithMinSamplesSplit(opts.minSamplesSplit),
			features,
		),
	)
	res, err := trainer.Train(ctx, enc)
	if err != nil {
		return err
	}

	store := artifacts.NewStore(opts.out, artifacts.WithLogger(log))
	if err := store.Save(ctx, res.Bundle); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	if err := store.SaveReport(ctx, res.Report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	log.Info(ctx, "training complete",
		logger.String("out", opts.out),
		logger.Float64("score_rmse", res.Report.Score.RMSE),
		logger.Float64("score_r2", res.Report.Score.R2),
		logger.Float64("risk_accuracy", res.Report.Risk.Accuracy),
	)
	return nil
}
