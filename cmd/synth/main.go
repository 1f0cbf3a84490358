package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/hairhealth/internal/synth"
)

// Default configuration constants.
const (
	defaultRows        = 1000
	defaultRequests    = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultSeed        = 42
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

// synthOptions are shared by every subcommand.
type synthOptions struct {
	seed    int64
	logFile string
	verbose bool
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &synthOptions{}

	cmd := &cobra.Command{
		Use:   "hairhealth-synth",
		Short: "Generate synthetic hair health data or load a running service",
		Long: `Generates synthetic training data, or drives concurrent form submissions
against a running hair health service and checks every result it gets back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := synth.SetupLogging(opts.logFile); err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.Int64Var(&opts.seed, "seed", defaultSeed, "seed for generated data")
	f.StringVar(&opts.logFile, "log", "", "log file for run output (default: synth_log_TIMESTAMP.log)")
	f.BoolVar(&opts.verbose, "verbose", false, "enable verbose logging")

	cmd.AddCommand(newDatasetCmd(opts), newLoadCmd(opts))
	return cmd
}

func newDatasetCmd(opts *synthOptions) *cobra.Command {
	var (
		out  string
		rows int
	)
	cmd := &cobra.Command{
		Use:     "dataset",
		Short:   "Write a synthetic CSV training dataset",
		Example: "  hairhealth-synth dataset --out dataset/hair_health_dataset.csv --rows 2000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := synth.WriteDataset(cmd.Context(), out, rows, opts.seed); err != nil {
				return fmt.Errorf("dataset generation failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "dataset/hair_health_dataset.csv", "path of the CSV file to write")
	cmd.Flags().IntVar(&rows, "rows", defaultRows, "number of dataset rows to generate")
	return cmd
}

func newLoadCmd(opts *synthOptions) *cobra.Command {
	cfg := &synth.Config{}
	cmd := &cobra.Command{
		Use:     "load",
		Short:   "Submit generated answers to a running service",
		Example: "  hairhealth-synth load --requests 5000 --workers 16 --url http://localhost:5000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Seed = opts.seed
			cfg.LogFile = opts.logFile
			cfg.Verbose = opts.verbose
			if err := synth.Run(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("load run failed: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:5000", "base URL of the service")
	f.IntVar(&cfg.NumRequests, "requests", defaultRequests, "number of form submissions")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	return cmd
}
