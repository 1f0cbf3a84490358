// Package forest implements bootstrap-aggregated CART ensembles: a random
// forest regressor and a random forest classifier. Fitting is deterministic
// for a given seed regardless of how many trees are grown in parallel.
package forest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Defaults for a new forest.
const (
	DefaultTrees           = 100
	DefaultMinSamplesSplit = 2
	DefaultSeed            = 42
)

// Params are the hyperparameters of a forest. They are stored with the
// fitted model so a loaded model can report how it was grown.
type Params struct {
	// Trees is the number of estimators.
	Trees int
	// MaxDepth limits tree depth; 0 grows until leaves are pure.
	MaxDepth int
	// MinSamplesSplit is the smallest node that may be split.
	MinSamplesSplit int
	// MaxFeatures is the number of features considered per split; 0 means all.
	MaxFeatures int
	// SqrtFeatures considers floor(sqrt(n)) features per split and wins over MaxFeatures.
	SqrtFeatures bool
	// Seed drives bootstrapping and feature sampling.
	Seed int64
	// Workers bounds the number of trees grown concurrently; 0 uses GOMAXPROCS.
	Workers int
}

// Option applies a configuration option to Params.
type Option func(*Params)

// WithTrees sets the number of estimators.
func WithTrees(n int) Option {
	return func(p *Params) { p.Trees = n }
}

// WithMaxDepth limits tree depth.
func WithMaxDepth(depth int) Option {
	return func(p *Params) { p.MaxDepth = depth }
}

// WithMinSamplesSplit sets the smallest splittable node.
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) { p.MinSamplesSplit = n }
}

// WithMaxFeatures sets a fixed number of features per split.
func WithMaxFeatures(n int) Option {
	return func(p *Params) {
		p.MaxFeatures = n
		p.SqrtFeatures = false
	}
}

// WithSqrtFeatures considers sqrt(n) features per split.
func WithSqrtFeatures() Option {
	return func(p *Params) { p.SqrtFeatures = true }
}

// WithAllFeatures considers every feature at every split.
func WithAllFeatures() Option {
	return func(p *Params) {
		p.MaxFeatures = 0
		p.SqrtFeatures = false
	}
}

// ParseMaxFeatures maps a feature sampling rule to an Option: "all", "sqrt"
// or a positive count. An empty rule keeps each model's default, which is
// every feature for regressors and sqrt for classifiers.
func ParseMaxFeatures(rule string) (Option, error) {
	switch rule = strings.ToLower(strings.TrimSpace(rule)); rule {
	case "":
		return func(*Params) {}, nil
	case "all":
		return WithAllFeatures(), nil
	case "sqrt":
		return WithSqrtFeatures(), nil
	}
	n, err := strconv.Atoi(rule)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: max features must be all, sqrt or a positive count, got %q", ErrInvalidParams, rule)
	}
	return WithMaxFeatures(n), nil
}

// WithSeed sets the random seed.
func WithSeed(seed int64) Option {
	return func(p *Params) { p.Seed = seed }
}

// WithWorkers bounds tree-level parallelism.
func WithWorkers(n int) Option {
	return func(p *Params) {
		if n > 0 {
			p.Workers = n
		}
	}
}

func defaultParams() Params {
	return Params{
		Trees:           DefaultTrees,
		MinSamplesSplit: DefaultMinSamplesSplit,
		Seed:            DefaultSeed,
	}
}

func (p Params) validate() error {
	if p.Trees < 1 {
		return fmt.Errorf("%w: trees must be at least 1, got %d", ErrInvalidParams, p.Trees)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidParams, p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("%w: min samples split must be at least 2, got %d", ErrInvalidParams, p.MinSamplesSplit)
	}
	if p.MaxFeatures < 0 {
		return fmt.Errorf("%w: max features must not be negative, got %d", ErrInvalidParams, p.MaxFeatures)
	}
	return nil
}

// featuresPerSplit resolves the feature sampling rule for nFeatures columns.
func (p Params) featuresPerSplit(nFeatures int) int {
	k := nFeatures
	switch {
	case p.SqrtFeatures:
		k = int(math.Sqrt(float64(nFeatures)))
	case p.MaxFeatures > 0:
		k = p.MaxFeatures
	}
	if k < 1 {
		k = 1
	}
	if k > nFeatures {
		k = nFeatures
	}
	return k
}
