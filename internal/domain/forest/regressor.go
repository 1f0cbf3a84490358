package forest

import (
	"context"
	"fmt"
)

// Regressor is a random forest over a continuous target. Exported fields are
// the persisted form of a fitted model.
type Regressor struct {
	Params      Params
	Features    int
	Trees       []Tree
	Importances []float64
}

// NewRegressor returns an unfitted regressor. Every split considers all
// features unless overridden.
func NewRegressor(opts ...Option) *Regressor {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &Regressor{Params: p}
}

// Fit grows the forest on x and y. Any previous fit is discarded.
func (r *Regressor) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if err := r.Params.validate(); err != nil {
		return err
	}
	cols, err := checkMatrix(x, len(y))
	if err != nil {
		return err
	}
	trees, imp, err := growForest(ctx, x, r.Params, func() criterion {
		return &varianceCriterion{x: x, y: y}
	})
	if err != nil {
		return err
	}
	r.Features = cols
	r.Trees = trees
	r.Importances = imp
	return nil
}

// Fitted reports whether the regressor holds trees.
func (r *Regressor) Fitted() bool { return len(r.Trees) > 0 }

// Predict returns the mean of the tree predictions for x.
func (r *Regressor) Predict(x []float64) (float64, error) {
	if !r.Fitted() {
		return 0, ErrNotFitted
	}
	if len(x) != r.Features {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(x), r.Features)
	}
	sum := 0.0
	for _, t := range r.Trees {
		sum += t.leaf(x).Value
	}
	return sum / float64(len(r.Trees)), nil
}

// PredictBatch predicts every row of x.
func (r *Regressor) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := r.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
