package forest

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Classifier is a random forest over integer class labels 0..Classes-1.
// Exported fields are the persisted form of a fitted model.
type Classifier struct {
	Params      Params
	Features    int
	Classes     int
	Trees       []Tree
	Importances []float64
}

// NewClassifier returns an unfitted classifier. Splits consider sqrt(n)
// features unless overridden.
func NewClassifier(opts ...Option) *Classifier {
	p := defaultParams()
	p.SqrtFeatures = true
	for _, opt := range opts {
		opt(&p)
	}
	return &Classifier{Params: p}
}

// Fit grows the forest on x and labels. The class count is max(label)+1.
func (c *Classifier) Fit(ctx context.Context, x [][]float64, labels []int) error {
	if err := c.Params.validate(); err != nil {
		return err
	}
	cols, err := checkMatrix(x, len(labels))
	if err != nil {
		return err
	}
	classes := 0
	for i, l := range labels {
		if l < 0 {
			return fmt.Errorf("%w: row %d has label %d", ErrInvalidLabel, i, l)
		}
		classes = max(classes, l+1)
	}
	trees, imp, err := growForest(ctx, x, c.Params, func() criterion {
		return &giniCriterion{x: x, y: labels, classes: classes}
	})
	if err != nil {
		return err
	}
	c.Features = cols
	c.Classes = classes
	c.Trees = trees
	c.Importances = imp
	return nil
}

// Fitted reports whether the classifier holds trees.
func (c *Classifier) Fitted() bool { return len(c.Trees) > 0 }

// PredictProba averages the leaf class distributions of every tree.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}
	if len(x) != c.Features {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(x), c.Features)
	}
	proba := make([]float64, c.Classes)
	for _, t := range c.Trees {
		floats.Add(proba, t.leaf(x).Dist)
	}
	floats.Scale(1/float64(len(c.Trees)), proba)
	return proba, nil
}

// Predict returns the most probable class. Ties go to the lowest class id.
func (c *Classifier) Predict(x []float64) (int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

// PredictBatch predicts every row of x.
func (c *Classifier) PredictBatch(x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i, row := range x {
		v, err := c.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
