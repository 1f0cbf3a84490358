package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/hairhealth/internal/domain/bundle"
)

// EvaluateRegression compares held-out scores with predictions. R2 is
// reported as 0 when the held-out targets have no variance.
func EvaluateRegression(truth, pred []float64) (bundle.RegressionMetrics, error) {
	if len(truth) != len(pred) {
		return bundle.RegressionMetrics{}, fmt.Errorf("%w: %d targets, %d predictions", ErrLengthMismatch, len(truth), len(pred))
	}
	if len(truth) == 0 {
		return bundle.RegressionMetrics{}, nil
	}
	n := float64(len(truth))

	m := bundle.RegressionMetrics{
		RMSE: floats.Distance(truth, pred, 2) / math.Sqrt(n),
		MAE:  floats.Distance(truth, pred, 1) / n,
		R2:   stat.RSquaredFrom(pred, truth, nil),
	}
	if math.IsNaN(m.R2) || math.IsInf(m.R2, 0) {
		m.R2 = 0
	}
	return m, nil
}

// EvaluateClassification builds the accuracy and confusion matrix over
// labels. Class ids outside labels are counted as misses but not tabulated.
func EvaluateClassification(truth, pred []int, labels []string) (bundle.ClassificationMetrics, error) {
	if len(truth) != len(pred) {
		return bundle.ClassificationMetrics{}, fmt.Errorf("%w: %d targets, %d predictions", ErrLengthMismatch, len(truth), len(pred))
	}
	k := len(labels)
	m := bundle.ClassificationMetrics{
		Labels:    append([]string(nil), labels...),
		Confusion: make([][]int, k),
	}
	for i := range m.Confusion {
		m.Confusion[i] = make([]int, k)
	}
	if len(truth) == 0 {
		return m, nil
	}

	correct := 0
	for i := range truth {
		t, p := truth[i], pred[i]
		if t == p {
			correct++
		}
		if t >= 0 && t < k && p >= 0 && p < k {
			m.Confusion[t][p]++
		}
	}
	m.Accuracy = float64(correct) / float64(len(truth))
	return m, nil
}
